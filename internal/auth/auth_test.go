package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddAuthenticateRoundTrip(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)

	require.NoError(t, s.Add("alice", "hunter2"))
	require.ErrorIs(t, s.Add("alice", "other"), ErrAlreadyExists)

	require.NoError(t, s.Authenticate("alice", "hunter2"))
	require.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrBadCredentials)
	require.ErrorIs(t, s.Authenticate("bob", "hunter2"), ErrBadCredentials)
}

func TestLockoutAfterThreeFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	s, err := NewStore("", WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, s.Add("alice", "hunter2"))

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrBadCredentials)
	}

	require.ErrorIs(t, s.Authenticate("alice", "hunter2"), ErrLocked)

	now = now.Add(299 * time.Second)
	require.ErrorIs(t, s.Authenticate("alice", "hunter2"), ErrLocked)

	now = now.Add(2 * time.Second) // now 301s after the third failure
	require.NoError(t, s.Authenticate("alice", "hunter2"))
}

func TestSuccessResetsFailureCount(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	require.NoError(t, s.Add("alice", "hunter2"))

	require.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrBadCredentials)
	require.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrBadCredentials)
	require.NoError(t, s.Authenticate("alice", "hunter2"))

	require.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrBadCredentials)
	require.ErrorIs(t, s.Authenticate("alice", "wrong"), ErrBadCredentials)
	require.NoError(t, s.Authenticate("alice", "hunter2"), "failure count must have reset after the earlier success")
}

func TestVerifyChallengeDES(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	require.NoError(t, s.Add("alice", "hunter2"))

	challenge := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	resp := desChallenger{}.response("hunter2", challenge)

	require.NoError(t, s.VerifyChallenge("alice", challenge, resp))

	var wrong [16]byte
	require.ErrorIs(t, s.VerifyChallenge("alice", challenge, wrong), ErrBadCredentials)
}

func TestVerifyChallengeXORStub(t *testing.T) {
	s, err := NewStore("", WithTestXORStub())
	require.NoError(t, err)
	require.NoError(t, s.Add("alice", "hunter2"))

	challenge := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	resp := xorStubChallenger{}.response("hunter2", challenge)

	require.NoError(t, s.VerifyChallenge("alice", challenge, resp))
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.txt")

	s1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Add("alice", "hunter2"))
	require.NoError(t, s1.Authenticate("alice", "hunter2"))

	s2, err := NewStore(path)
	require.NoError(t, err)
	require.ErrorIs(t, s2.Authenticate("alice", "wrong"), ErrBadCredentials)
	require.NoError(t, s2.Authenticate("alice", "hunter2"))

	users := s2.List()
	require.Contains(t, users, "alice")
	require.False(t, users["alice"].LastLogin.IsZero())
}

func TestCorruptFileRecoversEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a valid record\n"), 0o600))

	s, err := NewStore(path)
	require.NoError(t, err)
	require.Empty(t, s.List())
	require.NoError(t, s.Add("alice", "hunter2"))
}
