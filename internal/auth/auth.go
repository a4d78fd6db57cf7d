// Package auth implements the credential store used for VNC security type 2
// (VNC Authentication): user accounts, salted PBKDF2 password hashes,
// lockout after repeated failures, and DES-based challenge/response
// verification.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	saltLength       = 16
	hashLength       = 32 // sha256 output size

	maxFailures     = 3
	lockoutDuration = 300 * time.Second
)

var (
	// ErrAlreadyExists is returned by Add when the username is taken.
	ErrAlreadyExists = errors.New("auth: user already exists")
	// ErrNotFound is returned by operations on an unknown username.
	ErrNotFound = errors.New("auth: user not found")
	// ErrBadCredentials is returned by Authenticate/Change/VerifyChallenge
	// when the supplied secret doesn't match. It deliberately does not
	// distinguish "wrong password" from "unknown user".
	ErrBadCredentials = errors.New("auth: bad credentials")
	// ErrLocked is returned by Authenticate/VerifyChallenge while a user is
	// within their lockout window.
	ErrLocked = errors.New("auth: account locked")
)

// record is one user's stored credential state. Guarded by Store.mu.
type record struct {
	username string
	salt     []byte
	hash     []byte

	// plaintext is kept in memory only (never persisted) so the DES
	// challenge/response required by VNC Authentication can be computed.
	// It is populated by Add/Change and is empty after loading from disk,
	// meaning VerifyChallenge is unavailable for a user until their
	// password is re-set in the running process. See the internal/auth
	// entry in DESIGN.md.
	plaintext string

	createdAt time.Time
	lastLogin time.Time // zero until the first successful authentication

	failureCount int
	// firstFailureAt anchors the lockout window. Kept distinct from
	// lastLogin per spec: lastLogin is reserved for successes only. See
	// SPEC_FULL.md §9.
	firstFailureAt time.Time
	lockoutUntil   time.Time
}

// UserInfo is the non-secret view of a user returned by List.
type UserInfo struct {
	Username     string
	CreatedAt    time.Time
	LastLogin    time.Time
	FailureCount int
}

// Clock is injected for deterministic lockout tests.
type Clock func() time.Time

// Store is the concurrency-safe, persisted credential store described in
// SPEC_FULL.md §4.2. All mutating operations, and the reads that touch
// lockout/failure state (Authenticate, VerifyChallenge), serialize on mu.
type Store struct {
	mu    sync.Mutex
	users map[string]*record

	path string
	now  Clock
	log  zerolog.Logger

	challenger challenger
}

type challenger interface {
	// response computes the expected challenge response for a password.
	response(password string, challenge [16]byte) [16]byte
}

// Option configures a Store at construction.
type Option func(*Store)

// WithClock overrides time.Now, for deterministic lockout tests.
func WithClock(now Clock) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger attaches a logger; the zero value is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithTestXORStub swaps the production DES challenge/response for the
// documented XOR stand-in. Per spec §4.2/§9, production builds MUST NOT use
// this; it exists for demonstration and test modes only.
func WithTestXORStub() Option {
	return func(s *Store) { s.challenger = xorStubChallenger{} }
}

// NewStore loads (or initializes) a credential store backed by path. A
// missing file starts empty; a corrupt file is recovered by reinitializing
// empty and logging a warning, per spec §4.2.
func NewStore(path string, opts ...Option) (*Store, error) {
	s := &Store{
		users:      make(map[string]*record),
		path:       path,
		now:        time.Now,
		challenger: desChallenger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	users, err := loadFile(path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("auth: user file corrupt or unreadable, starting empty")
		return s, nil
	}
	s.users = users
	return s, nil
}

// Add creates a new user with the given password.
func (s *Store) Add(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return ErrAlreadyExists
	}
	salt, hash, err := newHash(password)
	if err != nil {
		return err
	}
	s.users[username] = &record{
		username:  username,
		salt:      salt,
		hash:      hash,
		plaintext: password,
		createdAt: s.now(),
	}
	return s.persistLocked()
}

// Remove deletes a user.
func (s *Store) Remove(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return ErrNotFound
	}
	delete(s.users, username)
	return s.persistLocked()
}

// Change updates a user's password after verifying the old one.
func (s *Store) Change(username, oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	if !verifyHash(u.salt, u.hash, oldPassword) {
		return ErrBadCredentials
	}
	salt, hash, err := newHash(newPassword)
	if err != nil {
		return err
	}
	u.salt, u.hash, u.plaintext = salt, hash, newPassword
	return s.persistLocked()
}

// Authenticate checks a plaintext username/password pair, applying lockout
// policy. A locked account returns ErrLocked without touching the hash.
func (s *Store) Authenticate(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		// Don't distinguish "no such user" from "wrong password".
		return ErrBadCredentials
	}
	if s.isLockedLocked(u) {
		return ErrLocked
	}
	if !verifyHash(u.salt, u.hash, password) {
		s.recordFailureLocked(u)
		return ErrBadCredentials
	}
	s.recordSuccessLocked(u)
	return s.persistLocked()
}

// VerifyChallenge checks a VNC Authentication challenge/response pair for
// username, applying the same lockout policy as Authenticate. RFB 3.3/3.7/3.8
// VNC Authentication is single-user per connection (the protocol carries no
// username), so callers that support multiple accounts try each candidate
// username in turn. username must name an existing account; an empty or
// unknown username returns ErrBadCredentials.
func (s *Store) VerifyChallenge(username string, challenge, response [16]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return ErrBadCredentials
	}
	if s.isLockedLocked(u) {
		return ErrLocked
	}
	if u.plaintext == "" {
		// Password set before process start (or after a restart) without
		// re-entering it in this run; DES response can't be derived from
		// the stored PBKDF2 hash alone.
		s.recordFailureLocked(u)
		return ErrBadCredentials
	}
	expected := s.challenger.response(u.plaintext, challenge)
	if subtle.ConstantTimeCompare(expected[:], response[:]) != 1 {
		s.recordFailureLocked(u)
		return ErrBadCredentials
	}
	s.recordSuccessLocked(u)
	return s.persistLocked()
}

// List returns a non-secret snapshot of every user.
func (s *Store) List() map[string]UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]UserInfo, len(s.users))
	for name, u := range s.users {
		out[name] = UserInfo{
			Username:     name,
			CreatedAt:    u.createdAt,
			LastLogin:    u.lastLogin,
			FailureCount: u.failureCount,
		}
	}
	return out
}

func (s *Store) isLockedLocked(u *record) bool {
	if u.failureCount < maxFailures {
		return false
	}
	if s.now().Before(u.lockoutUntil) {
		return true
	}
	// Lockout window elapsed; reset so the next attempt is evaluated fresh.
	u.failureCount = 0
	u.firstFailureAt = time.Time{}
	u.lockoutUntil = time.Time{}
	return false
}

func (s *Store) recordFailureLocked(u *record) {
	u.failureCount++
	if u.failureCount == 1 {
		u.firstFailureAt = s.now()
	}
	if u.failureCount >= maxFailures {
		u.lockoutUntil = s.now().Add(lockoutDuration)
	}
}

func (s *Store) recordSuccessLocked(u *record) {
	u.failureCount = 0
	u.firstFailureAt = time.Time{}
	u.lockoutUntil = time.Time{}
	u.lastLogin = s.now()
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	if err := saveFile(s.path, s.users); err != nil {
		return fmt.Errorf("auth: persist user file: %w", err)
	}
	return nil
}

func newHash(password string) (salt, hash []byte, err error) {
	salt = make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("auth: generate salt: %w", err)
	}
	hash = pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashLength, sha256.New)
	return salt, hash, nil
}

func verifyHash(salt, hash []byte, password string) bool {
	candidate := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashLength, sha256.New)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// Usernames returns the set of known usernames, for callers (such as the
// connection state machine) that must try a DES challenge/response against
// every account since the protocol carries no username during VNC
// Authentication.
func (s *Store) Usernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	return names
}
