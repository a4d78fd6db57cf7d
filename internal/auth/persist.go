package auth

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File format: one line per user, fields separated by single spaces:
//
//	username saltHex hashHex createdAtUnix lastLoginUnix failureCount
//
// lastLoginUnix is 0 for a user who has never successfully authenticated.
// Lines beginning with '#' and blank lines are ignored, as are any fields
// after the sixth on a line; saveFile writes exactly six. The file never
// stores plaintext passwords.
const recordFieldCount = 6

func loadFile(path string) (map[string]*record, error) {
	users := make(map[string]*record)
	if path == "" {
		return users, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return users, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < recordFieldCount {
			return nil, fmt.Errorf("auth: %s:%d: expected at least %d fields, got %d", path, lineNo, recordFieldCount, len(fields))
		}

		salt, err := hex.DecodeString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("auth: %s:%d: bad salt: %w", path, lineNo, err)
		}
		hash, err := hex.DecodeString(fields[2])
		if err != nil {
			return nil, fmt.Errorf("auth: %s:%d: bad hash: %w", path, lineNo, err)
		}
		createdAt, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("auth: %s:%d: bad created_at: %w", path, lineNo, err)
		}
		lastLogin, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("auth: %s:%d: bad last_login: %w", path, lineNo, err)
		}
		failures, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, fmt.Errorf("auth: %s:%d: bad failure_count: %w", path, lineNo, err)
		}

		u := &record{
			username:     fields[0],
			salt:         salt,
			hash:         hash,
			createdAt:    time.Unix(createdAt, 0).UTC(),
			failureCount: failures,
		}
		if lastLogin != 0 {
			u.lastLogin = time.Unix(lastLogin, 0).UTC()
		}
		users[u.username] = u
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// saveFile persists users atomically: write to a temp file in the same
// directory, fsync, then rename over path.
func saveFile(path string, users map[string]*record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".auth-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	w := bufio.NewWriter(tmp)
	for _, u := range users {
		lastLogin := int64(0)
		if !u.lastLogin.IsZero() {
			lastLogin = u.lastLogin.Unix()
		}
		_, err := fmt.Fprintf(w, "%s %s %s %d %d %d\n",
			u.username, hex.EncodeToString(u.salt), hex.EncodeToString(u.hash),
			u.createdAt.Unix(), lastLogin, u.failureCount)
		if err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
