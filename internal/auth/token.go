// Package auth provides local persistence of the user's session.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// prefs is the on-disk session file. It holds nothing but the bearer
// token and the signed-in user's profile.
type prefs struct {
	Token     string `json:"auth_token,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// TokenManager stores the bearer token and user profile in a
// permission-restricted file under the data directory. It is the
// credential provider for the sync worker: an absent token is a
// transient condition (the user may sign in later), never a hard error.
type TokenManager struct {
	mu    sync.RWMutex
	path  string
	prefs prefs
}

// NewTokenManager loads the session file from dataDir, creating the
// directory if needed. A missing file simply means "not signed in".
func NewTokenManager(dataDir string) (*TokenManager, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tm := &TokenManager{path: filepath.Join(dataDir, "session.json")}

	data, err := os.ReadFile(tm.path)
	if os.IsNotExist(err) {
		return tm, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if err := json.Unmarshal(data, &tm.prefs); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return tm, nil
}

// Token returns the stored bearer token. The second return is false
// when no user is signed in.
func (tm *TokenManager) Token() (string, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.prefs.Token, tm.prefs.Token != ""
}

// SaveToken persists a new bearer token.
func (tm *TokenManager) SaveToken(token string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.prefs.Token = token
	return tm.flush()
}

// SaveUser persists the signed-in user's profile.
func (tm *TokenManager) SaveUser(id int64, name, email string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.prefs.UserID = id
	tm.prefs.UserName = name
	tm.prefs.UserEmail = email
	return tm.flush()
}

// UserName returns the stored user name, if any.
func (tm *TokenManager) UserName() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.prefs.UserName
}

// LoggedIn reports whether a bearer token is present.
func (tm *TokenManager) LoggedIn() bool {
	_, ok := tm.Token()
	return ok
}

// Clear removes the session entirely (sign-out).
func (tm *TokenManager) Clear() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.prefs = prefs{}
	err := os.Remove(tm.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// flush writes the session file with owner-only permissions. Callers
// hold the write lock.
func (tm *TokenManager) flush() error {
	data, err := json.MarshalIndent(tm.prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(tm.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
