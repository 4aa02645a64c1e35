package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultTokenStorageDir is the default directory for storing session tokens,
// relative to the user's home directory.
const DefaultTokenStorageDir = ".config/ambioctl"

// tokenFileName is the name of the token file inside the storage directory.
const tokenFileName = "tokens.json"

// TokenStore holds the access/refresh token pair for the Ambio API.
// It supports both file-based and in-memory storage.
//
// SECURITY: This store handles session credentials. The following measures
// are implemented:
//   - The token file is created with 0600 permissions (owner read/write only)
//   - The storage directory is created with 0700 permissions (owner only)
//   - Token values are NEVER logged, only storage events
//
// Tokens are opaque strings. The store performs no validation of their shape;
// the server is authoritative for their validity.
type TokenStore struct {
	mu         sync.RWMutex
	storageDir string
	fileMode   bool // Whether to persist to disk
	tokens     storedTokens
	loaded     bool
}

// storedTokens is the on-disk representation of the token pair.
type storedTokens struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// TokenStoreConfig configures the token store.
type TokenStoreConfig struct {
	// StorageDir is the directory for the token file.
	// Defaults to ~/.config/ambioctl.
	StorageDir string

	// FileMode enables file-based persistence. If false, tokens are
	// in-memory only (used by tests).
	FileMode bool
}

// NewTokenStore creates a new token store with the specified configuration.
func NewTokenStore(cfg TokenStoreConfig) (*TokenStore, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultTokenStorageDir)
	}

	store := &TokenStore{
		storageDir: storageDir,
		fileMode:   cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token storage directory: %w", err)
		}
	}

	return store, nil
}

// AccessToken returns the stored access token. The boolean reports whether
// one is present.
func (s *TokenStore) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return s.tokens.AccessToken, s.tokens.AccessToken != ""
}

// RefreshToken returns the stored refresh token. The boolean reports whether
// one is present.
func (s *TokenStore) RefreshToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return s.tokens.RefreshToken, s.tokens.RefreshToken != ""
}

// SetTokens stores the access token unconditionally. The refresh token is
// written only when non-empty, which supports refresh-only rotation where the
// server issues a new access token but the original refresh token stays
// valid.
func (s *TokenStore) SetTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	s.tokens.AccessToken = access
	if refresh != "" {
		s.tokens.RefreshToken = refresh
	}
	s.tokens.UpdatedAt = time.Now()
	return s.persistLocked("tokens_stored")
}

// SetAccessToken overwrites only the access token, leaving the refresh token
// unchanged.
func (s *TokenStore) SetAccessToken(access string) error {
	return s.SetTokens(access, "")
}

// Clear erases both tokens from memory and disk.
// SECURITY: Logs the clearing event for the audit trail, never token values.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = storedTokens{}
	s.loaded = true

	if s.fileMode {
		err := os.Remove(s.tokenFilePath())
		if err != nil && !os.IsNotExist(err) {
			slog.Warn("SECURITY_AUDIT: session token clearing failed",
				"event", "tokens_clear_failed",
				"error", err.Error(),
			)
			return fmt.Errorf("failed to remove token file: %w", err)
		}
	}

	slog.Info("SECURITY_AUDIT: session tokens cleared",
		"event", "tokens_cleared",
	)
	return nil
}

// tokenFilePath returns the path of the token file.
func (s *TokenStore) tokenFilePath() string {
	return filepath.Join(s.storageDir, tokenFileName)
}

// loadLocked populates the in-memory cache from disk on first use.
// REQUIRES: s.mu must be held by the caller.
func (s *TokenStore) loadLocked() {
	if s.loaded || !s.fileMode {
		s.loaded = true
		return
	}
	s.loaded = true

	// #nosec G304 -- path is constructed from the configured storage dir
	data, err := os.ReadFile(s.tokenFilePath())
	if err != nil {
		return
	}

	var tokens storedTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		slog.Warn("ignoring malformed token file",
			"path", s.tokenFilePath(),
			"error", err.Error(),
		)
		return
	}
	s.tokens = tokens
}

// persistLocked writes the current token pair to disk.
// REQUIRES: s.mu must be held by the caller.
func (s *TokenStore) persistLocked(event string) error {
	if !s.fileMode {
		return nil
	}

	data, err := json.MarshalIndent(s.tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(s.tokenFilePath(), data, 0600); err != nil {
		slog.Warn("SECURITY_AUDIT: session token storage failed",
			"event", "tokens_store_failed",
			"error", err.Error(),
		)
		return fmt.Errorf("failed to write token file: %w", err)
	}

	slog.Info("SECURITY_AUDIT: session tokens stored",
		"event", event,
		"has_refresh_token", s.tokens.RefreshToken != "",
	)
	return nil
}
