package api

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenStore_SetAndGet(t *testing.T) {
	store, err := NewTokenStore(TokenStoreConfig{FileMode: false})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}

	access, ok := store.AccessToken()
	if !ok || access != "access-1" {
		t.Errorf("Expected access token %q, got %q (present=%v)", "access-1", access, ok)
	}

	refresh, ok := store.RefreshToken()
	if !ok || refresh != "refresh-1" {
		t.Errorf("Expected refresh token %q, got %q (present=%v)", "refresh-1", refresh, ok)
	}
}

func TestTokenStore_SetAccessTokenPreservesRefresh(t *testing.T) {
	store, err := NewTokenStore(TokenStoreConfig{FileMode: false})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}
	if err := store.SetAccessToken("access-2"); err != nil {
		t.Fatalf("Failed to set access token: %v", err)
	}

	access, _ := store.AccessToken()
	if access != "access-2" {
		t.Errorf("Expected access token %q, got %q", "access-2", access)
	}

	refresh, ok := store.RefreshToken()
	if !ok || refresh != "refresh-1" {
		t.Errorf("Expected refresh token to survive access rotation, got %q (present=%v)", refresh, ok)
	}
}

func TestTokenStore_SetTokensEmptyRefreshPreservesStored(t *testing.T) {
	store, err := NewTokenStore(TokenStoreConfig{FileMode: false})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}
	// Refresh-only rotation: server issued a new access token but kept the
	// refresh token valid.
	if err := store.SetTokens("access-2", ""); err != nil {
		t.Fatalf("Failed to rotate access token: %v", err)
	}

	refresh, ok := store.RefreshToken()
	if !ok || refresh != "refresh-1" {
		t.Errorf("Expected stored refresh token to be preserved, got %q (present=%v)", refresh, ok)
	}
}

func TestTokenStore_Clear(t *testing.T) {
	store, err := NewTokenStore(TokenStoreConfig{FileMode: false})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}

	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Failed to clear tokens: %v", err)
	}

	if _, ok := store.AccessToken(); ok {
		t.Error("Expected access token to be absent after Clear")
	}
	if _, ok := store.RefreshToken(); ok {
		t.Error("Expected refresh token to be absent after Clear")
	}
}

func TestTokenStore_FilePersistence(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewTokenStore(TokenStoreConfig{StorageDir: tmpDir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}
	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}

	// A fresh store over the same directory must see the persisted pair.
	reopened, err := NewTokenStore(TokenStoreConfig{StorageDir: tmpDir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to reopen token store: %v", err)
	}

	access, ok := reopened.AccessToken()
	if !ok || access != "access-1" {
		t.Errorf("Expected persisted access token %q, got %q (present=%v)", "access-1", access, ok)
	}
	refresh, ok := reopened.RefreshToken()
	if !ok || refresh != "refresh-1" {
		t.Errorf("Expected persisted refresh token %q, got %q (present=%v)", "refresh-1", refresh, ok)
	}
}

func TestTokenStore_FilePermissions(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewTokenStore(TokenStoreConfig{StorageDir: tmpDir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}
	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmpDir, tokenFileName))
	if err != nil {
		t.Fatalf("Failed to stat token file: %v", err)
	}

	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected token file permissions 0600, got %o", perm)
	}
}

func TestTokenStore_ClearRemovesFile(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewTokenStore(TokenStoreConfig{StorageDir: tmpDir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to create token store: %v", err)
	}
	if err := store.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("Failed to set tokens: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Failed to clear tokens: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, tokenFileName)); !os.IsNotExist(err) {
		t.Errorf("Expected token file to be removed, stat err: %v", err)
	}

	reopened, err := NewTokenStore(TokenStoreConfig{StorageDir: tmpDir, FileMode: true})
	if err != nil {
		t.Fatalf("Failed to reopen token store: %v", err)
	}
	if _, ok := reopened.AccessToken(); ok {
		t.Error("Expected no access token after Clear and reopen")
	}
}
