package session

import (
	"os"
	"path/filepath"
	"testing"

	"tikalinvest/internal/client"
)

func TestFileStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if access, refresh := s.Tokens(); access != "" || refresh != "" || s.User() != nil {
		t.Fatal("Expected an empty session for a missing file")
	}

	if err := s.SetSession("a1", "r1", &client.User{ID: 3, Username: "ana"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected mode 0600, got %o", perm)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if access, refresh := reopened.Tokens(); access != "a1" || refresh != "r1" {
		t.Errorf("Expected saved tokens, got %q/%q", access, refresh)
	}
	if u := reopened.User(); u == nil || u.Username != "ana" {
		t.Errorf("Expected saved user, got %+v", u)
	}
}

func TestFileStore_ClearAndSetUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, _ := Open(path)
	_ = s.SetSession("a1", "r1", &client.User{Username: "ana"})

	if err := s.SetUser(nil); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if access, _ := s.Tokens(); access != "a1" {
		t.Error("Dropping the user must keep the tokens")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	reopened, _ := Open(path)
	if access, refresh := reopened.Tokens(); access != "" || refresh != "" {
		t.Errorf("Expected cleared tokens on disk, got %q/%q", access, refresh)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestOpen_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Expected an error for a corrupt session file")
	}
}
