package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/scribe/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Inbox\n- first\n")
	if err := s.Write("Inbox.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("Inbox.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempVault(t)
	if _, err := s.Read("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.Delete("nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("daily/2025-03-07.md", []byte("x"))

	tests := []struct {
		path string
		want bool
	}{
		{"daily/2025-03-07.md", true},
		{"daily", false},
		{"missing.md", false},
	}
	for _, tt := range tests {
		got, err := s.Exists(tt.path)
		if err != nil {
			t.Fatalf("Exists(%q): %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMove(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("old.md", []byte("data"))
	_ = s.Write("taken.md", []byte("other"))
	if err := s.Move("old.md", "taken.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("move onto existing: %v", err)
	}
	if err := s.Move("old.md", "sub/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got, err := s.Read("sub/new.md"); err != nil || string(got) != "data" {
		t.Errorf("Read after move = %q, %v", got, err)
	}
	if ok, _ := s.Exists("old.md"); ok {
		t.Error("old path should not exist")
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("templates/b.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".trash/c.md", []byte("hidden"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if it.Path == "templates/b.md" && it.Checksum != Checksum([]byte("b")) {
			t.Errorf("checksum = %s", it.Checksum)
		}
	}

	sub, err := s.List("templates")
	if err != nil || len(sub) != 1 {
		t.Errorf("List(templates) = %+v, %v", sub, err)
	}
	none, err := s.List("missing")
	if err != nil || len(none) != 0 {
		t.Errorf("List(missing) = %+v, %v", none, err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if _, err := s.Exists(p); err == nil {
			t.Errorf("expected error for exists on %q", p)
		}
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original"))
	if err := s.Write("atomic.md", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".scribe-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFSRejectsBadRoots(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent dir")
	}
	f, err := os.CreateTemp(t.TempDir(), "scribe-test-*")
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
