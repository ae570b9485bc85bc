// Package testutil provides shared test helpers for setting up vaults and
// capture journals.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/templates"
)

// Now is the fixed clock used by TestService.
var Now = time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC)

// TestJournal creates a temporary SQLite journal that is automatically
// cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "scribe-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteFile writes a vault file or fails the test.
func WriteFile(t *testing.T, files storage.Provider, path, content string) {
	t.Helper()
	if err := files.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}

// Env is a capture service wired to a temporary vault, a journal and a
// "Templates" folder.
type Env struct {
	Dir       string
	Files     *storage.FS
	Journal   *journal.DB
	Templates *templates.Registry
	Service   *captureservice.Service
}

// TestService builds an Env with a fixed clock. Extra options are applied
// after the defaults.
func TestService(t *testing.T, opts ...captureservice.Option) *Env {
	t.Helper()
	dir, files := TestVault(t)
	db := TestJournal(t)
	reg := templates.NewRegistry(files, "Templates")
	base := []captureservice.Option{
		captureservice.WithJournal(db),
		captureservice.WithTemplates(reg),
		captureservice.WithClock(func() time.Time { return Now }),
	}
	return &Env{
		Dir:       dir,
		Files:     files,
		Journal:   db,
		Templates: reg,
		Service:   captureservice.New(files, append(base, opts...)...),
	}
}
