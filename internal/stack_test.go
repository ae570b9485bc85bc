package internal

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/starford/scribe/internal/captureservice"
)

func TestOpen_WiresMacros(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "scribe.db")
	cfg.Macros.Commands = map[string]string{"tags": `echo ["a","b"]`}

	stack, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stack.Close()

	res, err := stack.Service.Format(context.Background(), captureservice.FormatRequest{
		Format: "---\ntags: {{MACRO:tags}}\n---\n",
	}, nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if res.Text != "---\ntags: a, b\n---\n" {
		t.Errorf("text = %q", res.Text)
	}
	tags, ok := res.Properties["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != "b" {
		t.Errorf("properties = %#v", res.Properties)
	}
}

func TestOpen_RejectsBlankMacro(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.SQLite.Path = filepath.Join(dir, "scribe.db")
	cfg.Macros.Commands = map[string]string{"x": "   "}

	if _, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("blank macro command should fail")
	}
}
