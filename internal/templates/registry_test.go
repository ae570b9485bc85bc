package templates

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/storage"
)

func testRegistry(t *testing.T) (*Registry, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"Templates/todo.md":          "- [ ] {{VALUE:task}}",
		"Templates/meeting/notes.md": "## {{VALUE:topic}}",
		"Templates/daily.md":         "# {{DATE}}",
		"Inbox.md":                   "not a template",
	}
	for p, c := range files {
		if err := fs.Write(p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	reg := NewRegistry(fs, "Templates/")
	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return reg, fs
}

func TestRegistryList(t *testing.T) {
	reg, _ := testRegistry(t)
	items := reg.List()
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	want := []string{"daily", "meeting/notes", "todo"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if items[1].Path != "Templates/meeting/notes.md" || items[1].Checksum == "" {
		t.Errorf("item = %+v", items[1])
	}
}

func TestRegistryLoad(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()
	for _, ref := range []string{"todo", "todo.md", "Templates/todo.md"} {
		got, err := reg.Load(ctx, ref)
		if err != nil {
			t.Fatalf("Load(%q): %v", ref, err)
		}
		if got != "- [ ] {{VALUE:task}}" {
			t.Errorf("Load(%q) = %q", ref, got)
		}
	}
	if got, err := reg.Load(ctx, "Inbox.md"); err != nil || got != "not a template" {
		t.Errorf("vault path load = %q, %v", got, err)
	}
	if _, err := reg.Load(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing template err = %v", err)
	}
}

func TestRegistrySuggest(t *testing.T) {
	reg, _ := testRegistry(t)
	got := reg.Suggest("mtng")
	if len(got) != 1 || got[0].Name != "meeting/notes" {
		t.Errorf("Suggest(mtng) = %+v", got)
	}
	if all := reg.Suggest(" "); len(all) != 3 {
		t.Errorf("empty query returned %d", len(all))
	}
}
