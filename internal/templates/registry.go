// Package templates serves capture templates from a folder of the vault and
// keeps the list current while files change.
package templates

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
)

// Registry lists the templates under one vault folder. It is safe for
// concurrent use.
type Registry struct {
	files storage.Provider
	dir   string

	mu    sync.RWMutex
	items map[string]models.TemplateInfo
}

// NewRegistry returns a registry over dir, relative to the vault root.
// Call Reload to populate it.
func NewRegistry(files storage.Provider, dir string) *Registry {
	return &Registry{
		files: files,
		dir:   strings.Trim(path.Clean("/"+dir), "/"),
		items: make(map[string]models.TemplateInfo),
	}
}

// Dir returns the templates folder relative to the vault root.
func (r *Registry) Dir() string { return r.dir }

// Reload rescans the folder.
func (r *Registry) Reload() error {
	infos, err := r.files.List(r.dir)
	if err != nil {
		return fmt.Errorf("templates: reload: %w", err)
	}
	items := make(map[string]models.TemplateInfo, len(infos))
	for _, fi := range infos {
		name := r.nameOf(fi.Path)
		items[name] = models.TemplateInfo{
			Name:      name,
			Path:      fi.Path,
			Checksum:  fi.Checksum,
			UpdatedAt: fi.UpdatedAt,
		}
	}
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
}

// nameOf turns "templates/daily/todo.md" into "daily/todo".
func (r *Registry) nameOf(p string) string {
	name := strings.TrimSuffix(p, ".md")
	if r.dir != "" {
		name = strings.TrimPrefix(name, r.dir+"/")
	}
	return name
}

// List returns all templates sorted by name.
func (r *Registry) List() []models.TemplateInfo {
	r.mu.RLock()
	out := make([]models.TemplateInfo, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Suggest returns the templates whose names fuzzy-match query, best first.
// An empty query returns every template.
func (r *Registry) Suggest(query string) []models.TemplateInfo {
	all := r.List()
	if strings.TrimSpace(query) == "" {
		return all
	}
	names := make([]string, len(all))
	for i, it := range all {
		names[i] = it.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]models.TemplateInfo, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}

// Resolve maps a template reference to a vault path. References are
// template names ("todo"), names with the .md extension, or vault paths.
func (r *Registry) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	name := strings.TrimSuffix(ref, ".md")
	r.mu.RLock()
	it, ok := r.items[name]
	r.mu.RUnlock()
	if ok {
		return it.Path
	}
	if strings.HasSuffix(ref, ".md") {
		return ref
	}
	if r.dir == "" {
		return ref + ".md"
	}
	return r.dir + "/" + ref + ".md"
}

// Load returns the text of a template. It satisfies formatter.TemplateLoader.
func (r *Registry) Load(_ context.Context, ref string) (string, error) {
	data, err := r.files.Read(r.Resolve(ref))
	if err != nil {
		return "", fmt.Errorf("templates: load %q: %w", ref, err)
	}
	return string(data), nil
}
