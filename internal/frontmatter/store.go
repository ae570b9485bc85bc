package frontmatter

import (
	"fmt"

	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/vars"
)

// Store reads and rewrites the front matter of vault files.
type Store struct {
	files storage.Provider
}

// NewStore returns a Store backed by files.
func NewStore(files storage.Provider) *Store {
	return &Store{files: files}
}

// Read returns the decoded front matter of the file at path, or nil when
// the file has none.
func (s *Store) Read(path string) (map[string]any, error) {
	data, err := s.files.Read(path)
	if err != nil {
		return nil, err
	}
	fm, _ := Parse(string(data))
	return fm, nil
}

// Apply overwrites props in the front matter of the file at path.
func (s *Store) Apply(path string, props []vars.Property) error {
	if len(props) == 0 {
		return nil
	}
	data, err := s.files.Read(path)
	if err != nil {
		return err
	}
	out, err := Apply(string(data), props)
	if err != nil {
		return fmt.Errorf("frontmatter: apply %s: %w", path, err)
	}
	return s.files.Write(path, []byte(out))
}
