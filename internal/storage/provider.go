// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/scribe/internal/models"

// Provider reads and writes vault files. Paths are relative to the vault
// root.
type Provider interface {
	// List returns every .md file under dir.
	List(dir string) ([]models.FileInfo, error)
	// Read returns the file content. A missing file yields an error
	// wrapping apperr.ErrNotFound.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file, creating parent directories.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
	Exists(path string) (bool, error)
}
