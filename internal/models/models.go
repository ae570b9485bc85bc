// Package models defines the domain types shared across Scribe's layers.
package models

import "time"

// FileInfo describes one Markdown file in the vault.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Capture modes.
const (
	ModeAppend      = "append"
	ModePrepend     = "prepend"
	ModeInsertAfter = "insert_after"
	ModeCreate      = "create"
)

// CaptureEntry is one journaled capture.
type CaptureEntry struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	Template       string    `json:"template,omitempty"`
	Mode           string    `json:"mode"`
	Inserted       string    `json:"inserted"`
	Line           int       `json:"line"`
	Ch             int       `json:"ch"`
	BeforeChecksum string    `json:"before_checksum"`
	AfterChecksum  string    `json:"after_checksum"`
	CreatedAt      time.Time `json:"created_at"`
}

// TemplateInfo describes a template file in the templates folder.
type TemplateInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
