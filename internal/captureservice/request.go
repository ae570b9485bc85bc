package captureservice

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/capture"
	"github.com/starford/scribe/internal/models"
)

// DefaultFormat is used when a request names neither a template nor a
// format.
const DefaultFormat = "{{VALUE}}"

// Request describes one capture.
type Request struct {
	// Path is the target file. It may contain placeholders, e.g.
	// "daily/{{DATE}}.md". ".md" is appended when missing.
	Path string `json:"path"`
	// Template names a template in the templates folder. Format is used
	// when it is empty.
	Template string `json:"template,omitempty"`
	Format   string `json:"format,omitempty"`
	// Value answers {{VALUE}} without prompting.
	Value *string `json:"value,omitempty"`
	// Variables preset named values. A value may be a string, number,
	// bool, null or list; non-string values in a front matter key-value
	// position are written to the note as typed properties.
	Variables map[string]any `json:"variables,omitempty"`

	Mode        string `json:"mode,omitempty"`
	InsertAfter string `json:"insert_after,omitempty"`

	InsertAtEndOfSection *bool `json:"insert_at_end_of_section,omitempty"`
	CreateIfNotFound     *bool `json:"create_if_not_found,omitempty"`
	CreateAtTop          *bool `json:"create_at_top,omitempty"`

	// MustExist fails the capture instead of creating a missing file.
	MustExist bool `json:"must_exist,omitempty"`
	// DryRun computes the result without writing anything.
	DryRun bool `json:"dry_run,omitempty"`
}

// Validate checks the request after defaults have been filled in.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Mode, validation.Required,
			validation.In(models.ModeAppend, models.ModePrepend, models.ModeInsertAfter)),
		validation.Field(&r.InsertAfter,
			validation.When(r.Mode == models.ModeInsertAfter, validation.Required)),
	)
}

func (r *Request) withDefaults(o Options) {
	if r.Path == "" {
		r.Path = o.DefaultPath
	}
	if r.Mode == "" {
		r.Mode = models.ModeAppend
		if r.InsertAfter != "" {
			r.Mode = models.ModeInsertAfter
		}
	}
	if r.Template == "" && r.Format == "" {
		r.Format = DefaultFormat
	}
}

func (r Request) insertOptions(o Options) capture.InsertOptions {
	return capture.InsertOptions{
		InsertAtEndOfSection: pick(r.InsertAtEndOfSection, o.InsertAtEndOfSection),
		CreateIfNotFound:     pick(r.CreateIfNotFound, o.CreateIfNotFound),
		CreateAtTop:          pick(r.CreateAtTop, o.CreateAtTop),
	}
}

func pick(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}

// FormatRequest describes a format-only run.
type FormatRequest struct {
	Template  string         `json:"template,omitempty"`
	Format    string         `json:"format,omitempty"`
	Value     *string        `json:"value,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
	Title     string         `json:"title,omitempty"`
}

// Validate requires a template or a format.
func (r FormatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Format, validation.When(r.Template == "", validation.Required)),
	)
}
