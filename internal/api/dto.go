package api

import (
	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/models"
)

// CaptureRequest is the request body for a capture. Answers hold the
// replies to prompts and suggesters, keyed by variable name or by the
// suggester's option list.
type CaptureRequest struct {
	captureservice.Request
	Answers map[string]string `json:"answers,omitempty"`
}

// FormatRequest is the request body for a format-only run.
type FormatRequest struct {
	captureservice.FormatRequest
	Answers map[string]string `json:"answers,omitempty"`
}

// CaptureListResponse wraps paginated capture listings.
type CaptureListResponse struct {
	Captures []models.CaptureEntry `json:"captures" validate:"required"`
	Total    int                   `json:"total" example:"42" validate:"required"`
}

// TemplateInfo is a template in a list response (aliased from the domain layer).
type TemplateInfo = models.TemplateInfo

// TemplateListResponse wraps template listings.
type TemplateListResponse struct {
	Templates []TemplateInfo `json:"templates" validate:"required"`
}

// TemplateDetail is the raw text of one template.
type TemplateDetail struct {
	Name    string `json:"name" example:"Task" validate:"required"`
	Path    string `json:"path" example:"Templates/Task.md" validate:"required"`
	Content string `json:"content" example:"- [ ] {{VALUE}}" validate:"required"`
}
