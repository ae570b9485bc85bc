package captureservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/capture"
	"github.com/starford/scribe/internal/formatter"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/vars"
)

// ErrNoTemplates is returned when a request names a template but the
// service has no template loader.
var ErrNoTemplates = errors.New("captureservice: no template folder configured")

// Result describes a finished capture.
type Result struct {
	Path     string           `json:"path"`
	Created  bool             `json:"created"`
	Inserted string           `json:"inserted"`
	Range    capture.Range    `json:"range"`
	Cursor   capture.Position `json:"cursor"`
	// Exact is false when a post-processor rewrote the file and the
	// capture could only be located approximately.
	Exact      bool                 `json:"exact"`
	Properties map[string]any       `json:"properties,omitempty"`
	Variables  map[string]any       `json:"variables,omitempty"`
	DryRun     bool                 `json:"dry_run,omitempty"`
	Diff       []DiffLine           `json:"diff,omitempty"`
	Entry      *models.CaptureEntry `json:"entry,omitempty"`
	Content    string               `json:"-"`
}

// FormatResult is the output of a format-only run.
type FormatResult struct {
	Text       string         `json:"text"`
	Variables  map[string]any `json:"variables"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Format expands a template or an inline format without touching any file.
func (s *Service) Format(ctx context.Context, req FormatRequest, p formatter.Prompter) (*FormatResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("captureservice: %w: %w", apperr.ErrInvalid, err)
	}
	pass := s.newPass(p, deref(req.Value), req.Value != nil, req.Variables)
	pass.SetTitle(req.Title)
	text, err := s.expand(ctx, pass, req.Template, req.Format)
	if err != nil {
		return nil, err
	}
	return &FormatResult{
		Text:       text,
		Variables:  pass.Memo().Snapshot(),
		Properties: propertyMap(pass.Properties()),
	}, nil
}

// Capture formats the request's template and merges it into the target
// file. Prompts for unknown variables go to p.
func (s *Service) Capture(ctx context.Context, req Request, p formatter.Prompter) (*Result, error) {
	req.withDefaults(s.opts)
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("captureservice: %w: %w", apperr.ErrInvalid, err)
	}

	pass := s.newPass(p, deref(req.Value), req.Value != nil, req.Variables)
	target, err := s.targetPath(ctx, pass, req.Path)
	if err != nil {
		return nil, err
	}
	pass.SetTitle(strings.TrimSuffix(path.Base(target), ".md"))

	content, err := s.expand(ctx, pass, req.Template, req.Format)
	if err != nil {
		return nil, err
	}
	props := pass.Properties()

	unlock := s.lock(target)
	defer unlock()

	previous, created, err := s.readTarget(target, req.MustExist)
	if err != nil {
		return nil, err
	}

	opts := req.insertOptions(s.opts)
	if created {
		opts.CreateIfNotFound = true
	}
	next, err := merge(req.Mode, req.InsertAfter, content, previous, opts)
	if err != nil {
		return nil, fmt.Errorf("captureservice: %s: %w", target, err)
	}

	tracker := capture.NewTracker(previous)
	rec, err := tracker.OwnEdit(next)
	if err != nil {
		return nil, fmt.Errorf("captureservice: %s: %w", target, err)
	}

	res := &Result{
		Path:       target,
		Created:    created,
		Exact:      true,
		Properties: propertyMap(props),
		Variables:  pass.Memo().Snapshot(),
		DryRun:     req.DryRun,
	}

	var final string
	if req.DryRun {
		final, err = frontmatter.Apply(next, props)
		if err != nil {
			return nil, fmt.Errorf("captureservice: %s: %w", target, err)
		}
		res.Diff = LineDiff(previous, final)
	} else {
		final, err = s.write(ctx, target, next, props)
		if err != nil {
			return nil, err
		}
	}

	if final != next {
		rec, res.Exact, err = tracker.ExternalEdit(final)
		if err != nil {
			return nil, fmt.Errorf("captureservice: %s: %w", target, err)
		}
		if !res.Exact {
			s.logger.Warn("captureservice: capture located approximately", slog.String("path", target))
		}
	}
	res.Range, res.Cursor, res.Content = rec.Range, rec.Cursor, final
	res.Inserted = slice(final, rec.Range)

	if req.DryRun {
		return res, nil
	}
	s.finish(ctx, req, res, previous)
	return res, nil
}

// targetPath formats the request path and normalizes it to a .md file.
func (s *Service) targetPath(ctx context.Context, pass *formatter.Pass, raw string) (string, error) {
	p, err := pass.Format(ctx, raw)
	if err != nil {
		return "", err
	}
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return "", fmt.Errorf("captureservice: %w: empty path", apperr.ErrInvalid)
	}
	if !strings.HasSuffix(strings.ToLower(p), ".md") {
		p += ".md"
	}
	return p, nil
}

func (s *Service) expand(ctx context.Context, pass *formatter.Pass, template, format string) (string, error) {
	src := format
	if template != "" {
		if s.templates == nil {
			return "", ErrNoTemplates
		}
		var err error
		src, err = s.templates.Load(ctx, template)
		if err != nil {
			return "", fmt.Errorf("captureservice: template %q: %w", template, err)
		}
	}
	text, err := pass.Format(ctx, src)
	if err != nil {
		return "", err
	}
	if s.opts.UnescapeLineBreaks {
		text = formatter.UnescapeLineBreaks(text)
	}
	return text, nil
}

func (s *Service) readTarget(target string, mustExist bool) (string, bool, error) {
	data, err := s.files.Read(target)
	switch {
	case err == nil:
		return string(data), false, nil
	case errors.Is(err, apperr.ErrNotFound) && !mustExist:
		return "", true, nil
	default:
		return "", false, fmt.Errorf("captureservice: read %s: %w", target, err)
	}
}

func merge(mode, after, content, previous string, opts capture.InsertOptions) (string, error) {
	switch mode {
	case models.ModePrepend:
		return capture.Prepend(previous, content), nil
	case models.ModeInsertAfter:
		return capture.InsertAfter(after, content, previous, opts)
	default:
		return capture.Append(previous, content), nil
	}
}

// write stores next, applies the collected front matter and runs the
// post-processor. It returns the text that ended up on disk.
func (s *Service) write(ctx context.Context, target, next string, props []vars.Property) (string, error) {
	if err := s.files.Write(target, []byte(next)); err != nil {
		return "", fmt.Errorf("captureservice: write %s: %w", target, err)
	}
	written := next
	if len(props) > 0 {
		if err := s.fm.Apply(target, props); err != nil {
			return "", fmt.Errorf("captureservice: properties %s: %w", target, err)
		}
		data, err := s.files.Read(target)
		if err != nil {
			return "", fmt.Errorf("captureservice: read %s: %w", target, err)
		}
		written = string(data)
	}

	final, err := s.post.Transform(ctx, target, written)
	if err != nil {
		return "", fmt.Errorf("captureservice: post-process %s: %w", target, err)
	}
	if final != written {
		if err := s.files.Write(target, []byte(final)); err != nil {
			return "", fmt.Errorf("captureservice: write %s: %w", target, err)
		}
	}
	return final, nil
}

// finish runs the best-effort side effects of a written capture.
func (s *Service) finish(ctx context.Context, req Request, res *Result, previous string) {
	if s.cursor != nil {
		if err := s.cursor.SetCursor(ctx, res.Path, res.Cursor); err != nil {
			s.logger.Warn("captureservice: set cursor failed",
				slog.String("path", res.Path), slog.String("error", err.Error()))
		}
	}

	if s.journal != nil {
		mode := req.Mode
		if res.Created {
			mode = models.ModeCreate
		}
		entry, err := s.journal.Add(models.CaptureEntry{
			Path:           res.Path,
			Template:       req.Template,
			Mode:           mode,
			Inserted:       res.Inserted,
			Line:           res.Cursor.Line,
			Ch:             res.Cursor.Ch,
			BeforeChecksum: checksumOf(previous, res.Created),
			AfterChecksum:  storage.Checksum([]byte(res.Content)),
		})
		if err != nil {
			s.logger.Warn("captureservice: journal failed",
				slog.String("path", res.Path), slog.String("error", err.Error()))
		} else {
			res.Entry = &entry
		}
	}

	if s.events != nil {
		s.events.PublishCapture(res)
	}
	s.logger.Info("captureservice: captured",
		slog.String("path", res.Path),
		slog.Bool("created", res.Created),
		slog.Int("line", res.Cursor.Line))
}

func checksumOf(text string, created bool) string {
	if created {
		return ""
	}
	return storage.Checksum([]byte(text))
}

func slice(text string, r capture.Range) string {
	runes := []rune(text)
	start := min(max(r.Start, 0), len(runes))
	end := min(max(r.End, start), len(runes))
	return string(runes[start:end])
}

func propertyMap(props []vars.Property) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for _, p := range props {
		out[p.Key] = p.Value.Interface()
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
