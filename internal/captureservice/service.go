// Package captureservice runs captures end to end: it formats a template,
// merges the result into a vault file, writes typed front matter, lets an
// optional post-processor rewrite the file and reports where the cursor
// belongs.
package captureservice

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/scribe/internal/capture"
	"github.com/starford/scribe/internal/formatter"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/postprocess"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/vars"
)

// FrontMatterWriter reads and overwrites front matter properties.
type FrontMatterWriter interface {
	Read(path string) (map[string]any, error)
	Apply(path string, props []vars.Property) error
}

var _ FrontMatterWriter = (*frontmatter.Store)(nil)

// CursorSink receives the cursor position after a capture, e.g. an editor.
type CursorSink interface {
	SetCursor(ctx context.Context, path string, pos capture.Position) error
}

// Publisher announces finished captures.
type Publisher interface {
	PublishCapture(data any)
}

// Options are the capture defaults; requests may override some of them.
type Options struct {
	DefaultPath          string
	InsertAtEndOfSection bool
	UnescapeLineBreaks   bool
	CreateIfNotFound     bool
	CreateAtTop          bool
	PropertyTypes        map[string]string
	InferStructured      bool
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		DefaultPath:          "Inbox.md",
		InsertAtEndOfSection: true,
	}
}

// Service coordinates formatting, storage and the capture journal.
type Service struct {
	files     storage.Provider
	fm        FrontMatterWriter
	templates formatter.TemplateLoader
	macros    formatter.MacroRunner
	post      postprocess.Transformer
	journal   journal.Journal
	events    Publisher
	cursor    CursorSink
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	locks sync.Map // path -> *sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

func WithTemplates(l formatter.TemplateLoader) Option { return func(s *Service) { s.templates = l } }
func WithMacros(r formatter.MacroRunner) Option       { return func(s *Service) { s.macros = r } }
func WithFrontMatter(w FrontMatterWriter) Option      { return func(s *Service) { s.fm = w } }
func WithPostProcessor(t postprocess.Transformer) Option {
	return func(s *Service) { s.post = t }
}
func WithJournal(j journal.Journal) Option { return func(s *Service) { s.journal = j } }
func WithPublisher(p Publisher) Option     { return func(s *Service) { s.events = p } }
func WithCursorSink(c CursorSink) Option   { return func(s *Service) { s.cursor = c } }
func WithOptions(o Options) Option         { return func(s *Service) { s.opts = o } }
func WithLogger(l *slog.Logger) Option     { return func(s *Service) { s.logger = l } }
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a service writing to files.
func New(files storage.Provider, opts ...Option) *Service {
	s := &Service{
		files:  files,
		fm:     frontmatter.NewStore(files),
		post:   postprocess.Nop{},
		opts:   DefaultOptions(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Options returns the service defaults.
func (s *Service) Options() Options { return s.opts }

func (s *Service) lock(path string) func() {
	v, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) newPass(p formatter.Prompter, value string, hasValue bool, variables map[string]any) *formatter.Pass {
	opts := []formatter.Option{
		formatter.WithClock(s.now),
		formatter.WithLogger(s.logger),
		formatter.WithPropertyTypes(s.opts.PropertyTypes, s.opts.InferStructured),
	}
	if s.templates != nil {
		opts = append(opts, formatter.WithTemplates(s.templates))
	}
	if s.macros != nil {
		opts = append(opts, formatter.WithMacros(s.macros))
	}
	if len(variables) > 0 {
		seed := make(map[string]vars.Value, len(variables))
		for k, v := range variables {
			seed[k] = vars.FromAny(v)
		}
		opts = append(opts, formatter.WithVariables(seed))
	}
	if hasValue {
		opts = append(opts, formatter.WithValue(value))
	}
	return formatter.NewPass(p, opts...)
}
