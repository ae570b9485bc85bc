package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/captureservice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Vault       VaultConfig       `yaml:"vault"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Auth        AuthConfig        `yaml:"auth"`
	Capture     CaptureConfig     `yaml:"capture"`
	Postprocess PostprocessConfig `yaml:"postprocess"`
	Macros      MacrosConfig      `yaml:"macros"`
	Properties  PropertiesConfig  `yaml:"properties"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Capture.Validate(); err != nil {
		return err
	}
	if err := c.Postprocess.Validate(); err != nil {
		return err
	}
	if err := c.Macros.Validate(); err != nil {
		return err
	}
	return c.Properties.Validate()
}

// CaptureOptions returns the capture service defaults for this config.
func (c *Config) CaptureOptions() captureservice.Options {
	return captureservice.Options{
		DefaultPath:          c.Capture.DefaultPath,
		InsertAtEndOfSection: c.Capture.InsertAtEndOfSection,
		UnescapeLineBreaks:   c.Capture.UnescapeLineBreaks,
		CreateIfNotFound:     c.Capture.CreateIfNotFound,
		CreateAtTop:          c.Capture.CreateAtTop,
		PropertyTypes:        c.Properties.Types,
		InferStructured:      c.Properties.InferStructured,
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the Markdown vault directory and its templates folder,
// relative to the vault.
type VaultConfig struct {
	Path         string `yaml:"path"`
	TemplatesDir string `yaml:"templates_dir"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.TemplatesDir, validation.Required),
	)
}

// SQLiteConfig holds the capture journal database configuration.
// RetentionDays > 0 prunes older journal entries at startup.
type SQLiteConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.RetentionDays, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// CaptureConfig holds the capture defaults. Requests may override the
// insert options per capture.
type CaptureConfig struct {
	DefaultPath          string `yaml:"default_path"`
	InsertAtEndOfSection bool   `yaml:"insert_at_end_of_section"`
	UnescapeLineBreaks   bool   `yaml:"unescape_line_breaks"`
	CreateIfNotFound     bool   `yaml:"create_if_not_found"`
	CreateAtTop          bool   `yaml:"create_at_top"`
}

// Validate validates the capture configuration.
func (c *CaptureConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultPath, validation.Required),
	)
}

// PostprocessConfig configures the external program that may rewrite a file
// after each capture. An empty Command disables it.
type PostprocessConfig struct {
	Command string        `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the post-processor configuration.
func (c *PostprocessConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// MacrosConfig maps macro names to command lines run for {{MACRO:name}}.
// JSON printed by a command becomes a typed value.
type MacrosConfig struct {
	Commands map[string]string `yaml:"commands"`
	Timeout  time.Duration     `yaml:"timeout"`
}

// Validate validates the macro commands.
func (c *MacrosConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Commands, validation.Each(validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Property types understood by the front matter coercer.
var propertyTypes = []any{"text", "list", "multitext", "tags", "aliases", "number", "checkbox", "date", "datetime"}

// PropertiesConfig declares front matter property types, keyed by property
// name. InferStructured turns comma separated answers into lists.
type PropertiesConfig struct {
	Types           map[string]string `yaml:"types"`
	InferStructured bool              `yaml:"infer_structured"`
}

// Validate validates the declared property types.
func (c *PropertiesConfig) Validate() error {
	return validation.Validate(c.Types,
		validation.Each(validation.In(propertyTypes...)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:         "./vault",
			TemplatesDir: "Templates",
		},
		SQLite: SQLiteConfig{
			Path: "./scribe.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Capture: CaptureConfig{
			DefaultPath:          "Inbox.md",
			InsertAtEndOfSection: true,
		},
		Postprocess: PostprocessConfig{
			Timeout: 10 * time.Second,
		},
		Macros: MacrosConfig{
			Timeout: 10 * time.Second,
		},
	}
}
