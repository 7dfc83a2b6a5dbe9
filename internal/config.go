package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Scan tools.
const (
	ScanToolWalk = "walk"
	ScanToolRg   = "rg"
	ScanToolFd   = "fd"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Notes  NotesConfig       `yaml:"notes"`
	Scan   ScanConfig        `yaml:"scan"`
	Search SearchConfig      `yaml:"search"`
	Serve  ServeConfig       `yaml:"serve"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.Serve.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return nil
}

// NotesConfig describes the notes root and what counts as a note in it.
type NotesConfig struct {
	Path string `yaml:"path"`
	// Extensions lists recognized note extensions, with leading dots.
	Extensions []string `yaml:"extensions"`
	// Junk holds glob patterns for directories and files the index skips:
	// version-control dirs, OS metadata, archive and template folders.
	Junk []string `yaml:"junk"`
	// TypeDirs maps top-level folder names to note types (display only).
	TypeDirs map[string]string `yaml:"type_dirs"`
	// CacheTTLSeconds bounds the staleness of the in-memory note index.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extensions, validation.Required),
		validation.Field(&c.CacheTTLSeconds, validation.Min(1), validation.Max(3600)),
	); err != nil {
		return err
	}
	for _, ext := range c.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("notes: extension %q must start with a dot", ext)
		}
	}
	return nil
}

// CacheTTL returns the index cache TTL as a duration.
func (c *NotesConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// NoteTypes converts the configured folder mapping to domain note types.
func (c *NotesConfig) NoteTypes() map[string]models.NoteType {
	out := make(map[string]models.NoteType, len(c.TypeDirs))
	for dir, t := range c.TypeDirs {
		out[dir] = models.NoteType(t)
	}
	return out
}

// ScanConfig selects how the note index lists files.
//
// Tool controls the directory scanner:
//   - "walk" (default): in-process recursive walk, no external binaries.
//   - "rg" / "fd": shell out to the named lister for large roots. The
//     call stays synchronous, and a tool failure falls back to the walk.
//
// UseRgForBacklinks additionally prefilters backlink scans with rg.
type ScanConfig struct {
	Tool              string `yaml:"tool"`
	UseRgForBacklinks bool   `yaml:"use_rg_for_backlinks"`
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	if c.Tool == "" {
		c.Tool = ScanToolWalk
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Tool, validation.Required,
			validation.In(ScanToolWalk, ScanToolRg, ScanToolFd)),
	)
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	SQLite  string `yaml:"sqlite_path"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLite, validation.Required),
	)
}

// ServeConfig holds the HTTP serve-mode configuration.
type ServeConfig struct {
	Port  int        `yaml:"port"`
	Watch bool       `yaml:"watch"`
	Auth  AuthConfig `yaml:"auth"`
}

// Address returns the HTTP listen address.
func (c *ServeConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// AuthConfig holds authentication configuration for serve mode.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication, suitable for local use.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Notes: NotesConfig{
			Path:       "./notes",
			Extensions: []string{".md", ".org", ".txt"},
			Junk: []string{
				".git", ".hg", ".svn",
				".DS_Store", "Thumbs.db",
				".obsidian", ".stfolder",
				"archive", "templates",
			},
			TypeDirs: map[string]string{
				"daily":    string(models.NoteTypeDaily),
				"journal":  string(models.NoteTypeDaily),
				"projects": string(models.NoteTypeProject),
				"people":   string(models.NoteTypePerson),
			},
			CacheTTLSeconds: 120,
		},
		Scan: ScanConfig{
			Tool: ScanToolWalk,
		},
		Search: SearchConfig{
			Enabled: true,
			SQLite:  "./laguz.db",
		},
		Serve: ServeConfig{
			Port: 8080,
			Auth: AuthConfig{Mode: AuthModeDisabled},
		},
	}
}
