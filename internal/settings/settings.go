// Package settings holds the user-level preferences of crustcfg: the view
// defaults, the example directory, parser and render options.
//
// Settings are resolved in layers, each overriding the previous one:
//
//  1. built-in defaults
//  2. the TOML settings file
//  3. .env files (never overriding the real environment)
//  4. CRUSTCFG_* environment variables
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/crustcfg/internal/config/loader"
	"github.com/dshills/crustcfg/internal/document"
	"github.com/dshills/crustcfg/internal/example"
	"github.com/dshills/crustcfg/internal/filter"
)

// ParseError reports a malformed settings source.
type ParseError = loader.ParseError

// ErrInvalid is returned when a resolved setting has an unusable value.
var ErrInvalid = errors.New("invalid setting")

// Settings is the resolved set of preferences.
type Settings struct {
	View     View     `toml:"view"`
	Examples Examples `toml:"examples"`
	Parser   Parser   `toml:"parser"`
	Render   Render   `toml:"render"`
	UI       UI       `toml:"ui"`
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
}

// View holds the initial filter state.
type View struct {
	Sort     bool   `toml:"sort"`
	Language string `toml:"language"`
}

// Examples configures the example store.
type Examples struct {
	Dir       string `toml:"dir"`
	Extension string `toml:"extension"`
	CacheSize int    `toml:"cache_size"`
}

// Parser configures document parsing.
type Parser struct {
	DropTrailingComments bool `toml:"drop_trailing_comments"`
}

// Render configures description rendering.
type Render struct {
	IncludeSentinel bool `toml:"include_sentinel"`
}

// UI holds presentation preferences.
type UI struct {
	Theme string `toml:"theme"`
}

// Paths holds directories used by the session.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
}

// Logging configures the logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Examples: Examples{
			Extension: example.DefaultExtension,
			CacheSize: example.DefaultCacheSize,
		},
		UI:      UI{Theme: "dark"},
		Paths:   Paths{CacheDir: DefaultCacheDir()},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// DefaultPath returns the default settings file location, or "" if the
// user configuration directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "crustcfg", "settings.toml")
}

// DefaultCacheDir returns the default session cache directory.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "crustcfg")
	}
	return filepath.Join(dir, "crustcfg")
}

// Validate checks values that cannot be expressed by the TOML types.
func (s Settings) Validate() error {
	if _, err := filter.ParseLanguage(s.View.Language); err != nil {
		return fmt.Errorf("%w: view.language: %v", ErrInvalid, err)
	}
	if s.Examples.CacheSize < 0 {
		return fmt.Errorf("%w: examples.cache_size must not be negative", ErrInvalid)
	}
	switch strings.ToLower(s.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, s.Logging.Level)
	}
	switch strings.ToLower(s.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, s.Logging.Format)
	}
	return nil
}

// ParseOptions returns the document parse options selected by s.
func (s Settings) ParseOptions() []document.ParseOption {
	var opts []document.ParseOption
	if s.Parser.DropTrailingComments {
		opts = append(opts, document.WithDropTrailingComments())
	}
	return opts
}

// RenderOptions returns the description render options selected by s.
func (s Settings) RenderOptions() []document.RenderOption {
	return []document.RenderOption{document.WithSentinel(s.Render.IncludeSentinel)}
}

// FilterState returns the initial filter state selected by s.
func (s Settings) FilterState() (filter.State, error) {
	lang, err := filter.ParseLanguage(s.View.Language)
	if err != nil {
		return filter.State{}, err
	}
	return filter.State{Language: lang, Sort: s.View.Sort}, nil
}

// Map returns s as a nested map keyed like the settings file.
func (s Settings) Map() (map[string]any, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return m, nil
}

// FromMap decodes a nested settings map on top of the defaults.
func FromMap(m map[string]any) (Settings, error) {
	s := Defaults()
	data, err := toml.Marshal(m)
	if err != nil {
		return s, fmt.Errorf("encoding settings: %w", err)
	}
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s, nil
}
