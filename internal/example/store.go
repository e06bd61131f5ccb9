// Package example looks up usage snippets for configuration values.
//
// A Store maps a value name to an optional plain-text example. Missing or
// blank resources are reported as absent, never as errors. The Loader fills
// the Example field of every value in a document from a Store and can
// reload them on request.
package example

import (
	"context"
	"log/slog"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Store returns the example for a value name.
type Store interface {
	// Lookup returns the trimmed example text for name. ok is false when
	// no resource exists or the resource is blank.
	Lookup(ctx context.Context, name string) (text string, ok bool)
}

// normalize trims text and reports whether anything is left.
func normalize(text string) (string, bool) {
	text = strings.TrimSpace(text)
	return text, text != ""
}

// MapStore is an in-memory Store.
type MapStore map[string]string

// Lookup implements Store.
func (m MapStore) Lookup(_ context.Context, name string) (string, bool) {
	text, ok := m[name]
	if !ok {
		return "", false
	}
	return normalize(text)
}

// DefaultExtension is appended to the value name to form a resource name.
const DefaultExtension = ".txt"

// DirStore reads examples from <location>/<name><ext>.
// location may be a local path or any URL understood by afs.
type DirStore struct {
	fs       afs.Service
	location string
	ext      string
	logger   *slog.Logger
}

// DirOption configures a DirStore.
type DirOption func(*DirStore)

// WithExtension sets the resource file extension (default ".txt").
func WithExtension(ext string) DirOption {
	return func(s *DirStore) {
		s.ext = ext
	}
}

// WithFS sets the afs service used to read resources.
func WithFS(fs afs.Service) DirOption {
	return func(s *DirStore) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLogger sets the logger for read failures.
func WithLogger(logger *slog.Logger) DirOption {
	return func(s *DirStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDirStore creates a store reading from location.
func NewDirStore(location string, opts ...DirOption) *DirStore {
	s := &DirStore{
		fs:       afs.New(),
		location: location,
		ext:      DefaultExtension,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the base location.
func (s *DirStore) Location() string {
	return s.location
}

// URL returns the resource URL for name.
func (s *DirStore) URL(name string) string {
	return url.Join(s.location, name+s.ext)
}

// Lookup implements Store.
func (s *DirStore) Lookup(ctx context.Context, name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}

	URL := s.URL(name)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		s.logger.Debug("example lookup failed", "name", name, "url", URL, "error", err)
		return "", false
	}
	if !exists {
		return "", false
	}

	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		s.logger.Warn("example download failed", "name", name, "url", URL, "error", err)
		return "", false
	}
	return normalize(string(data))
}
