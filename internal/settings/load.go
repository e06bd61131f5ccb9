package settings

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/crustcfg/internal/config/loader"
)

// Option configures Load.
type Option func(*options)

type options struct {
	path   string
	reader io.Reader
	fs     loader.FileSystem
	prefix string
	dotenv []string
	env    bool
}

// WithPath sets the settings file. An empty path skips the file layer.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithReader reads the settings file layer from r instead of a path.
func WithReader(r io.Reader) Option {
	return func(o *options) { o.reader = r }
}

// WithFileSystem sets the file system the settings file is read from.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithDotEnv sets the .env files consulted before the real environment.
func WithDotEnv(paths ...string) Option {
	return func(o *options) { o.dotenv = paths }
}

// WithoutEnv disables the .env and environment layers.
func WithoutEnv() Option {
	return func(o *options) { o.env = false }
}

// Load resolves settings from defaults, the settings file and the
// environment. A missing settings file is not an error.
func Load(opts ...Option) (Settings, error) {
	o := options{
		path:   DefaultPath(),
		fs:     loader.DefaultFS(),
		prefix: loader.DefaultEnvPrefix,
		dotenv: []string{".env"},
		env:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := Defaults().Map()
	if err != nil {
		return Settings{}, err
	}

	var file loader.Loader = loader.NewTOMLLoaderWithFS(o.fs, o.path)
	if o.reader != nil {
		file = readerLayer{loader: loader.NewTOMLLoader(""), r: o.reader}
	}

	layers := []loader.Loader{file}
	if o.env {
		env := loader.NewEnvLoader(o.prefix).WithDotEnv(o.dotenv...).WithSchema(base)
		layers = append(layers, env)
	}

	merged := loader.Clone(base)
	for _, l := range layers {
		m, err := l.Load()
		if err != nil {
			return Settings{}, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	s, err := FromMap(merged)
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// readerLayer adapts a ReaderLoader to the Loader interface.
type readerLayer struct {
	loader loader.ReaderLoader
	r      io.Reader
}

func (l readerLayer) Load() (map[string]any, error) {
	return l.loader.LoadFromReader(l.r)
}

// Save writes s to path as TOML, creating parent directories.
func Save(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings file %s: %w", path, err)
	}
	return nil
}
