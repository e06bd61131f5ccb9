package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvPrefix is the prefix of every crustcfg environment variable.
const DefaultEnvPrefix = "CRUSTCFG_"

// EnvLoader loads settings from environment variables.
//
// Variables listed in the mapping go to their mapped path. Any other
// variable carrying the prefix is mapped by convention:
// CRUSTCFG_EXAMPLES_CACHE_SIZE becomes examples.cache_size.
//
// Values are typed after the schema entry at their path: a string setting
// keeps the raw text even when it looks like a number or a boolean. Paths
// the schema does not know are typed by guessing from the text.
type EnvLoader struct {
	prefix   string            // Environment variable prefix (e.g., "CRUSTCFG_")
	mapping  map[string]string // Env var -> settings path
	schema   map[string]any    // Typed template, e.g. the defaults map
	dotenv   []string          // .env files consulted after the real environment
	lookup   func(string) (string, bool)
	environ  func() []string
	readFile func(...string) (map[string]string, error)
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "CRUSTCFG_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithMapping(prefix, defaultEnvMapping())
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:   prefix,
		mapping:  mapping,
		lookup:   os.LookupEnv,
		environ:  os.Environ,
		readFile: godotenv.Read,
	}
}

// defaultEnvMapping returns the default environment variable mappings.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"CRUSTCFG_SORT":         "view.sort",
		"CRUSTCFG_LANGUAGE":     "view.language",
		"CRUSTCFG_EXAMPLES_DIR": "examples.dir",
		"CRUSTCFG_CACHE_DIR":    "paths.cache_dir",
		"CRUSTCFG_LOG_LEVEL":    "logging.level",
		"CRUSTCFG_LOG_FORMAT":   "logging.format",
		"CRUSTCFG_THEME":        "ui.theme",
	}
}

// WithDotEnv adds .env files to consult. Variables already present in the
// real environment always win over .env values. Missing files are skipped.
func (l *EnvLoader) WithDotEnv(paths ...string) *EnvLoader {
	l.dotenv = append(l.dotenv, paths...)
	return l
}

// WithSchema sets the typed template used to convert values. The template
// is usually the defaults map, whose leaves are string, bool, int64 or
// float64.
func (l *EnvLoader) WithSchema(schema map[string]any) *EnvLoader {
	l.schema = schema
	return l
}

// Load reads environment variables and returns a settings map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	vars, err := l.variables()
	if err != nil {
		return nil, err
	}

	settings := make(map[string]any)

	// First, load explicitly mapped variables
	for env, path := range l.mapping {
		if val, ok := vars[env]; ok {
			v, err := l.convert(env, path, val)
			if err != nil {
				return nil, err
			}
			setByPath(settings, path, v)
		}
	}

	// Then, scan for additional prefixed variables not in mapping
	for name, value := range vars {
		if !strings.HasPrefix(name, l.prefix) || name == l.prefix {
			continue
		}
		if _, ok := l.mapping[name]; ok {
			continue
		}
		path := l.envToPath(name)
		v, err := l.convert(name, path, value)
		if err != nil {
			return nil, err
		}
		setByPath(settings, path, v)
	}

	return settings, nil
}

// variables collects the prefixed variables from .env files and the real
// environment, the latter taking precedence.
func (l *EnvLoader) variables() (map[string]string, error) {
	vars := make(map[string]string)

	for _, path := range l.dotenv {
		values, err := l.readFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
		}
		for k, v := range values {
			if strings.HasPrefix(k, l.prefix) {
				vars[k] = v
			}
		}
	}

	for _, kv := range l.environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if val, ok := l.lookup(name); ok {
			vars[name] = val
		}
	}

	return vars, nil
}

// envToPath converts CRUSTCFG_EXAMPLES_CACHE_SIZE to examples.cache_size.
// The first word is the section; the rest is the snake_case setting name.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, setting, ok := strings.Cut(name, "_")
	if !ok || setting == "" {
		return section
	}
	return section + "." + setting
}

// convert types raw after the schema entry at path.
func (l *EnvLoader) convert(env, path, raw string) (any, error) {
	tmpl, ok := getByPath(l.schema, path)
	if !ok {
		return parseValue(raw), nil
	}

	var (
		v   any
		err error
	)
	switch tmpl.(type) {
	case bool:
		v, err = strconv.ParseBool(strings.TrimSpace(raw))
	case int64:
		v, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case float64:
		v, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, &ParseError{
			Path:    env,
			Message: fmt.Sprintf("%s: %q is not a %T", path, raw, tmpl),
			Err:     err,
		}
	}
	return v, nil
}

// parseValue attempts to parse the string value into an appropriate type.
// Only the words true/false become booleans: "1" and "0" stay integers so
// numeric settings such as cache sizes are not misread.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	// Navigate/create intermediate maps
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

// getByPath retrieves a value from a nested map using a dot-separated path.
func getByPath(data map[string]any, path string) (any, bool) {
	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
