package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("CRUSTCFG_SORT", "true")
	t.Setenv("CRUSTCFG_THEME", "light")
	t.Setenv("CRUSTCFG_LOG_LEVEL", "debug")
	t.Setenv("CRUSTCFG_EXAMPLES_DIR", "/tmp/examples")

	loader := NewEnvLoader(DefaultEnvPrefix)
	settings, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(settings, "logging.level"); !ok || val != "debug" {
		t.Errorf("logging.level = %v, want 'debug'", val)
	}
	if val, ok := getByPath(settings, "ui.theme"); !ok || val != "light" {
		t.Errorf("ui.theme = %v, want 'light'", val)
	}
	if val, ok := getByPath(settings, "view.sort"); !ok || val != true {
		t.Errorf("view.sort = %v (%T), want true", val, val)
	}
	if val, ok := getByPath(settings, "examples.dir"); !ok || val != "/tmp/examples" {
		t.Errorf("examples.dir = %v, want '/tmp/examples'", val)
	}
}

func TestEnvLoader_LoadUnmapped(t *testing.T) {
	t.Setenv("CRUSTCFG_EXAMPLES_CACHE_SIZE", "16")
	t.Setenv("CRUSTCFG_PARSER_DROP_TRAILING_COMMENTS", "true")

	loader := NewEnvLoader(DefaultEnvPrefix)
	settings, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(settings, "examples.cache_size"); !ok || val != int64(16) {
		t.Errorf("examples.cache_size = %v (%T), want 16", val, val)
	}
	if val, ok := getByPath(settings, "parser.drop_trailing_comments"); !ok || val != true {
		t.Errorf("parser.drop_trailing_comments = %v, want true", val)
	}
}

func TestEnvLoader_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "CRUSTCFG_THEME=solarized\nCRUSTCFG_LANGUAGE=oc\nOTHER_VAR=ignored\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRUSTCFG_THEME", "dark")

	loader := NewEnvLoader(DefaultEnvPrefix).WithDotEnv(path, filepath.Join(dir, "missing.env"))
	settings, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, _ := getByPath(settings, "ui.theme"); val != "dark" {
		t.Errorf("ui.theme = %v, want 'dark' (real env wins)", val)
	}
	if val, _ := getByPath(settings, "view.language"); val != "oc" {
		t.Errorf("view.language = %v, want 'oc' (from .env)", val)
	}
	if _, ok := settings["other"]; ok {
		t.Error("unprefixed .env variable should be ignored")
	}
}

func TestEnvLoader_DotEnvReadError(t *testing.T) {
	loader := NewEnvLoader(DefaultEnvPrefix).WithDotEnv("broken.env")
	loader.readFile = func(...string) (map[string]string, error) {
		return nil, errors.New("unterminated quote")
	}

	_, err := loader.Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if perr.Path != "broken.env" {
		t.Errorf("Path = %q, want 'broken.env'", perr.Path)
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		env  string
		want string
	}{
		{"CRUSTCFG_VIEW_SORT", "view.sort"},
		{"CRUSTCFG_EXAMPLES_CACHE_SIZE", "examples.cache_size"},
		{"CRUSTCFG_RENDER_INCLUDE_SENTINEL", "render.include_sentinel"},
		{"CRUSTCFG_SECTION", "section"},
	}

	for _, tt := range tests {
		if got := loader.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"", ""},
		{"true", true},
		{"TRUE", true},
		{"false", false},
		{"1", int64(1)},
		{"0", int64(0)},
		{"1024", int64(1024)},
		{"-5", int64(-5)},
		{"yes", "yes"},
		{"cpp", "cpp"},
		{"/tmp/x", "/tmp/x"},
	}

	for _, tt := range tests {
		if got := parseValue(tt.input); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
		}
	}
}

func TestEnvLoader_Schema(t *testing.T) {
	schema := map[string]any{
		"view":     map[string]any{"sort": false, "language": ""},
		"examples": map[string]any{"dir": "", "cache_size": int64(128)},
		"ui":       map[string]any{"theme": "dark"},
	}

	t.Setenv("CRUSTCFG_EXAMPLES_DIR", "2024")
	t.Setenv("CRUSTCFG_THEME", "true")
	t.Setenv("CRUSTCFG_SORT", "1")
	t.Setenv("CRUSTCFG_EXAMPLES_CACHE_SIZE", " 16 ")
	t.Setenv("CRUSTCFG_RENDER_INCLUDE_SENTINEL", "true")

	settings, err := NewEnvLoader(DefaultEnvPrefix).WithSchema(schema).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		path string
		want any
	}{
		{"examples.dir", "2024"},
		{"ui.theme", "true"},
		{"view.sort", true},
		{"examples.cache_size", int64(16)},
		{"render.include_sentinel", true},
	}
	for _, tt := range tests {
		if got, ok := getByPath(settings, tt.path); !ok || got != tt.want {
			t.Errorf("%s = %v (%T), want %v (%T)", tt.path, got, got, tt.want, tt.want)
		}
	}
}

func TestEnvLoader_SchemaMismatch(t *testing.T) {
	schema := map[string]any{"examples": map[string]any{"cache_size": int64(128)}}
	t.Setenv("CRUSTCFG_EXAMPLES_CACHE_SIZE", "lots")

	_, err := NewEnvLoader(DefaultEnvPrefix).WithSchema(schema).Load()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load() error = %v, want *ParseError", err)
	}
	if perr.Path != "CRUSTCFG_EXAMPLES_CACHE_SIZE" {
		t.Errorf("Path = %q, want the variable name", perr.Path)
	}
}

func TestGetByPath(t *testing.T) {
	data := map[string]any{"a": map[string]any{"b": "c"}, "x": "y"}

	if got, ok := getByPath(data, "a.b"); !ok || got != "c" {
		t.Errorf("a.b = %v, %v", got, ok)
	}
	if _, ok := getByPath(data, "x.y"); ok {
		t.Error("x.y should not resolve through a string")
	}
	if _, ok := getByPath(nil, "a"); ok {
		t.Error("lookup in nil map should fail")
	}
}
