package example

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/crustcfg/internal/config/notify"
	"github.com/dshills/crustcfg/internal/document"
)

// countingStore records how often each name is looked up.
type countingStore struct {
	MapStore
	calls map[string]int
}

func newCountingStore(m MapStore) *countingStore {
	return &countingStore{MapStore: m, calls: make(map[string]int)}
}

func (s *countingStore) Lookup(ctx context.Context, name string) (string, bool) {
	s.calls[name]++
	return s.MapStore.Lookup(ctx, name)
}

func TestMapStore_Lookup(t *testing.T) {
	store := MapStore{
		"sp_arith":  "  a + b  \n",
		"blank":     " \n\t ",
		"multiline": "x = 1;\n\ny = 2;\n",
	}

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"sp_arith", "a + b", true},
		{"blank", "", false},
		{"missing", "", false},
		{"multiline", "x = 1;\n\ny = 2;", true},
	}

	for _, tt := range tests {
		got, ok := store.Lookup(context.Background(), tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Lookup(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDirStore_Lookup(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("indent_with_tabs.txt", "\n\tint x;\n")
	write("empty_one.txt", "   \n")

	store := NewDirStore("file://" + dir)

	ctx := context.Background()
	if got, ok := store.Lookup(ctx, "indent_with_tabs"); !ok || got != "int x;" {
		t.Errorf("Lookup(indent_with_tabs) = %q, %v, want %q, true", got, ok, "int x;")
	}
	if _, ok := store.Lookup(ctx, "empty_one"); ok {
		t.Error("blank resource should be absent")
	}
	if _, ok := store.Lookup(ctx, "missing"); ok {
		t.Error("missing resource should be absent")
	}
	if _, ok := store.Lookup(ctx, "../escape"); ok {
		t.Error("names with separators should be absent")
	}
}

func TestDirStore_Extension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sp_arith.c"), []byte("a+b"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewDirStore("file://"+dir, WithExtension(".c"))
	if got, ok := store.Lookup(context.Background(), "sp_arith"); !ok || got != "a+b" {
		t.Errorf("Lookup() = %q, %v, want a+b, true", got, ok)
	}
}

func TestCachedStore(t *testing.T) {
	backing := newCountingStore(MapStore{"a": "example a"})
	store, err := NewCachedStore(backing, 8)
	if err != nil {
		t.Fatalf("NewCachedStore failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if got, ok := store.Lookup(ctx, "a"); !ok || got != "example a" {
			t.Fatalf("Lookup(a) = %q, %v", got, ok)
		}
		if _, ok := store.Lookup(ctx, "b"); ok {
			t.Fatal("Lookup(b) should be absent")
		}
	}

	if backing.calls["a"] != 1 || backing.calls["b"] != 1 {
		t.Errorf("backing calls = %v, want one per name", backing.calls)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}

	store.Purge()
	store.Lookup(ctx, "a")
	if backing.calls["a"] != 2 {
		t.Errorf("after Purge backing calls[a] = %d, want 2", backing.calls["a"])
	}
}

func TestLoader_Load(t *testing.T) {
	doc := document.Parse("# c\na = 1\n\nb = 2\nnot a value\n")
	loader := NewLoader(MapStore{"a": " snippet "}, nil)

	if n := loader.Load(context.Background(), doc); n != 1 {
		t.Errorf("Load() = %d, want 1", n)
	}

	a, _ := doc.Lookup("a")
	b, _ := doc.Lookup("b")
	if a.ExampleText() != "snippet" {
		t.Errorf("a.Example = %q, want snippet", a.ExampleText())
	}
	if b.Example != nil {
		t.Errorf("b.Example = %q, want nil", *b.Example)
	}
}

func TestLoader_Reload(t *testing.T) {
	doc := document.Parse("a = 1\nb = 2\nc = 3\n")
	store := MapStore{"a": "old a", "b": "same b"}
	cachedStore, err := NewCachedStore(store, 0)
	if err != nil {
		t.Fatal(err)
	}

	n := notify.New()
	defer n.Close()
	var changes []notify.Change
	n.Subscribe(func(c notify.Change) {
		changes = append(changes, c)
	})

	loader := NewLoader(cachedStore, n)
	ctx := context.Background()
	loader.Load(ctx, doc)

	// Resources change behind the cache.
	delete(store, "a")
	store["c"] = "new c"

	if found := loader.Reload(ctx, doc); found != 2 {
		t.Errorf("Reload() = %d, want 2", found)
	}

	a, _ := doc.Lookup("a")
	c, _ := doc.Lookup("c")
	if a.Example != nil {
		t.Errorf("a.Example = %q, want nil after reload", *a.Example)
	}
	if c.ExampleText() != "new c" {
		t.Errorf("c.Example = %q, want new c", c.ExampleText())
	}

	if len(changes) != 3 {
		t.Fatalf("received %d changes, want 3: %+v", len(changes), changes)
	}
	if changes[0].Name != "a" || changes[0].Type != notify.ChangeExample || changes[0].New != "" {
		t.Errorf("changes[0] = %+v", changes[0])
	}
	if changes[1].Name != "c" || changes[1].New != "new c" {
		t.Errorf("changes[1] = %+v", changes[1])
	}
	if changes[2].Type != notify.ChangeReload {
		t.Errorf("changes[2] = %+v, want reload", changes[2])
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	doc := document.Parse("a = 1\nb = 2\nc = 3\n")
	store := MapStore{"a": "a", "b": "b", "c": "c"}
	loader := NewLoader(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if n := loader.Load(ctx, doc); n != 3 {
		t.Errorf("Load() with cancelled ctx = %d, want 3", n)
	}

	store["a"] = "new a"
	delete(store, "b")
	store["c"] = "new c"

	if n := loader.Reload(ctx, doc); n != 2 {
		t.Errorf("Reload() with cancelled ctx = %d, want 2", n)
	}
	want := map[string]string{"a": "new a", "b": "", "c": "new c"}
	for _, v := range doc.Values() {
		if v.ExampleText() != want[v.Name] {
			t.Errorf("%s.Example = %q, want %q", v.Name, v.ExampleText(), want[v.Name])
		}
	}
}
