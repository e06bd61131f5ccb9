package example

import (
	"context"

	"github.com/dshills/crustcfg/internal/config/notify"
	"github.com/dshills/crustcfg/internal/document"
)

// Purger is implemented by stores holding cached results.
type Purger interface {
	Purge()
}

// Loader fills value entries with examples from a Store.
type Loader struct {
	store    Store
	notifier *notify.Notifier
}

// NewLoader creates a loader. notifier may be nil.
func NewLoader(store Store, notifier *notify.Notifier) *Loader {
	return &Loader{store: store, notifier: notifier}
}

// Store returns the underlying store.
func (l *Loader) Store() Store {
	return l.store
}

// Load looks up the example of every value in doc. It returns the number
// of values that have one.
//
// ctx is handed to the store. The pass itself always visits every value,
// so a cancelled context never leaves a document half loaded; a store that
// gives up on a cancelled context yields no example for the rest.
func (l *Loader) Load(ctx context.Context, doc *document.Document) int {
	found := 0
	for _, v := range doc.Values() {
		v.Example = l.lookup(ctx, v.Name)
		if v.Example != nil {
			found++
		}
	}
	return found
}

// Reload repeats the lookup for every value, overwriting earlier results,
// including with nil. Cached results are purged first. Observers receive a
// ChangeExample event per value whose example changed, then ChangeReload.
// Like Load, it visits every value regardless of ctx.
func (l *Loader) Reload(ctx context.Context, doc *document.Document) int {
	if p, ok := l.store.(Purger); ok {
		p.Purge()
	}

	var batch *notify.Batch
	if l.notifier != nil {
		batch = l.notifier.NewBatch()
	}

	found := 0
	for _, v := range doc.Values() {
		old := v.ExampleText()
		v.Example = l.lookup(ctx, v.Name)
		if v.Example != nil {
			found++
		}
		if batch != nil && old != v.ExampleText() {
			batch.Add(notify.Change{
				Name:   v.Name,
				Type:   notify.ChangeExample,
				Entry:  v,
				Old:    old,
				New:    v.ExampleText(),
				Source: "examples",
			})
		}
	}

	if batch != nil {
		batch.Add(notify.Change{Type: notify.ChangeReload, Source: "examples"})
		batch.Commit()
	}
	return found
}

func (l *Loader) lookup(ctx context.Context, name string) *string {
	text, ok := l.store.Lookup(ctx, name)
	if !ok {
		return nil
	}
	return &text
}
