package filter

import (
	"sync"

	"github.com/dshills/crustcfg/internal/config/notify"
	"github.com/dshills/crustcfg/internal/document"
)

// View is a filtered, optionally sorted view of a document's values that
// is recomputed whenever its inputs change.
type View struct {
	mu     sync.RWMutex
	doc    *document.Document
	state  State
	opts   []Option
	result []*document.Value
	sub    *notify.Subscription
}

// NewView creates a view over doc. doc may be nil.
func NewView(doc *document.Document, state State, opts ...Option) *View {
	v := &View{doc: doc, state: state, opts: opts}
	v.refresh()
	return v
}

// Watch re-evaluates the view on edited-flag changes and reloads reported
// by n. Value changes do not affect the view: names are immutable and the
// edited flag has its own event.
func (v *View) Watch(n *notify.Notifier) {
	v.mu.Lock()
	if v.sub != nil {
		v.sub.Unsubscribe()
	}
	v.sub = n.Subscribe(func(c notify.Change) {
		switch c.Type {
		case notify.ChangeEdited, notify.ChangeReload:
			v.Refresh()
		}
	})
	v.mu.Unlock()
}

// Close stops watching.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sub != nil {
		v.sub.Unsubscribe()
		v.sub = nil
	}
}

// SetState replaces the filter state and recomputes the view.
func (v *View) SetState(state State) {
	v.mu.Lock()
	v.state = state
	v.mu.Unlock()
	v.Refresh()
}

// State returns the current filter state.
func (v *View) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// SetDocument replaces the document and recomputes the view.
func (v *View) SetDocument(doc *document.Document) {
	v.mu.Lock()
	v.doc = doc
	v.mu.Unlock()
	v.Refresh()
}

// Refresh recomputes the view.
func (v *View) Refresh() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.refresh()
}

func (v *View) refresh() {
	if v.doc == nil {
		v.result = nil
		return
	}
	v.result = Apply(v.doc.Values(), v.state, v.opts...)
}

// Values returns the current result. The slice must not be modified.
func (v *View) Values() []*document.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.result
}

// Len returns the number of values in the view.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.result)
}

// Tags returns the tags of every value in the document, sorted.
func (v *View) Tags() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.doc == nil {
		return []string{}
	}
	return Tags(v.doc.Values())
}
