// Package notify provides change notification for configuration entries.
//
// The notify package implements an observer pattern that allows components
// to subscribe to edits of configuration values and receive callbacks when
// a value, its edited flag, or its example changes, or when the whole
// document is replaced.
//
// Delivery is synchronous: observers have run by the time Notify returns.
package notify

import (
	"slices"
	"strings"
	"sync"

	"github.com/dshills/crustcfg/internal/document"
)

// ChangeType represents the type of change.
type ChangeType int

const (
	// ChangeValue indicates a value entry's value was set.
	ChangeValue ChangeType = iota

	// ChangeEdited indicates a value entry's edited flag changed.
	ChangeEdited

	// ChangeExample indicates a value entry's example was replaced.
	ChangeExample

	// ChangeReload indicates the entire document was replaced or reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeValue:
		return "value"
	case ChangeEdited:
		return "edited"
	case ChangeExample:
		return "example"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a change event.
type Change struct {
	// Name is the name of the changed value entry.
	// Empty for reload events.
	Name string

	// Type is the type of change.
	Type ChangeType

	// Entry is the mutated entry. Nil for reload events.
	Entry *document.Value

	// Old is the previous value, edited flag ("true"/"false") or example.
	Old string

	// New is the new value, edited flag or example.
	New string

	// Source identifies where the change came from.
	Source string
}

// Observer is called when changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Global observers that receive all changes
	globalObservers map[uint64]Observer

	// Observers keyed by entry name or name prefix
	nameObservers   map[string]map[uint64]Observer
	prefixObservers map[string]map[uint64]Observer

	// Next subscription ID
	nextID uint64

	// Closed flag for idempotent Close
	closed bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{
		globalObservers: make(map[uint64]Observer),
		nameObservers:   make(map[string]map[uint64]Observer),
		prefixObservers: make(map[string]map[uint64]Observer),
	}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeName registers an observer for changes to one entry.
// The observer also receives reload events.
func (n *Notifier) SubscribeName(name string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.add(n.nameObservers, name, observer)
}

// SubscribePrefix registers an observer for every entry whose name starts
// with prefix. Subscribing to "indent_" receives changes to
// "indent_with_tabs". The observer also receives reload events.
func (n *Notifier) SubscribePrefix(prefix string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.add(n.prefixObservers, prefix, observer)
}

func (n *Notifier) add(set map[string]map[uint64]Observer, key string, observer Observer) *Subscription {
	id := n.nextID
	n.nextID++

	if set[key] == nil {
		set[key] = make(map[uint64]Observer)
	}
	set[key][id] = observer

	return &Subscription{id: id, notifier: n}
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	n.deliverChange(change)
}

// NotifyValue is a convenience method for value changes.
func (n *Notifier) NotifyValue(entry *document.Value, oldValue, source string) {
	n.Notify(Change{
		Name:   entry.Name,
		Type:   ChangeValue,
		Entry:  entry,
		Old:    oldValue,
		New:    entry.Value,
		Source: source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(source string) {
	n.Notify(Change{
		Type:   ChangeReload,
		Source: source,
	})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for _, set := range []map[string]map[uint64]Observer{n.nameObservers, n.prefixObservers} {
		for key, observers := range set {
			delete(observers, id)
			if len(observers) == 0 {
				delete(set, key)
			}
		}
	}
}

// deliverChange sends a change to all matching observers in subscription order.
func (n *Notifier) deliverChange(change Change) {
	n.mu.RLock()

	matched := make(map[uint64]Observer)
	for id, obs := range n.globalObservers {
		matched[id] = obs
	}

	if change.Type == ChangeReload {
		// Reload event - notify every keyed observer too
		for _, set := range []map[string]map[uint64]Observer{n.nameObservers, n.prefixObservers} {
			for _, observers := range set {
				for id, obs := range observers {
					matched[id] = obs
				}
			}
		}
	} else {
		for id, obs := range n.nameObservers[change.Name] {
			matched[id] = obs
		}
		for prefix, observers := range n.prefixObservers {
			if strings.HasPrefix(change.Name, prefix) {
				for id, obs := range observers {
					matched[id] = obs
				}
			}
		}
	}

	n.mu.RUnlock()

	ids := make([]uint64, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	// Call observers outside the lock
	for _, id := range ids {
		matched[id](change)
	}
}

// Batch collects multiple changes and delivers them as a group.
type Batch struct {
	notifier *Notifier
	changes  []Change
	mu       sync.Mutex
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{
		notifier: n,
		changes:  make([]Change, 0),
	}
}

// Add adds a change to the batch.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Commit sends all batched changes to observers, in the order added.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = make([]Change, 0)
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}

// Discard clears the batch without sending notifications.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = make([]Change, 0)
}

// Len returns the number of pending changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}
