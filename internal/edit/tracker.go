// Package edit changes configuration values while keeping their edited
// marker in sync.
//
// A value is edited when its comments contain document.Sentinel. The
// Tracker is the only code that should set values or the edited flag: it
// updates Value, Edited and Comments together and then notifies observers
// registered on its notifier. Observers run before the call returns.
package edit

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/dshills/crustcfg/internal/config/notify"
	"github.com/dshills/crustcfg/internal/document"
)

// Tracker mutates value entries and reports the changes.
type Tracker struct {
	notifier *notify.Notifier
	source   string
	logger   *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSource sets the Source reported in change events.
func WithSource(source string) Option {
	return func(t *Tracker) {
		t.source = source
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a tracker reporting to notifier. A nil notifier gets a
// private one, so the tracker still works without observers.
func New(notifier *notify.Notifier, opts ...Option) *Tracker {
	if notifier == nil {
		notifier = notify.New()
	}
	t := &Tracker{
		notifier: notifier,
		source:   "user",
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Notifier returns the notifier changes are reported to.
func (t *Tracker) Notifier() *notify.Notifier {
	return t.notifier
}

// SetValue sets the entry's value and marks it edited. A ChangeValue event
// is always emitted, even when the value is unchanged; a ChangeEdited event
// precedes it when the entry was not edited before.
func (t *Tracker) SetValue(entry *document.Value, value string) {
	old := entry.Value
	entry.Value = value

	t.logger.Debug("set value", "name", entry.Name, "old", old, "new", value)

	t.setEdited(entry, true)
	t.notifier.NotifyValue(entry, old, t.source)
}

// SetEdited sets the entry's edited flag. Clearing it removes every
// Sentinel line from the comments; setting it appends one if absent.
// A ChangeEdited event is emitted when the flag changes.
func (t *Tracker) SetEdited(entry *document.Value, edited bool) {
	t.setEdited(entry, edited)
}

// Reset clears the entry's edited flag.
func (t *Tracker) Reset(entry *document.Value) {
	t.setEdited(entry, false)
}

func (t *Tracker) setEdited(entry *document.Value, edited bool) {
	was := entry.Edited
	if edited {
		if !slices.Contains(entry.Comments, document.Sentinel) {
			entry.Comments = append(entry.Comments, document.Sentinel)
		}
	} else {
		entry.Comments = slices.DeleteFunc(entry.Comments, func(c string) bool {
			return c == document.Sentinel
		})
	}
	entry.Edited = edited

	if was == edited {
		return
	}
	t.notifier.Notify(notify.Change{
		Name:   entry.Name,
		Type:   notify.ChangeEdited,
		Entry:  entry,
		Old:    strconv.FormatBool(was),
		New:    strconv.FormatBool(edited),
		Source: t.source,
	})
}
