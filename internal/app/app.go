// Package app coordinates a crustcfg editing session. A Session owns one
// document at a time and wires the edit tracker, the example loader, the
// filter view and the file watcher around it.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/dshills/crustcfg/internal/config/notify"
	"github.com/dshills/crustcfg/internal/config/watcher"
	"github.com/dshills/crustcfg/internal/document"
	"github.com/dshills/crustcfg/internal/edit"
	"github.com/dshills/crustcfg/internal/example"
	"github.com/dshills/crustcfg/internal/filter"
	"github.com/dshills/crustcfg/internal/settings"
)

// Session is the central coordinator for one configuration document.
//
// Observers registered on the session's notifier run synchronously while
// the session lock is held and must not call back into the session.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	settings settings.Settings
	logger   *Logger
	fs       afs.Service
	metrics  *Metrics

	notifier *notify.Notifier
	tracker  *edit.Tracker
	examples *example.Loader
	view     *filter.View
	watcher  *watcher.Watcher

	doc      *document.Document
	path     string
	code     string
	cacheDir string
	closed   bool
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	settings settings.Settings
	logger   *Logger
	store    example.Store
	fs       afs.Service
	cacheDir *string
}

// WithSettings sets the session settings. Defaults are used otherwise.
func WithSettings(s settings.Settings) Option {
	return func(o *sessionOptions) { o.settings = s }
}

// WithLogger sets the session logger. The application logger from
// GetLogger is used otherwise.
func WithLogger(l *Logger) Option {
	return func(o *sessionOptions) { o.logger = l }
}

// WithStore replaces the example store built from the settings.
func WithStore(store example.Store) Option {
	return func(o *sessionOptions) { o.store = store }
}

// WithFS sets the file system service used for documents and state.
func WithFS(fs afs.Service) Option {
	return func(o *sessionOptions) { o.fs = fs }
}

// WithCacheDir overrides the state cache directory from the settings.
// An empty dir disables state persistence.
func WithCacheDir(dir string) Option {
	return func(o *sessionOptions) { o.cacheDir = &dir }
}

// New creates a session with no document.
func New(opts ...Option) (*Session, error) {
	o := sessionOptions{settings: settings.Defaults()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = GetLogger()
	}
	if o.fs == nil {
		o.fs = afs.New()
	}

	state, err := o.settings.FilterState()
	if err != nil {
		return nil, &InitError{Component: "filter", Err: err}
	}

	cacheDir := o.settings.Paths.CacheDir
	if o.cacheDir != nil {
		cacheDir = *o.cacheDir
	}

	id := uuid.New()
	logger := o.logger.WithFields(map[string]any{
		"session":   id.String(),
		"cache_dir": cacheDir,
	})

	store := o.store
	if store == nil {
		store, err = newStore(o.settings.Examples, o.fs, logger)
		if err != nil {
			return nil, &InitError{Component: "examples", Err: err}
		}
	}

	s := &Session{
		id:       id,
		settings: o.settings,
		logger:   logger,
		fs:       o.fs,
		metrics:  NewMetrics(),
		notifier: notify.New(),
		cacheDir: cacheDir,
	}

	s.tracker = edit.New(s.notifier, edit.WithLogger(logger.WithComponent("edit").Slog()))
	s.examples = example.NewLoader(store, s.notifier)
	s.view = filter.NewView(nil, state, filter.WithRenderOptions(o.settings.RenderOptions()...))
	s.view.Watch(s.notifier)

	return s, nil
}

// newStore builds the example store described by cfg.
func newStore(cfg settings.Examples, fs afs.Service, logger *Logger) (example.Store, error) {
	if cfg.Dir == "" {
		return example.MapStore{}, nil
	}
	dir := example.NewDirStore(cfg.Dir,
		example.WithExtension(cfg.Extension),
		example.WithFS(fs),
		example.WithLogger(logger.WithComponent("examples").Slog()),
	)
	return example.NewCachedStore(dir, cfg.CacheSize)
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Settings returns the settings the session was created with.
func (s *Session) Settings() settings.Settings {
	return s.settings
}

// Metrics returns the session's operation metrics.
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Notifier returns the notifier that reports value, edited, example and
// reload changes.
func (s *Session) Notifier() *notify.Notifier {
	return s.notifier
}

// View returns the filtered view of the current document.
func (s *Session) View() *filter.View {
	return s.view
}

// Document returns the current document, or nil.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Path returns the location the current document was opened from.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Open reads and parses the document at location and makes it current.
// location may be a local path or any URL understood by afs.
func (s *Session) Open(ctx context.Context, location string) error {
	timer := StartTimer()
	doc, err := s.read(ctx, location)
	if err != nil {
		s.metrics.RecordLoadFailed()
		return NewOperationError("open", location, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("open", location, ErrClosed)
	}
	s.path = location
	found := s.replace(ctx, doc, "open")
	s.metrics.RecordLoad(timer.Elapsed(), len(doc.Values()), found, false)
	s.logger.Info("document opened", "path", location, "values", len(doc.Values()))
	return nil
}

func (s *Session) read(ctx context.Context, location string) (*document.Document, error) {
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, &document.NotFoundError{Source: location, Err: err}
	}
	if !exists {
		return nil, &document.NotFoundError{Source: location, Err: fs.ErrNotExist}
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, &document.NotFoundError{Source: location, Err: err}
	}
	return document.Decode(location, data, s.settings.ParseOptions()...)
}

// Replace makes doc the current document. The previous document is
// dropped wholesale; observers receive a reload change.
func (s *Session) Replace(ctx context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("replace", "", ErrClosed)
	}
	s.replace(ctx, doc, "replace")
	return nil
}

func (s *Session) replace(ctx context.Context, doc *document.Document, source string) int {
	found := s.examples.Load(ctx, doc)
	s.logger.Debug("examples loaded", "found", found)
	s.doc = doc
	s.view.SetDocument(doc)
	s.notifier.NotifyReload(source)
	return found
}

// Reload re-reads the current document from its location.
func (s *Session) Reload(ctx context.Context) error {
	path := s.Path()
	if path == "" {
		return NewOperationError("reload", "", ErrNoFilePath)
	}
	timer := StartTimer()
	doc, err := s.read(ctx, path)
	if err != nil {
		s.metrics.RecordLoadFailed()
		return NewOperationError("reload", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("reload", path, ErrClosed)
	}
	found := s.replace(ctx, doc, "reload")
	s.metrics.RecordLoad(timer.Elapsed(), len(doc.Values()), found, true)
	s.logger.Info("document reloaded", "path", path)
	return nil
}

// ReloadExamples repeats the example lookup for every value of the current
// document. It returns the number of values with an example.
func (s *Session) ReloadExamples(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, NewOperationError("reload examples", "", ErrClosed)
	}
	if s.doc == nil {
		return 0, NewOperationError("reload examples", "", ErrNoDocument)
	}
	return s.examples.Reload(ctx, s.doc), nil
}

// Lookup returns the value entry called name.
func (s *Session) Lookup(name string) (*document.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, NewOperationError("lookup", name, ErrClosed)
	}
	v, err := s.lookup(name)
	if err != nil {
		return nil, NewOperationError("lookup", name, err)
	}
	return v, nil
}

func (s *Session) lookup(name string) (*document.Value, error) {
	if s.doc == nil {
		return nil, ErrNoDocument
	}
	v, ok := s.doc.Lookup(name)
	if !ok {
		return nil, ErrUnknownValue
	}
	return v, nil
}

// SetValue changes the value called name through the edit tracker.
// Values that would not survive a serialize and parse cycle are rejected
// with ErrInvalidValue.
func (s *Session) SetValue(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("set", name, ErrClosed)
	}
	v, err := s.lookup(name)
	if err != nil {
		return NewOperationError("set", name, err)
	}
	if err := checkValue(v, value); err != nil {
		return NewOperationError("set", name, err).WithContext(strconv.Quote(value))
	}
	s.tracker.SetValue(v, value)
	s.metrics.RecordValueSet()
	return nil
}

// checkValue reports whether value can be written on v's line and read
// back unchanged. A line break would start new entries; a '#' is only
// safe when a hint follows, since the hint is split off at the last '#'.
func checkValue(v *document.Value, value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: line break", ErrInvalidValue)
	}
	if v.Hint == nil && strings.Contains(value, "#") {
		return fmt.Errorf("%w: '#' in a value without hint", ErrInvalidValue)
	}
	if value != strings.TrimSpace(value) {
		return fmt.Errorf("%w: surrounding whitespace", ErrInvalidValue)
	}
	return nil
}

// SetEdited sets the edited flag of the value called name.
func (s *Session) SetEdited(name string, edited bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("set edited", name, ErrClosed)
	}
	v, err := s.lookup(name)
	if err != nil {
		return NewOperationError("set edited", name, err)
	}
	s.tracker.SetEdited(v, edited)
	s.metrics.RecordFlagSet()
	return nil
}

// Reset clears the edited flag of the value called name. The value itself
// is left alone.
func (s *Session) Reset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("reset", name, ErrClosed)
	}
	v, err := s.lookup(name)
	if err != nil {
		return NewOperationError("reset", name, err)
	}
	s.tracker.Reset(v)
	s.metrics.RecordFlagSet()
	return nil
}

// SetFilter replaces the view's filter state.
func (s *Session) SetFilter(state filter.State) {
	s.view.SetState(state)
}

// Values returns the values selected by the current filter state.
func (s *Session) Values() []*document.Value {
	return s.view.Values()
}

// Code returns the sample source text kept with the session.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// SetCode replaces the sample source text.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// Bytes returns the serialized current document.
func (s *Session) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, NewOperationError("serialize", "", ErrClosed)
	}
	if s.doc == nil {
		return nil, NewOperationError("serialize", "", ErrNoDocument)
	}
	return s.doc.Bytes(), nil
}

// Save serializes the current document to location. An empty location
// saves to the location the document was opened from.
func (s *Session) Save(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if location == "" {
		location = s.path
	}
	if s.closed {
		return NewOperationError("save", location, ErrClosed)
	}
	if s.doc == nil {
		return NewOperationError("save", location, ErrNoDocument)
	}
	if location == "" {
		return NewOperationError("save", "", ErrNoFilePath)
	}
	timer := StartTimer()
	err := s.upload(ctx, location, s.doc.Bytes())
	s.metrics.RecordSave(timer.Elapsed(), err)
	if err != nil {
		return NewOperationError("save", location, err)
	}
	s.logger.Info("document saved", "path", location, "edited", s.doc.EditedCount())
	return nil
}

func (s *Session) upload(ctx context.Context, location string, data []byte) error {
	return s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data))
}

// Close stops the watcher and the notifier. Further document operations
// fail with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	errs := NewErrorList()
	if w != nil {
		if err := w.Stop(); err != nil {
			errs.Add(NewComponentError("watcher", "stop", err))
		}
	}
	s.view.Close()
	s.notifier.Close()
	return errs.AsError()
}

// InitError represents a session initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means a document location does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, document.ErrNotFound)
}
