package app

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"

	"github.com/dshills/crustcfg/internal/filter"
)

// State cache file names.
const (
	ConfigCacheFile = "config.cfg"
	CodeCacheFile   = "code.txt"
	StateCacheFile  = "state.yaml"
)

// sessionState is the metadata kept next to the cached document.
type sessionState struct {
	Session string    `yaml:"session"`
	Path    string    `yaml:"path,omitempty"`
	Saved   time.Time `yaml:"saved"`
	Filter  struct {
		Search   string `yaml:"search,omitempty"`
		Tag      string `yaml:"tag,omitempty"`
		Language string `yaml:"language,omitempty"`
		Edited   string `yaml:"edited,omitempty"`
		Sort     bool   `yaml:"sort"`
	} `yaml:"filter"`
}

// CacheDir returns the state cache directory, or "" if state is disabled.
func (s *Session) CacheDir() string {
	return s.cacheDir
}

// SaveState writes the current document, the sample code and the view
// state to the cache directory.
func (s *Session) SaveState(ctx context.Context) error {
	if s.cacheDir == "" {
		return NewOperationError("save state", "", ErrNoCacheDir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return NewOperationError("save state", s.cacheDir, ErrNoDocument)
	}

	var st sessionState
	st.Session = s.id.String()
	st.Path = s.path
	st.Saved = time.Now().UTC()
	state := s.view.State()
	st.Filter.Search = state.SearchText
	st.Filter.Tag = state.Tag
	st.Filter.Language = string(state.Language)
	st.Filter.Edited = state.Edited.String()
	st.Filter.Sort = state.Sort

	meta, err := yaml.Marshal(&st)
	if err != nil {
		return NewOperationError("save state", s.cacheDir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{ConfigCacheFile, s.doc.Bytes()},
		{CodeCacheFile, []byte(s.code)},
		{StateCacheFile, meta},
	}
	for _, f := range files {
		if err := s.upload(ctx, url.Join(s.cacheDir, f.name), f.data); err != nil {
			return NewOperationError("save state", s.cacheDir, err).WithContext(f.name)
		}
	}
	s.logger.Debug("state saved", "dir", s.cacheDir)
	return nil
}

// RestoreState loads the document, sample code and view state saved by
// SaveState. It reports false when no saved document exists. Missing code
// or metadata files are not errors.
func (s *Session) RestoreState(ctx context.Context) (bool, error) {
	if s.cacheDir == "" {
		return false, NewOperationError("restore state", "", ErrNoCacheDir)
	}

	timer := StartTimer()
	doc, err := s.read(ctx, url.Join(s.cacheDir, ConfigCacheFile))
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, NewOperationError("restore state", s.cacheDir, err)
	}

	code, err := s.readOptional(ctx, CodeCacheFile)
	if err != nil {
		return false, NewOperationError("restore state", s.cacheDir, err)
	}
	meta, err := s.readOptional(ctx, StateCacheFile)
	if err != nil {
		return false, NewOperationError("restore state", s.cacheDir, err)
	}

	var st sessionState
	if err := yaml.Unmarshal(meta, &st); err != nil {
		return false, NewOperationError("restore state", s.cacheDir, err).WithContext(StateCacheFile)
	}
	state, err := st.filterState()
	if err != nil {
		return false, NewOperationError("restore state", s.cacheDir, err).WithContext(StateCacheFile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, NewOperationError("restore state", s.cacheDir, ErrClosed)
	}
	s.path = st.Path
	s.code = string(code)
	if meta != nil {
		s.view.SetState(state)
	}
	found := s.replace(ctx, doc, "restore")
	s.metrics.RecordLoad(timer.Elapsed(), len(doc.Values()), found, false)
	s.logger.Info("state restored", "dir", s.cacheDir, "previous_session", st.Session)
	return true, nil
}

func (s *Session) readOptional(ctx context.Context, name string) ([]byte, error) {
	URL := url.Join(s.cacheDir, name)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil || !exists {
		return nil, err
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func (st sessionState) filterState() (filter.State, error) {
	lang, err := filter.ParseLanguage(st.Filter.Language)
	if err != nil {
		return filter.State{}, err
	}
	edited, err := filter.ParseEditedFilter(st.Filter.Edited)
	if err != nil {
		return filter.State{}, err
	}
	return filter.State{
		SearchText: st.Filter.Search,
		Tag:        st.Filter.Tag,
		Language:   lang,
		Edited:     edited,
		Sort:       st.Filter.Sort,
	}, nil
}
