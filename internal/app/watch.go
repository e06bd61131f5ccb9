package app

import (
	"context"

	"github.com/viant/afs/url"

	"github.com/dshills/crustcfg/internal/config/watcher"
)

// Watch reloads the document whenever its file changes on disk. Only local
// paths can be watched. The watcher stops when the session is closed.
// onReload, if not nil, is called after every reload attempt with its
// result.
func (s *Session) Watch(ctx context.Context, onReload func(error), opts ...watcher.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewOperationError("watch", s.path, ErrClosed)
	}
	if s.doc == nil || s.path == "" {
		return NewOperationError("watch", s.path, ErrNoFilePath)
	}
	if s.watcher != nil {
		return nil
	}

	opts = append([]watcher.Option{watcher.WithLogger(s.logger.WithComponent("watcher").Slog())}, opts...)
	w := watcher.New(opts...)
	if err := w.Watch(url.Path(s.path)); err != nil {
		return NewOperationError("watch", s.path, NewComponentError("watcher", "watch", err))
	}

	w.OnChange(func(e watcher.Event) {
		if e.Op == watcher.OpRemove || e.Op == watcher.OpRename {
			s.logger.Warn("watched file went away", "path", e.Path, "op", e.Op.String())
			return
		}
		err := s.Reload(ctx)
		if err != nil {
			s.logger.Error("reload failed", "path", e.Path, "error", err)
		}
		if onReload != nil {
			onReload(err)
		}
	})

	if err := w.Start(); err != nil {
		return NewOperationError("watch", s.path, NewComponentError("watcher", "start", err))
	}
	s.watcher = w
	s.logger.Info("watching document", "path", s.path)
	return nil
}
