package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ChangeOp describes what happened to a sequence file.
type ChangeOp int

const (
	ChangeWritten ChangeOp = iota
	ChangeRemoved
)

// String returns the op name.
func (op ChangeOp) String() string {
	if op == ChangeRemoved {
		return "removed"
	}
	return "written"
}

// Change reports an outside modification of a sequence file.
type Change struct {
	Name string
	Op   ChangeOp
}

// Watch observes the sequences directory until ctx is done. Every change to
// a sequence file drops its cached copy, then fn is called if not nil.
func (s *Store) Watch(ctx context.Context, fn func(Change)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return opError("watch", "", fmt.Errorf("failed to create watcher: %w", err))
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return opError("watch", "", err)
	}
	s.logger.Debug("watching %s", s.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			change, ok := convertEvent(ev)
			if !ok {
				continue
			}
			s.forget(change.Name)
			if fn != nil {
				fn(change)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error: %v", err)
		}
	}
}

// convertEvent maps an fsnotify event on a sequence file to a Change.
func convertEvent(ev fsnotify.Event) (Change, bool) {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, Extension) {
		return Change{}, false
	}
	name := strings.TrimSuffix(base, Extension)
	if ValidateName(name) != nil {
		return Change{}, false
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Change{Name: name, Op: ChangeRemoved}, true
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		return Change{Name: name, Op: ChangeWritten}, true
	}
	return Change{}, false
}
