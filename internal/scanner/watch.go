package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Ning0612/Filegraph/internal/domain"
)

// Watch emits records for files that appear under the root after the initial
// scan, until ctx is cancelled. Paths already emitted are never sent again;
// modifications and removals are ignored because records are immutable.
//
// Watches are installed before a catch-up walk, so files created between Scan
// and Watch are still reported.
func (s *Scanner) Watch(ctx context.Context, emit EmitFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := s.addTree(ctx, w, s.root); err != nil {
		return err
	}
	if err := s.catchUp(ctx, s.root, emit); err != nil {
		return err
	}
	s.log.Debug("watching for new files")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if s.hidden(filepath.Base(ev.Name)) {
				continue
			}
			info, err := os.Lstat(ev.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				// a new directory may already hold files by the time the watch is added
				if err := s.addTree(ctx, w, ev.Name); err != nil {
					s.log.Warn("watch directory failed", "path", ev.Name, "error", err)
					continue
				}
				if err := s.catchUp(ctx, ev.Name, emit); err != nil {
					return err
				}
				continue
			}
			if err := s.emitNew(ev.Name, emit); err != nil {
				return err
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", "error", err)
		}
	}
}

// addTree watches dir and every non-hidden directory below it
func (s *Scanner) addTree(ctx context.Context, w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return mapError(err)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && s.hidden(d.Name()) {
			return fs.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (s *Scanner) catchUp(ctx context.Context, dir string, emit EmitFunc) error {
	return s.walk(ctx, dir, func(p string) error {
		return s.emitNew(p, emit)
	})
}

// emitNew stats p and emits it unless it was seen before. Stat failures are skipped.
func (s *Scanner) emitNew(p string, emit EmitFunc) error {
	s.mu.Lock()
	_, dup := s.seen[p]
	s.mu.Unlock()
	if dup {
		return nil
	}

	rec, err := s.stat(p)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Debug("stat failed, skipping", "path", p, "error", err)
		}
		return nil
	}
	if !s.markSeen(rec.Path) {
		return nil
	}
	return emit(rec)
}
