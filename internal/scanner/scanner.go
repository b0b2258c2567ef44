// Package scanner walks a local directory tree and produces one FileRecord per
// regular file. Hidden entries and symlinks are skipped. Stat calls run on a
// bounded worker pool and records are emitted as they complete, so order is
// not deterministic.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/logger"
)

// DefaultWorkers bounds concurrent stat calls
const DefaultWorkers = 8

// EmitFunc receives each record; a non-nil error stops the scan
type EmitFunc func(domain.FileRecord) error

// Result summarizes one walk
type Result struct {
	Files    int
	Bytes    int64
	Skipped  int
	Duration time.Duration
}

// Scanner produces records for one root
type Scanner struct {
	root          string
	workers       int
	includeHidden bool
	log           logger.Logger

	// emitted paths, shared by Scan and Watch so no path is sent twice
	mu   sync.Mutex
	seen map[string]struct{}
}

// Option configures a Scanner
type Option func(*Scanner)

// WithWorkers sets the stat worker count (values below 1 are ignored)
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// WithHidden includes dot-files and dot-directories
func WithHidden(include bool) Option {
	return func(s *Scanner) {
		s.includeHidden = include
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scanner) {
		s.log = l
	}
}

// New creates a scanner for root.
// root must be an existing directory; ~ is not expanded here.
func New(root string, opts ...Option) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, mapError(err)
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	s := &Scanner{
		root:    absRoot,
		workers: DefaultWorkers,
		log:     logger.Get(),
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("root", absRoot)
	return s, nil
}

// Root returns the absolute scan root
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the tree once and calls emit for every regular file.
// emit is never called concurrently.
func (s *Scanner) Scan(ctx context.Context, emit EmitFunc) (Result, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	paths := make(chan string, s.workers*4)
	records := make(chan domain.FileRecord, s.workers*4)

	g.Go(func() error {
		defer close(paths)
		return s.walk(gctx, s.root, func(p string) error {
			select {
			case paths <- p:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var skipped int
	var skippedMu sync.Mutex
	var workers sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for p := range paths {
				rec, err := s.stat(p)
				if err != nil {
					s.log.Debug("stat failed, skipping", "path", p, "error", err)
					skippedMu.Lock()
					skipped++
					skippedMu.Unlock()
					continue
				}
				select {
				case records <- rec:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(records)
	}()

	var res Result
	var emitErr error
	for rec := range records {
		if emitErr != nil {
			continue
		}
		if !s.markSeen(rec.Path) {
			continue
		}
		if err := emit(rec); err != nil {
			emitErr = err
			// stop the walk; records already in flight are drained and dropped
			cancel()
			continue
		}
		res.Files++
		res.Bytes += rec.Size
	}

	err := g.Wait()
	res.Skipped = skipped
	res.Duration = time.Since(start)

	if emitErr != nil {
		return res, emitErr
	}
	if err != nil {
		return res, err
	}
	s.log.Info("scan complete", "files", res.Files, "bytes", res.Bytes, "skipped", res.Skipped, "duration", res.Duration)
	return res, nil
}

// walk calls visit for every non-hidden regular file below dir. Symlinks are never followed.
func (s *Scanner) walk(ctx context.Context, dir string, visit func(string) error) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return mapError(err)
			}
			s.log.Debug("walk error, skipping", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p != dir && s.hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		return visit(p)
	})
}

func (s *Scanner) hidden(name string) bool {
	return !s.includeHidden && strings.HasPrefix(name, ".")
}

// stat builds the record for one file
func (s *Scanner) stat(p string) (domain.FileRecord, error) {
	info, err := os.Lstat(p)
	if err != nil {
		return domain.FileRecord{}, mapError(err)
	}
	if !info.Mode().IsRegular() {
		return domain.FileRecord{}, fmt.Errorf("%s: not a regular file", p)
	}

	parent, err := filepath.Rel(s.root, filepath.Dir(p))
	if err != nil {
		return domain.FileRecord{}, err
	}

	meta := statMeta(info)
	return domain.FileRecord{
		Path:       p,
		Size:       info.Size(),
		ParentDir:  domain.NormalizeDir(filepath.ToSlash(parent)),
		FileType:   domain.FileTypeOf(p),
		SizeOnDisk: meta.sizeOnDisk,
		Created:    domain.NewTimestamp(meta.created),
		Accessed:   domain.NewTimestamp(meta.accessed),
	}, nil
}

// markSeen records path and reports whether it was new
func (s *Scanner) markSeen(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[path]; ok {
		return false
	}
	s.seen[path] = struct{}{}
	return true
}

// fileMeta holds the platform-specific stat fields
type fileMeta struct {
	sizeOnDisk int64
	created    time.Time
	accessed   time.Time
}

// mapError converts OS errors to domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return err
}
