package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ning0612/Filegraph/internal/client"
	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/progress"
)

// Streamer is the part of the stream client the viewer uses. *client.Client satisfies it.
type Streamer interface {
	Folders(ctx context.Context) ([]string, error)
	Stream(ctx context.Context, root string, watch bool, h client.Handler) error
}

var _ client.Handler = (*Session)(nil)

// ViewerConfig holds the settings every new session starts from
type ViewerConfig struct {
	Params             layout.Params
	MinScale, MaxScale float64
	TickInterval       time.Duration
	IdleInterval       time.Duration
	Watch              bool
	Seed               uint64
}

// Viewer owns the current session and switches roots
type Viewer struct {
	mu      sync.Mutex
	streams Streamer
	cfg     ViewerConfig
	log     logger.Logger

	folders []string
	message string // viewer-level status, e.g. folder fetch failure

	session    *Session
	stopStream context.CancelFunc
	streamDone chan struct{}
}

// NewViewer creates a viewer without a session
func NewViewer(streams Streamer, cfg ViewerConfig, log logger.Logger) *Viewer {
	if log == nil {
		log = logger.Get()
	}
	return &Viewer{
		streams: streams,
		cfg:     cfg,
		log:     log.With("component", "viewer"),
	}
}

// LoadFolders fetches the folder list. On failure the status line shows the fetch error.
func (v *Viewer) LoadFolders(ctx context.Context) ([]string, error) {
	folders, err := v.streams.Folders(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.message = progress.MsgFoldersFailed
		v.log.Error("fetch folders failed", "error", err)
		return nil, err
	}
	v.folders = append([]string(nil), folders...)
	v.message = ""
	return folders, nil
}

// Folders returns the last fetched folder list
func (v *Viewer) Folders() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.folders...)
}

// Message returns the viewer-level status line
func (v *Viewer) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Session returns the current session, or nil before the first SelectRoot
func (v *Viewer) Session() *Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

// SelectRoot discards the current session and starts a new one for root.
// The old stream is abandoned and its session closed before the new stream
// opens, so no record of the old root can reach the new graph.
func (v *Viewer) SelectRoot(ctx context.Context, root string) (*Session, error) {
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.teardown()

	params := v.cfg.Params
	s := NewSession(SessionConfig{
		Root:         root,
		Params:       params,
		MinScale:     v.cfg.MinScale,
		MaxScale:     v.cfg.MaxScale,
		TickInterval: v.cfg.TickInterval,
		IdleInterval: v.cfg.IdleInterval,
		Seed:         v.cfg.Seed,
		Logger:       v.log,
	})
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := v.streams.Stream(streamCtx, root, v.cfg.Watch, s)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrTransport) {
			s.log.Warn("stream ended with error", "error", err)
		}
	}()

	v.session = s
	v.stopStream = cancel
	v.streamDone = done
	v.message = ""
	v.log.Info("root selected", "root", root, "session", s.ID())
	return s, nil
}

// SetParams applies force parameters to the current session and to every later one
func (v *Viewer) SetParams(p layout.Params) error {
	p = p.Clamp()
	if err := p.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	v.cfg.Params = p
	s := v.session
	v.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.SetParams(p)
}

// Params returns the force parameters new sessions start with
func (v *Viewer) Params() layout.Params {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.Params
}

// Close ends the current session and its stream
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.teardown()
}

// teardown closes the session first so late events are dropped, then cancels
// the stream and waits for its goroutine. Caller holds v.mu.
func (v *Viewer) teardown() {
	if v.session == nil {
		return
	}
	if err := v.session.Close(); err != nil {
		v.log.Warn("close session failed", "error", err)
	}
	v.stopStream()
	<-v.streamDone
	v.session, v.stopStream, v.streamDone = nil, nil, nil
}
