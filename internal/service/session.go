package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ning0612/Filegraph/internal/core/graph"
	"github.com/Ning0612/Filegraph/internal/core/hierarchy"
	"github.com/Ning0612/Filegraph/internal/core/interaction"
	"github.com/Ning0612/Filegraph/internal/core/layout"
	"github.com/Ning0612/Filegraph/internal/core/store"
	"github.com/Ning0612/Filegraph/internal/domain"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/progress"
	"github.com/Ning0612/Filegraph/internal/scheduler"
)

// DefaultTickInterval is roughly 30 simulation steps per second
const DefaultTickInterval = 33 * time.Millisecond

// DefaultIdleInterval is the tick rate once the layout has cooled
const DefaultIdleInterval = 250 * time.Millisecond

// SessionConfig configures one root session
type SessionConfig struct {
	Root   string
	Params layout.Params

	MinScale, MaxScale float64
	TickInterval       time.Duration
	IdleInterval       time.Duration

	// Seed fixes layout jitter; 0 seeds from the clock
	Seed uint64

	// OnStatus observes every status update. It runs under the session lock
	// and must not call back into the session.
	OnStatus func(progress.Update)

	Logger logger.Logger
}

// Session is the context of one root: record store, hierarchy index, graph
// model, layout engine, interaction controller and stream status. Every
// method takes the session lock and runs to completion, so stream events,
// ticks and gestures never interleave. A closed session rejects everything
// with domain.ErrSessionClosed.
type Session struct {
	mu     sync.Mutex
	id     string
	root   string
	closed bool

	store  *store.Store
	index  *hierarchy.Index
	model  *graph.Model
	engine *layout.Engine
	ctl    *interaction.Controller

	reporter *progress.CallbackReporter
	status   progress.Update
	onStatus func(progress.Update)

	// version increases whenever something visible changes
	version uint64

	tickInterval time.Duration
	idleInterval time.Duration
	sched        *scheduler.IntervalScheduler
	log          logger.Logger
}

// NewSession builds an idle session. Call Start to run the simulation clock.
func NewSession(cfg SessionConfig) *Session {
	var opts []layout.Option
	if cfg.Seed != 0 {
		opts = append(opts, layout.WithSeed(cfg.Seed))
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Get()
	}

	s := &Session{
		id:           uuid.New().String(),
		root:         cfg.Root,
		store:        store.New(),
		index:        hierarchy.NewIndex(),
		model:        graph.New(),
		engine:       layout.New(cfg.Params, opts...),
		onStatus:     cfg.OnStatus,
		tickInterval: cfg.TickInterval,
		idleInterval: cfg.IdleInterval,
	}
	s.log = cfg.Logger.With("session", s.id, "root", cfg.Root)
	s.ctl = interaction.New(s.engine, s.model, s.store, interaction.NewView(cfg.MinScale, cfg.MaxScale))
	s.reporter = progress.NewCallbackReporter(func(u progress.Update) {
		// invoked from session methods, which already hold s.mu
		s.status = u
		s.version++
		if s.onStatus != nil {
			s.onStatus(u)
		}
	})
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Root returns the folder this session shows
func (s *Session) Root() string {
	return s.root
}

// Start runs the tick scheduler until Close
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.sched != nil {
		s.mu.Unlock()
		return fmt.Errorf("session already started")
	}
	sched, err := scheduler.NewIntervalScheduler(scheduler.Config{
		Interval:     s.tickInterval,
		IdleInterval: s.idleInterval,
	}, s)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.sched = sched
	s.mu.Unlock()

	return sched.Start(ctx)
}

// Close cancels gestures, releases pins and stops the tick scheduler.
// It waits for an in-flight tick to finish. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.ctl.Cancel()
	s.engine.SetAlphaTarget(0)
	sched := s.sched
	s.mu.Unlock()

	// Stop waits for the loop, and the loop takes s.mu, so the lock must be released first
	if sched != nil {
		if err := sched.Stop(); err != nil {
			return err
		}
	}
	s.log.Debug("session closed")
	return nil
}

// IsClosed reports whether Close was called
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// RunTick advances the simulation one step; it implements scheduler.TickRunner
func (s *Session) RunTick(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, domain.ErrSessionClosed
	}
	moved := s.engine.Tick()
	if moved {
		s.version++
	}
	return moved, nil
}

// Apply adds one record: store, hierarchy, graph and layout, in that order.
// Data errors reject the record and leave every component unchanged.
func (s *Session) Apply(rec domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	return s.apply(rec)
}

func (s *Session) apply(rec domain.FileRecord) error {
	if s.store.Contains(rec.Path) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, rec.Path)
	}
	delta, err := s.index.Add(rec)
	if err != nil {
		return err
	}
	if err := s.store.Insert(rec); err != nil {
		// Contains was checked above under the same lock
		return err
	}
	if err := s.model.Apply(delta); err != nil {
		return err
	}
	s.engine.Sync(s.model)
	s.version++
	s.wake()
	return nil
}

// wake brings a cooled scheduler back to the fast rate; caller holds s.mu
func (s *Session) wake() {
	if s.sched != nil {
		s.sched.Wake()
	}
}

// isDataError reports errors that reject one record without ending the stream
func isDataError(err error) bool {
	return errors.Is(err, domain.ErrInvalidRecord) ||
		errors.Is(err, domain.ErrUnresolvableParent) ||
		errors.Is(err, domain.ErrDuplicateRecord)
}

// The methods below implement client.Handler.

// Connected marks the stream open
func (s *Session) Connected(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.log.Info("stream connected")
	s.reporter.Connected(root)
	return nil
}

// Record applies a streamed record. Rejected records are reported and the stream continues.
func (s *Session) Record(rec domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if err := s.apply(rec); err != nil {
		if !isDataError(err) {
			return err
		}
		s.log.Warn("record rejected", "path", rec.Path, "error", err)
		s.reporter.Rejected(rec.Path, err)
		return nil
	}
	s.reporter.Record(rec.Path, rec.Size)
	return nil
}

// Malformed reports a message that could not be decoded; it counts as a rejected record
func (s *Session) Malformed(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.log.Warn("malformed message", "error", err)
	s.reporter.Rejected("", err)
	return nil
}

// ProtocolError shows a server error message; the stream keeps listening
func (s *Session) ProtocolError(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.log.Warn("server reported error", "message", message)
	s.reporter.ProtocolError(message)
	return nil
}

// TransportError shows a connection failure without touching the graph
func (s *Session) TransportError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.log.Warn("transport error", "error", err)
	s.reporter.TransportError(err)
	return nil
}

// Closed reports the end of the stream
func (s *Session) Closed(clean bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.log.Info("stream ended", "clean", clean, "records", s.store.Len())
	s.reporter.Closed(clean)
	return nil
}
