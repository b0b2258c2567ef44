package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// IntervalScheduler drives a TickRunner at a fixed rate. After a tick that
// reports no change it drops to Config.IdleInterval until Wake is called or a
// later tick reports activity again.
type IntervalScheduler struct {
	config Config
	runner TickRunner

	mu          sync.RWMutex
	running     bool
	stopped     bool
	stopOnce    sync.Once
	closeOnce   sync.Once
	stopChan    chan struct{}
	stoppedChan chan struct{}
	wakeChan    chan struct{}

	stats struct {
		lastRunTime time.Time
		nextRunTime time.Time
		idle        bool
		totalRuns   int
		activeRuns  int
		idleRuns    int
		failedRuns  int
		wakeups     int
		lastError   string
	}
}

// NewIntervalScheduler creates a new interval-based scheduler
func NewIntervalScheduler(config Config, runner TickRunner) (*IntervalScheduler, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", config.Interval)
	}
	if config.IdleInterval < 0 {
		return nil, fmt.Errorf("idle interval cannot be negative, got %v", config.IdleInterval)
	}
	if config.IdleInterval == 0 {
		config.IdleInterval = config.Interval
	}
	if runner == nil {
		return nil, fmt.Errorf("tick runner cannot be nil")
	}

	return &IntervalScheduler{
		config:      config,
		runner:      runner,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
		wakeChan:    make(chan struct{}, 1),
	}, nil
}

// Start begins the scheduling loop
func (s *IntervalScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.stopped {
		return fmt.Errorf("scheduler cannot be restarted after stop")
	}

	s.running = true
	s.stats.nextRunTime = time.Now().Add(s.config.Interval)

	go s.run(ctx)
	return nil
}

// Wake returns an idle scheduler to the fast interval and ticks at once.
// It never blocks, so callers may hold locks the runner also takes.
func (s *IntervalScheduler) Wake() {
	select {
	case s.wakeChan <- struct{}{}:
	default:
	}
}

func (s *IntervalScheduler) run(ctx context.Context) {
	defer s.closeOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.running = false
		s.mu.Unlock()
		close(s.stoppedChan)
	})

	timer := time.NewTimer(s.config.Interval)
	defer timer.Stop()
	idle := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-s.wakeChan:
			if !idle {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			idle = false
			s.markWake()
			timer.Reset(0)
		case <-timer.C:
			idle = !s.executeTick(ctx)
			next := s.config.Interval
			if idle {
				next = s.config.IdleInterval
			}
			s.mu.Lock()
			s.stats.idle = idle
			s.stats.nextRunTime = time.Now().Add(next)
			s.mu.Unlock()
			timer.Reset(next)
		}
	}
}

func (s *IntervalScheduler) markWake() {
	s.mu.Lock()
	s.stats.idle = false
	s.stats.wakeups++
	s.mu.Unlock()
}

// executeTick runs one tick, records the outcome and reports whether the
// scheduler should stay at the fast interval
func (s *IntervalScheduler) executeTick(ctx context.Context) bool {
	s.mu.Lock()
	s.stats.lastRunTime = time.Now()
	s.stats.totalRuns++
	s.mu.Unlock()

	active, err := s.runner.RunTick(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.stats.failedRuns++
		s.stats.lastError = err.Error()
		return true
	case active:
		s.stats.activeRuns++
		s.stats.lastError = ""
		return true
	default:
		s.stats.idleRuns++
		s.stats.lastError = ""
		return false
	}
}

// Stop stops the scheduler and waits for the loop to exit.
// Once Stop returns, the runner is never called again. Stopping a loop that
// already exited because its context was cancelled is not an error.
func (s *IntervalScheduler) Stop() error {
	s.mu.RLock()
	running, stopped := s.running, s.stopped
	s.mu.RUnlock()
	if stopped {
		return nil
	}
	if !running {
		return fmt.Errorf("scheduler is not running")
	}

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.stoppedChan
	return nil
}

// Done is closed once the loop has exited
func (s *IntervalScheduler) Done() <-chan struct{} {
	return s.stoppedChan
}

// Status returns the current scheduler status
func (s *IntervalScheduler) Status() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Status{
		Running:     s.running,
		Idle:        s.stats.idle,
		LastRunTime: s.stats.lastRunTime,
		NextRunTime: s.stats.nextRunTime,
		TotalRuns:   s.stats.totalRuns,
		ActiveRuns:  s.stats.activeRuns,
		IdleRuns:    s.stats.idleRuns,
		FailedRuns:  s.stats.failedRuns,
		Wakeups:     s.stats.wakeups,
		LastError:   s.stats.lastError,
	}
}
