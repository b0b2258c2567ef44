package scheduler

import (
	"context"
	"time"
)

// Scheduler defines the interface for tick schedulers
type Scheduler interface {
	// Start begins the scheduling loop
	Start(ctx context.Context) error

	// Stop stops the loop and waits for it to exit
	Stop() error

	// Wake leaves idle mode without blocking
	Wake()

	// Status returns the current scheduler status
	Status() *Status
}

// Status represents the current state of a scheduler
type Status struct {
	Running     bool
	Idle        bool // ticking at IdleInterval
	LastRunTime time.Time
	NextRunTime time.Time
	TotalRuns   int
	ActiveRuns  int // runs where the runner advanced something
	IdleRuns    int
	FailedRuns  int
	Wakeups     int
	LastError   string
}

// Config contains scheduler configuration
type Config struct {
	// Interval specifies the duration between ticks
	Interval time.Duration

	// IdleInterval is used after a tick that changed nothing; zero means Interval
	IdleInterval time.Duration
}

// TickRunner is the interface that schedulers use to advance work.
// RunTick reports whether anything changed on this tick.
type TickRunner interface {
	RunTick(ctx context.Context) (bool, error)
}

// TickFunc adapts a function to TickRunner
type TickFunc func(ctx context.Context) (bool, error)

// RunTick calls f(ctx)
func (f TickFunc) RunTick(ctx context.Context) (bool, error) {
	return f(ctx)
}
