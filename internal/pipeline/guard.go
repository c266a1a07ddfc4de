package pipeline

// guard.go keeps a Pipeline to one run at a time.
//
// The persisted store has a single writer, so a second Run, Restore or
// Export that arrives while one is active fails fast with ErrRunInProgress
// instead of queueing. Drain lets shutdown wait for the active run.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInProgress is returned when another operation holds the pipeline.
var ErrRunInProgress = errors.New("import in progress")

type runGuard struct {
	slot chan struct{}

	mu     sync.RWMutex
	active string
	since  time.Time
}

func newRunGuard() *runGuard {
	return &runGuard{slot: make(chan struct{}, 1)}
}

// tryAcquire takes the slot for op without blocking.
func (g *runGuard) tryAcquire(op string) bool {
	select {
	case g.slot <- struct{}{}:
		g.mu.Lock()
		g.active = op
		g.since = time.Now()
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// release frees the slot. Must follow every successful tryAcquire.
func (g *runGuard) release() {
	g.mu.Lock()
	g.active = ""
	g.since = time.Time{}
	g.mu.Unlock()

	<-g.slot
}

// drain blocks until no operation is active or ctx is done.
func (g *runGuard) drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if len(g.slot) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status describes the operation currently holding the pipeline.
type Status struct {
	Busy   bool      `json:"busy"`
	Active string    `json:"active,omitempty"`
	Since  time.Time `json:"since,omitempty"`
}

func (g *runGuard) status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Status{Busy: g.active != "", Active: g.active, Since: g.since}
}
