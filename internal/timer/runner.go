package timer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the period between runner ticks.
const TickInterval = time.Second

// Runner owns the ticker that drives a countdown. The owner starts it when
// the timer is shown and stops it when the timer goes away; Stop returns
// only after the last tick has finished.
type Runner struct {
	clock clockwork.Clock
	tick  func()

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewRunner calls tick once per TickInterval while started. A nil clock
// means the real clock.
func NewRunner(clock clockwork.Clock, tick func()) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{clock: clock, tick: tick}
}

// Start launches the ticker. Starting a started runner does nothing. The
// runner also stops when ctx is done.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})

	ticker := r.clock.NewTicker(TickInterval)
	r.wg.Add(1)
	go r.run(ctx, ticker, r.stop)
}

// Stop cancels the ticker and waits for the goroutine to exit. It is safe
// to call on a stopped runner.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.running {
		r.running = false
		close(r.stop)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) run(ctx context.Context, ticker clockwork.Ticker, stop <-chan struct{}) {
	defer r.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.stop == stop {
				r.running = false
			}
			r.mu.Unlock()
			return
		case <-stop:
			return
		case <-ticker.Chan():
			r.tick()
		}
	}
}
