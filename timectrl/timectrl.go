// Package timectrl provides the simulation time grid and a small clock
// abstraction so the engine and its callers can share a time source.
package timectrl

import (
	"sync"
	"time"
)

// SimClock is the time source the simulation engine reads its start time
// from. Production code uses Wall; tests substitute a fixed clock.
type SimClock interface {
	Now() time.Time
}

// Wall is the wall-clock SimClock.
type Wall struct{}

func (Wall) Now() time.Time { return time.Now().UTC() }

// Fixed is a SimClock pinned to a single instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Grid returns the closed tick grid [start, start+span] stepped by step.
// Both endpoints are included; a span that is not an exact multiple of step
// still ends on the last tick at or before start+span. Ticks are computed
// from the start by index so float step widths do not accumulate error.
func Grid(start time.Time, span, step time.Duration) []time.Time {
	if step <= 0 || span < 0 {
		return nil
	}
	n := int(span/step) + 1
	grid := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		grid = append(grid, start.Add(time.Duration(i)*step))
	}
	return grid
}

// Ticker periodically invokes registered listeners with the current wall
// time while a long-running operation is in flight. Callers use it to report
// progress of a background simulation run.
type Ticker struct {
	mu        sync.Mutex
	interval  time.Duration
	listeners []func(time.Time)
	stop      chan struct{}
	done      chan struct{}
}

// NewTicker constructs a stopped Ticker with the given interval.
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// AddListener registers a callback invoked on every tick. Listeners must be
// registered before Start.
func (t *Ticker) AddListener(fn func(time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Start begins ticking in a separate goroutine. It is a no-op if the ticker
// is already running.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.stop, t.done)
}

// Stop halts ticking and waits for the loop to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Ticker) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			t.mu.Lock()
			listeners := append([]func(time.Time){}, t.listeners...)
			t.mu.Unlock()
			for _, fn := range listeners {
				fn(now)
			}
		}
	}
}
