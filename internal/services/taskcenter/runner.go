package taskcenter

import (
	"context"
	"log"
	"sync"
)

// Runner owns the active Monitor across credential changes. A closed Monitor
// cannot restart, so Stop swaps in a fresh one built by the factory.
type Runner struct {
	mu      sync.Mutex
	build   func() *Monitor
	monitor *Monitor
	started bool
}

// NewRunner builds the first Monitor; nothing is fetched until Start
func NewRunner(build func() *Monitor) *Runner {
	return &Runner{build: build, monitor: build()}
}

// Monitor returns the current Monitor
func (r *Runner) Monitor() *Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitor
}

// Running reports whether the current Monitor has been started
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Start runs the first fetch of the current Monitor, or refreshes it when
// it is already running. It blocks until that fetch resolves.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	monitor, started := r.monitor, r.started
	r.started = true
	r.mu.Unlock()

	if started {
		monitor.Refresh()
		return nil
	}
	return monitor.Start(ctx)
}

// Stop closes the current Monitor and replaces it with an idle one
func (r *Runner) Stop() {
	r.mu.Lock()
	old := r.monitor
	wasStarted := r.started
	r.monitor = r.build()
	r.started = false
	r.mu.Unlock()

	old.Close()
	if wasStarted {
		log.Printf("[taskcenter %s] Stopped; polling halted until restarted", old.session)
	}
}

// Close shuts the current Monitor down for good
func (r *Runner) Close() {
	r.Monitor().Close()
}
