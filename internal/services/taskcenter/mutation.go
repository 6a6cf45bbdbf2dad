package taskcenter

import (
	"sync"
)

// DeleteState is the lifecycle of one delete request
type DeleteState string

const (
	DeleteIdle      DeleteState = "idle"
	DeletePending   DeleteState = "pending"
	DeleteSucceeded DeleteState = "succeeded"
	DeleteFailed    DeleteState = "failed"
)

// deleteTracker guards against two deletes of the same id racing each other
type deleteTracker struct {
	mu     sync.Mutex
	states map[string]DeleteState
}

func newDeleteTracker() *deleteTracker {
	return &deleteTracker{states: make(map[string]DeleteState)}
}

// begin moves id to Pending, or returns false if a delete for it is already pending
func (d *deleteTracker) begin(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.states[id] == DeletePending {
		return false
	}
	d.states[id] = DeletePending
	return true
}

func (d *deleteTracker) finish(id string, state DeleteState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[id] = state
}

func (d *deleteTracker) state(id string) DeleteState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state, ok := d.states[id]; ok {
		return state
	}
	return DeleteIdle
}
