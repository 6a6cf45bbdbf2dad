package taskcenter

import (
	"sync"
	"time"

	"optiondash-desktop/internal/models"
)

// Snapshot is the full task list as of one successful fetch. It is never
// modified after construction; accessors hand out copies.
type Snapshot struct {
	seq       uint64
	fetchedAt time.Time
	tasks     []models.Task
}

// NewSnapshot copies tasks into a new immutable snapshot
func NewSnapshot(seq uint64, fetchedAt time.Time, tasks []models.Task) Snapshot {
	owned := make([]models.Task, len(tasks))
	copy(owned, tasks)
	return Snapshot{seq: seq, fetchedAt: fetchedAt, tasks: owned}
}

// Seq is the logical sequence number of the fetch that produced the snapshot
func (s Snapshot) Seq() uint64 { return s.seq }

func (s Snapshot) FetchedAt() time.Time { return s.fetchedAt }

func (s Snapshot) Len() int { return len(s.tasks) }

// Tasks returns a copy of the tasks in server order
func (s Snapshot) Tasks() []models.Task {
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// HasActive reports whether any task is PENDING or PROCESSING
func (s Snapshot) HasActive() bool {
	for _, t := range s.tasks {
		if t.Status.Active() {
			return true
		}
	}
	return false
}

// CountCompleted counts SUCCESS tasks whose type is in watched
func (s Snapshot) CountCompleted(watched map[string]struct{}) int {
	n := 0
	for _, t := range s.tasks {
		if t.Status != models.StatusSuccess {
			continue
		}
		if _, ok := watched[t.TaskType]; ok {
			n++
		}
	}
	return n
}

// Store holds the most recently applied snapshot. Replace is the only way
// to change the data; Invalidate only marks it stale.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	loaded bool
	stale  bool
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the current snapshot, or false while nothing has been loaded yet
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.loaded
}

// Replace overwrites the held snapshot wholesale and clears the stale mark
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.loaded = true
	s.stale = false
}

// Invalidate marks the held snapshot as out of date until the next Replace
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

func (s *Store) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}
