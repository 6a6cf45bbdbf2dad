package taskcenter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"optiondash-desktop/internal/models"
	"optiondash-desktop/internal/services/notify"
)

// Dependencies are the collaborators a Monitor calls into
type Dependencies struct {
	Query    TaskQuery
	Mutator  TaskMutator
	Profile  ProfileRefresher
	Notifier notify.Notifier
	Recorder SnapshotRecorder // optional
	Clock    Clock            // defaults to RealClock
	OnUpdate func(View)       // optional, called after every resolved fetch
}

type fetchKind int

const (
	fetchPoll fetchKind = iota
	fetchManual
)

func (k fetchKind) String() string {
	if k == fetchPoll {
		return "poll"
	}
	return "refresh"
}

// Monitor owns the task snapshot and the poll loop for one observing view
type Monitor struct {
	deps    Dependencies
	opts    Options
	policy  PollPolicy
	session string

	store    *Store
	detector *Detector
	deletes  *deleteTracker

	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	started      bool
	closed       bool
	timer        Timer
	polling      bool
	pollInFlight bool
	issued       uint64 // last sequence number handed to a fetch
	applied      uint64 // sequence number of the snapshot in the store
	failures     int
	lastErr      error
	permanent    bool

	// recordMu orders Recorder calls; lastRecorded is the newest seq persisted
	recordMu     sync.Mutex
	lastRecorded uint64
}

// NewMonitor creates a new task monitor; nothing is fetched until Start
func NewMonitor(deps Dependencies, opts Options) *Monitor {
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.LogNotifier{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if len(opts.WatchedTaskTypes) == 0 {
		opts.WatchedTaskTypes = []string{models.TaskTypeAIReport}
	}

	return &Monitor{
		deps:     deps,
		opts:     opts,
		policy:   PollPolicy{Interval: opts.PollInterval},
		session:  uuid.New().String()[:8],
		store:    NewStore(),
		detector: NewDetector(opts.WatchedTaskTypes...),
		deletes:  newDeleteTracker(),
	}
}

// Start performs the first fetch and, if work is outstanding, begins polling.
// It blocks until that first fetch resolves.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.started = true
	m.mu.Unlock()

	log.Printf("[taskcenter %s] Starting (interval=%v, watched=%v)", m.session, m.policy.interval(), m.opts.WatchedTaskTypes)
	m.fetch(fetchPoll)
	return nil
}

// Refresh fetches immediately, outside the poll cadence. Polling resumes if
// the result shows outstanding work.
func (m *Monitor) Refresh() {
	m.fetch(fetchManual)
}

// Close cancels the pending timer and any in-flight fetch. Results that
// arrive afterwards are dropped without touching the store or running effects.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.stopTimerLocked()
	m.polling = false
	if m.cancel != nil {
		m.cancel()
	}
	log.Printf("[taskcenter %s] Closed", m.session)
}

// View returns the current state for rendering
func (m *Monitor) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Snapshot returns the current snapshot, or false before the first successful fetch
func (m *Monitor) Snapshot() (Snapshot, bool) {
	return m.store.Snapshot()
}

// DeleteState reports where the latest delete request for id stands
func (m *Monitor) DeleteState(id string) DeleteState {
	return m.deletes.state(id)
}

// TaskDetail fetches one task. A task that vanished server-side is not an
// error: it has simply left the tracked set, so found is false.
func (m *Monitor) TaskDetail(ctx context.Context, id string) (task models.Task, found bool, err error) {
	fctx, cancel := context.WithTimeout(ctx, m.opts.FetchTimeout)
	defer cancel()

	t, err := m.deps.Query.GetTask(fctx, id)
	if errors.Is(err, models.ErrTaskNotFound) {
		log.Printf("[taskcenter %s] Task %s no longer exists", m.session, id)
		return models.Task{}, false, nil
	}
	if err != nil {
		return models.Task{}, false, &FetchError{Err: err}
	}
	return *t, true, nil
}

// Delete removes a task on the server, then invalidates the snapshot and
// refetches. A second delete for the same id while the first is pending is
// rejected with ErrDeleteInProgress and never reaches the server.
func (m *Monitor) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if !m.deletes.begin(id) {
		log.Printf("[taskcenter %s] Ignoring duplicate delete for %s", m.session, id)
		return ErrDeleteInProgress
	}

	if err := m.deps.Mutator.DeleteTask(ctx, id); err != nil {
		m.deletes.finish(id, DeleteFailed)
		mutationErr := &MutationError{TaskID: id, Err: err}
		if m.opts.DetailExtractor != nil {
			mutationErr.Detail = m.opts.DetailExtractor(err)
		}
		message := "Failed to delete task"
		if mutationErr.Detail != "" {
			message = fmt.Sprintf("Failed to delete task: %s", mutationErr.Detail)
		}
		m.deps.Notifier.Notify(notify.Notification{Level: notify.LevelError, Message: message})
		log.Printf("[taskcenter %s] ERROR: %v", m.session, mutationErr)
		return mutationErr
	}
	m.deletes.finish(id, DeleteSucceeded)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.store.Invalidate()
	m.mu.Unlock()

	m.deps.Notifier.Notify(notify.Notification{Level: notify.LevelSuccess, Message: "Task deleted"})
	log.Printf("[taskcenter %s] Deleted task %s, refetching", m.session, id)

	m.fetch(fetchManual)
	return nil
}

// fetch runs one list request and applies its result. Poll fetches never
// overlap each other; a manual fetch may overlap a poll, in which case the
// sequence numbers decide which result wins.
func (m *Monitor) fetch(kind fetchKind) {
	m.mu.Lock()
	if m.closed || !m.started {
		m.mu.Unlock()
		return
	}
	if kind == fetchPoll {
		if m.pollInFlight {
			m.mu.Unlock()
			return
		}
		m.pollInFlight = true
	}
	m.stopTimerLocked()
	m.issued++
	seq := m.issued
	ctx := m.ctx
	m.mu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, m.opts.FetchTimeout)
	tasks, err := m.deps.Query.ListTasks(fctx, models.TaskFilter{Limit: m.opts.PageSize})
	cancel()

	m.mu.Lock()
	if kind == fetchPoll {
		m.pollInFlight = false
	}
	if m.closed {
		m.mu.Unlock()
		log.Printf("[taskcenter %s] Dropping %s #%d result after close", m.session, kind, seq)
		return
	}

	var (
		effects  []Effect
		recorded *Snapshot
		decision Decision
	)
	switch {
	case err != nil:
		m.failures++
		fetchErr := &FetchError{Seq: seq, Err: err}
		m.lastErr = fetchErr
		m.permanent = m.opts.IsTransient != nil && !m.opts.IsTransient(err)
		if seq > m.applied {
			decision = m.policy.AfterFailure(fetchErr)
		} else {
			// A newer snapshot is already in place; schedule from it
			decision = m.decideLocked()
		}
		log.Printf("[taskcenter %s] WARNING: %v (consecutive failures: %d, retry in %s)", m.session, fetchErr, m.failures, decision)
	case seq < m.applied:
		decision = m.decideLocked()
		log.Printf("[taskcenter %s] Discarding stale %s #%d (applied #%d)", m.session, kind, seq, m.applied)
	default:
		m.failures = 0
		m.lastErr = nil
		m.permanent = false
		m.applied = seq
		snap := NewSnapshot(seq, m.deps.Clock.Now(), tasks)
		m.store.Replace(snap)
		effects = m.detector.Observe(snap)
		recorded = &snap
		decision = m.policy.NextDelay(&snap)
	}
	m.scheduleLocked(decision)
	view := m.viewLocked()
	ctx = m.ctx
	m.mu.Unlock()

	m.dispatch(effects)
	if recorded != nil {
		m.record(ctx, *recorded)
	}
	if m.deps.OnUpdate != nil {
		m.deps.OnUpdate(view)
	}
}

// record persists snap unless a newer snapshot has already been persisted.
// Applies happen under mu but recording does not, so two back-to-back applies
// can reach here in either order.
func (m *Monitor) record(ctx context.Context, snap Snapshot) {
	if m.deps.Recorder == nil {
		return
	}
	m.recordMu.Lock()
	defer m.recordMu.Unlock()

	if snap.Seq() <= m.lastRecorded {
		log.Printf("[taskcenter %s] Skipping record of #%d (already recorded #%d)", m.session, snap.Seq(), m.lastRecorded)
		return
	}
	if err := m.deps.Recorder.Record(ctx, snap); err != nil {
		log.Printf("[taskcenter %s] WARNING: Failed to record snapshot #%d: %v", m.session, snap.Seq(), err)
		return
	}
	m.lastRecorded = snap.Seq()
}

// dispatch runs side effects requested by the detector
func (m *Monitor) dispatch(effects []Effect) {
	for _, effect := range effects {
		switch effect {
		case EffectRefreshProfile:
			log.Printf("[taskcenter %s] Report completed, refreshing profile", m.session)
			if m.deps.Profile != nil {
				m.deps.Profile.Refresh()
			}
		default:
			log.Printf("[taskcenter %s] WARNING: Unknown effect: %v", m.session, effect)
		}
	}
}

func (m *Monitor) decideLocked() Decision {
	snap, loaded := m.store.Snapshot()
	if !loaded {
		return m.policy.NextDelay(nil)
	}
	return m.policy.NextDelay(&snap)
}

// scheduleLocked arms the poll timer per decision. While a poll fetch is in
// flight it only records intent; that fetch reschedules when it resolves.
func (m *Monitor) scheduleLocked(decision Decision) {
	m.stopTimerLocked()
	if decision.Stop {
		if m.polling {
			log.Printf("[taskcenter %s] No outstanding tasks, polling stopped", m.session)
		}
		m.polling = false
		return
	}
	m.polling = true
	if m.pollInFlight {
		return
	}
	m.timer = m.deps.Clock.AfterFunc(decision.Delay, func() {
		m.fetch(fetchPoll)
	})
}

func (m *Monitor) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) viewLocked() View {
	view := View{
		Stale:               m.store.Stale(),
		Polling:             m.polling,
		ConsecutiveFailures: m.failures,
		PermanentFailure:    m.permanent,
	}
	if m.lastErr != nil {
		view.LastError = m.lastErr.Error()
	}
	snap, loaded := m.store.Snapshot()
	view.Loaded = loaded
	if loaded {
		view.Tasks = snap.Tasks()
		fetchedAt := snap.FetchedAt()
		view.FetchedAt = &fetchedAt
	}
	view.CompletedCount, _ = m.detector.Counter()
	return view
}
