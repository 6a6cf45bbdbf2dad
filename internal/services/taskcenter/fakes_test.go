package taskcenter

import (
	"context"
	"sync"
	"sync/atomic"

	"optiondash-desktop/internal/models"
)

// listResult is one scripted answer from fakeQuery.ListTasks. A non-nil gate
// holds the answer back until it is closed, regardless of cancellation.
// hang blocks until the fetch context ends and returns its error.
type listResult struct {
	tasks []models.Task
	err   error
	gate  chan struct{}
	hang  bool
}

// fakeQuery answers ListTasks from a script; the last entry repeats
type fakeQuery struct {
	mu      sync.Mutex
	results []listResult
	calls   int
	started chan int
	details map[string]*models.Task
	getErr  error
}

func newFakeQuery(results ...listResult) *fakeQuery {
	return &fakeQuery{results: results, started: make(chan int, 64), details: map[string]*models.Task{}}
}

func (f *fakeQuery) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	res := f.results[len(f.results)-1]
	if idx < len(f.results) {
		res = f.results[idx]
	}
	f.mu.Unlock()

	f.started <- idx
	if res.gate != nil {
		<-res.gate
	}
	if res.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}
	out := make([]models.Task, len(res.tasks))
	copy(out, res.tasks)
	return out, nil
}

func (f *fakeQuery) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if task, ok := f.details[id]; ok {
		return task, nil
	}
	return nil, models.ErrTaskNotFound
}

func (f *fakeQuery) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeMutator records deletes; gate, when set, blocks each call until closed
type fakeMutator struct {
	calls   int32
	err     error
	gate    chan struct{}
	started chan string
}

func (f *fakeMutator) DeleteTask(ctx context.Context, id string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		f.started <- id
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.err
}

func (f *fakeMutator) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type fakeProfile struct {
	refreshes int32
}

func (f *fakeProfile) Refresh() { atomic.AddInt32(&f.refreshes, 1) }

func (f *fakeProfile) Count() int { return int(atomic.LoadInt32(&f.refreshes)) }

type fakeRecorder struct {
	mu   sync.Mutex
	seqs []uint64
}

func (f *fakeRecorder) Record(ctx context.Context, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs = append(f.seqs, snap.Seq())
	return nil
}

func (f *fakeRecorder) Seqs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.seqs...)
}
