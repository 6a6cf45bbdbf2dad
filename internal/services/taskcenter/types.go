// Package taskcenter tracks server-side background tasks: it polls the task
// list while work is outstanding, detects newly completed reports exactly
// once, and reconciles the local snapshot after deletes.
package taskcenter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"optiondash-desktop/internal/models"
)

var (
	// ErrDeleteInProgress rejects a delete for an id whose earlier delete has not resolved
	ErrDeleteInProgress = errors.New("delete already in progress")

	// ErrClosed is returned once the monitor has been torn down
	ErrClosed = errors.New("task monitor closed")
)

// TaskQuery is the read side of the task backend
type TaskQuery interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
}

// TaskMutator is the write side of the task backend
type TaskMutator interface {
	DeleteTask(ctx context.Context, id string) error
}

// ProfileRefresher re-fetches quota and usage. Refresh must return promptly;
// its outcome is not observed here.
type ProfileRefresher interface {
	Refresh()
}

// SnapshotRecorder persists applied snapshots for offline display
type SnapshotRecorder interface {
	Record(ctx context.Context, snap Snapshot) error
}

// FetchError is a transient failure to obtain a snapshot
type FetchError struct {
	Seq uint64
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch #%d failed: %v", e.Seq, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError is a failed delete, carrying the server's detail when present
type MutationError struct {
	TaskID string
	Detail string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("delete task %s: %s", e.TaskID, e.Detail)
	}
	return fmt.Sprintf("delete task %s: %v", e.TaskID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Options configures a Monitor
type Options struct {
	PollInterval     time.Duration
	FetchTimeout     time.Duration
	PageSize         int
	WatchedTaskTypes []string

	// DetailExtractor pulls a user-facing message out of a mutation error
	DetailExtractor func(error) string

	// IsTransient classifies fetch failures. Polling retries either way; a
	// failure it rejects is flagged in View so the UI can ask for attention
	// (expired token, bad URL). Nil treats every failure as transient.
	IsTransient func(error) bool
}

// View is what the UI renders for the task center
type View struct {
	Tasks               []models.Task `json:"tasks"`
	Loaded              bool          `json:"loaded"`
	Stale               bool          `json:"stale"`
	Polling             bool          `json:"polling"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastError           string        `json:"last_error,omitempty"`
	PermanentFailure    bool          `json:"permanent_failure"`
	CompletedCount      int           `json:"completed_count"`
	FetchedAt           *time.Time    `json:"fetched_at,omitempty"`
}
