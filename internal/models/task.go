package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTaskNotFound is returned when the server no longer knows a task id
var ErrTaskNotFound = errors.New("task not found")

// TaskStatus is the server-side lifecycle state of a background task
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusProcessing TaskStatus = "PROCESSING"
	StatusSuccess    TaskStatus = "SUCCESS"
	StatusFailure    TaskStatus = "FAILURE"
)

// TaskTypeAIReport is the task type produced by AI report generation
const TaskTypeAIReport = "ai_report"

// ParseTaskStatus converts a wire value into one of the four known statuses.
// Matching is case-insensitive; anything else is rejected.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	switch TaskStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusProcessing:
		return StatusProcessing, nil
	case StatusSuccess:
		return StatusSuccess, nil
	case StatusFailure:
		return StatusFailure, nil
	default:
		return "", fmt.Errorf("unknown task status %q", raw)
	}
}

// Active reports whether the task is still outstanding on the server
func (s TaskStatus) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// Terminal reports whether the task has finished, successfully or not
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Task is one asynchronous job as observed by the client
type Task struct {
	ID        string     `json:"id"`
	TaskType  string     `json:"task_type"`
	Status    TaskStatus `json:"status"`
	ResultRef *string    `json:"result_ref,omitempty"` // set only when Status is SUCCESS
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks the invariants a task must hold once decoded
func (t Task) Validate() error {
	if t.ID == "" {
		return errors.New("task id is required")
	}
	if _, err := ParseTaskStatus(string(t.Status)); err != nil {
		return err
	}
	if t.ResultRef != nil && t.Status != StatusSuccess {
		return fmt.Errorf("task %s has result_ref while %s", t.ID, t.Status)
	}
	return nil
}

// TaskFilter narrows a task list query
type TaskFilter struct {
	Limit     int
	Skip      int
	ResultRef string // optional
}
