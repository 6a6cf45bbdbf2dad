package models

import (
	"time"
)

// TaskRecord is the locally cached copy of a task from the last applied snapshot
type TaskRecord struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	TaskType  string    `gorm:"not null;column:task_type;index" json:"task_type"`
	Status    string    `gorm:"not null;default:PENDING" json:"status"`
	ResultRef *string   `gorm:"column:result_ref" json:"result_ref"`
	Position  int       `gorm:"not null;default:0" json:"position"` // order within the snapshot
	CreatedAt time.Time `json:"created_at"`
	SyncedAt  time.Time `gorm:"column:synced_at" json:"synced_at"`
}

// TableName specifies the table name for GORM
func (TaskRecord) TableName() string {
	return "task_records"
}

// ToTask converts the cached row back into a Task
func (r TaskRecord) ToTask() Task {
	return Task{
		ID:        r.ID,
		TaskType:  r.TaskType,
		Status:    TaskStatus(r.Status),
		ResultRef: r.ResultRef,
		CreatedAt: r.CreatedAt,
	}
}

// NewTaskRecord builds a cache row for a task at the given snapshot position
func NewTaskRecord(t Task, position int, syncedAt time.Time) TaskRecord {
	return TaskRecord{
		ID:        t.ID,
		TaskType:  t.TaskType,
		Status:    string(t.Status),
		ResultRef: t.ResultRef,
		Position:  position,
		CreatedAt: t.CreatedAt,
		SyncedAt:  syncedAt,
	}
}
