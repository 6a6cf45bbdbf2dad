package history

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"optiondash-desktop/internal/models"
	"optiondash-desktop/internal/services/taskcenter"
)

// Service persists the last applied task snapshot so the task center can be
// rendered before the first fetch of a session resolves
type Service struct {
	db *gorm.DB
}

// NewService creates a new history service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Record replaces the cached task list with the snapshot's contents: rows
// present in the snapshot are upserted, all others are removed.
func (s *Service) Record(ctx context.Context, snap taskcenter.Snapshot) error {
	tasks := snap.Tasks()
	records := make([]models.TaskRecord, len(tasks))
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		records[i] = models.NewTaskRecord(t, i, snap.FetchedAt())
		ids[i] = t.ID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(&models.TaskRecord{}).Error; err != nil {
			return fmt.Errorf("failed to prune cached tasks: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&records).Error; err != nil {
			return fmt.Errorf("failed to upsert cached tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[history] Cached %d tasks from snapshot #%d", len(records), snap.Seq())
	return nil
}

// List returns up to limit cached tasks in snapshot order
func (s *Service) List(ctx context.Context, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []models.TaskRecord
	if err := s.db.WithContext(ctx).Order("position ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list cached tasks: %w", err)
	}

	tasks := make([]models.Task, len(records))
	for i, r := range records {
		tasks[i] = r.ToTask()
	}
	return tasks, nil
}

// Clear removes every cached task, used on sign-out
func (s *Service) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.TaskRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cached tasks: %w", err)
	}
	return nil
}
