package devserver

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"optiondash-desktop/internal/models"
)

// Timeline controls how long a job sits in each non-terminal state
type Timeline struct {
	Pending    time.Duration
	Processing time.Duration
}

// DefaultTimeline moves jobs through the pipeline within a few poll cycles
var DefaultTimeline = Timeline{
	Pending:    3 * time.Second,
	Processing: 6 * time.Second,
}

type job struct {
	id        string
	taskType  string
	createdAt time.Time
	fail      bool
	settled   bool // terminal state already accounted in the profile
}

// JobStore is an in-memory task backend whose jobs advance with time
type JobStore struct {
	jobs     map[string]*job
	mutex    sync.RWMutex
	now      func() time.Time
	timeline Timeline
	profile  models.UserProfile
}

// NewJobStore creates a store. A nil now defaults to time.Now.
func NewJobStore(now func() time.Time, timeline Timeline, profile models.UserProfile) *JobStore {
	if now == nil {
		now = time.Now
	}
	return &JobStore{
		jobs:     make(map[string]*job),
		now:      now,
		timeline: timeline,
		profile:  profile,
	}
}

// Create enqueues a new job in PENDING state
func (s *JobStore) Create(taskType string, fail bool) models.Task {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	j := &job{
		id:        uuid.NewString(),
		taskType:  taskType,
		createdAt: s.now().UTC(),
		fail:      fail,
	}
	s.jobs[j.id] = j
	return s.viewLocked(j)
}

// List returns jobs newest first, filtered by result reference, paged by skip/limit.
// The returned total counts all matches before paging.
func (s *JobStore) List(filter models.TaskFilter) ([]models.Task, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.settleLocked()

	matches := make([]models.Task, 0, len(s.jobs))
	for _, j := range s.jobs {
		task := s.viewLocked(j)
		if filter.ResultRef != "" && (task.ResultRef == nil || *task.ResultRef != filter.ResultRef) {
			continue
		}
		matches = append(matches, task)
	}
	sort.Slice(matches, func(i, k int) bool {
		if matches[i].CreatedAt.Equal(matches[k].CreatedAt) {
			return matches[i].ID < matches[k].ID
		}
		return matches[i].CreatedAt.After(matches[k].CreatedAt)
	})

	total := len(matches)
	if filter.Skip >= total {
		return []models.Task{}, total
	}
	matches = matches[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(matches) {
		matches = matches[:filter.Limit]
	}
	return matches, total
}

// Get returns a single job
func (s *JobStore) Get(id string) (models.Task, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.settleLocked()

	j, exists := s.jobs[id]
	if !exists {
		return models.Task{}, models.ErrTaskNotFound
	}
	return s.viewLocked(j), nil
}

// Delete removes a job
func (s *JobStore) Delete(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.jobs[id]; !exists {
		return models.ErrTaskNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Profile returns the account profile with usage counted from completed reports
func (s *JobStore) Profile() models.UserProfile {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.settleLocked()
	return s.profile
}

// settleLocked charges the quota once for every report that reached SUCCESS
func (s *JobStore) settleLocked() {
	for _, j := range s.jobs {
		if j.settled {
			continue
		}
		status := s.statusLocked(j)
		if !status.Terminal() {
			continue
		}
		j.settled = true
		if status == models.StatusSuccess && j.taskType == models.TaskTypeAIReport {
			s.profile.ReportsUsed++
		}
	}
}

func (s *JobStore) statusLocked(j *job) models.TaskStatus {
	elapsed := s.now().Sub(j.createdAt)
	switch {
	case elapsed < s.timeline.Pending:
		return models.StatusPending
	case elapsed < s.timeline.Pending+s.timeline.Processing:
		return models.StatusProcessing
	case j.fail:
		return models.StatusFailure
	default:
		return models.StatusSuccess
	}
}

func (s *JobStore) viewLocked(j *job) models.Task {
	task := models.Task{
		ID:        j.id,
		TaskType:  j.taskType,
		Status:    s.statusLocked(j),
		CreatedAt: j.createdAt,
	}
	if task.Status == models.StatusSuccess {
		ref := "report-" + j.id
		task.ResultRef = &ref
	}
	return task
}
