package scheduler

// Job names registered by the application
const (
	JobTaskResync     = "task_resync"
	JobProfileRefresh = "profile_refresh"
)

// JobListResponse represents a scheduled job in list responses
type JobListResponse struct {
	Name    string  `json:"name"`
	Cron    string  `json:"cron"`
	LastRun *string `json:"last_run"` // ISO 8601 format
	NextRun *string `json:"next_run"` // ISO 8601 format
}
