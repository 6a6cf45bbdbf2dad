package main

import (
	"context"
	"log"

	"optiondash-desktop/internal/api"
	"optiondash-desktop/internal/config"
	"optiondash-desktop/internal/credentials"
	"optiondash-desktop/internal/database"
	"optiondash-desktop/internal/models"
	"optiondash-desktop/internal/services/history"
	"optiondash-desktop/internal/services/notify"
	"optiondash-desktop/internal/services/profile"
	"optiondash-desktop/internal/services/scheduler"
	"optiondash-desktop/internal/services/taskcenter"
)

// App struct - main application state
type App struct {
	ctx              context.Context
	cfg              *config.Config
	client           *api.Client
	tokens           *credentials.TokenStore
	notifier         *notify.EventNotifier
	profileService   *profile.Service
	historyService   *history.Service
	schedulerService *scheduler.Service
	taskCenter       *taskcenter.Runner
}

// ProfileResponse is returned by GetProfile
type ProfileResponse struct {
	Profile *models.UserProfile `json:"profile,omitempty"`
	Error   string              `json:"error,omitempty"` // last refresh failure, if any
}

// TaskDetailResponse is returned by GetTaskDetail
type TaskDetailResponse struct {
	Found bool         `json:"found"`
	Task  *models.Task `json:"task,omitempty"`
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{
		tokens: credentials.NewTokenStore(),
	}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	log.Println("Application starting up...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	a.cfg = cfg

	// The local cache is optional; the task center works without it
	db, err := database.Init(cfg.Database, cfg.Debug())
	if err != nil {
		log.Printf("WARNING: Task cache disabled: %v", err)
	} else {
		a.historyService = history.NewService(db)
		log.Println("History service initialized")
	}

	token, hasToken := a.tokens.Resolve(cfg.API.Token)
	a.client = api.NewClient(cfg.API.BaseURL, token, cfg.TaskCenter.FetchTimeout)
	a.notifier = notify.NewEventNotifier(ctx)

	a.profileService = profile.NewService(ctx, a.client, a.notifier, cfg.TaskCenter.FetchTimeout)
	log.Println("Profile service initialized")

	deps := taskcenter.Dependencies{
		Query:    a.client,
		Mutator:  a.client,
		Profile:  a.profileService,
		Notifier: a.notifier,
		OnUpdate: func(view taskcenter.View) {
			a.notifier.Publish(notify.EventTasksUpdated, view)
		},
	}
	if a.historyService != nil {
		deps.Recorder = a.historyService
	}
	opts := taskcenter.Options{
		PollInterval:     cfg.TaskCenter.PollInterval,
		FetchTimeout:     cfg.TaskCenter.FetchTimeout,
		PageSize:         cfg.TaskCenter.PageSize,
		WatchedTaskTypes: cfg.TaskCenter.WatchedTaskTypes,
		DetailExtractor:  api.Detail,
		IsTransient:      api.IsTransient,
	}
	a.taskCenter = taskcenter.NewRunner(func() *taskcenter.Monitor {
		return taskcenter.NewMonitor(deps, opts)
	})
	log.Println("Task center initialized")

	a.schedulerService = scheduler.NewService()
	resync := func() { a.taskCenter.Monitor().Refresh() }
	if err := a.schedulerService.Register(scheduler.JobTaskResync, cfg.Schedule.ResyncCron, resync); err != nil {
		log.Printf("WARNING: Failed to schedule task resync: %v", err)
	}
	if err := a.schedulerService.Register(scheduler.JobProfileRefresh, cfg.Schedule.ProfileRefreshCron, a.profileService.Refresh); err != nil {
		log.Printf("WARNING: Failed to schedule profile refresh: %v", err)
	}
	a.schedulerService.Start()

	if hasToken {
		a.startTaskCenter()
	} else {
		log.Println("No API token configured; task center waits for SaveAPIToken")
	}

	log.Println("Startup complete")
}

// startTaskCenter runs the first fetch in the background, or refreshes
// if the monitor is already running
func (a *App) startTaskCenter() {
	a.profileService.Refresh()
	go func() {
		if err := a.taskCenter.Start(a.ctx); err != nil {
			log.Printf("WARNING: Task center did not start: %v", err)
		}
	}()
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	log.Println("Application shutting down...")

	// Stop scheduler
	if a.schedulerService != nil {
		a.schedulerService.Stop()
	}

	if a.taskCenter != nil {
		a.taskCenter.Close()
	}

	if a.profileService != nil {
		a.profileService.Wait()
	}

	// Close database
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}

// ====================================================================================
// WAILS-BOUND METHODS - Exposed to Frontend
// ====================================================================================

// Task Center Methods

// GetTaskCenter returns the current task list and polling state
func (a *App) GetTaskCenter() taskcenter.View {
	return a.taskCenter.Monitor().View()
}

// RefreshTasks fetches the task list now, outside the poll cadence
func (a *App) RefreshTasks() {
	go a.taskCenter.Monitor().Refresh()
}

// DeleteTask deletes a task and refreshes the list on success.
// Failures are also reported through the notification event.
func (a *App) DeleteTask(taskID string) error {
	return a.taskCenter.Monitor().Delete(a.ctx, taskID)
}

// GetDeleteState reports idle, pending, succeeded or failed for a task's last delete
func (a *App) GetDeleteState(taskID string) string {
	return string(a.taskCenter.Monitor().DeleteState(taskID))
}

// GetTaskDetail fetches one task. A task that no longer exists is reported
// with Found=false rather than an error.
func (a *App) GetTaskDetail(taskID string) (*TaskDetailResponse, error) {
	task, found, err := a.taskCenter.Monitor().TaskDetail(a.ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &TaskDetailResponse{Found: false}, nil
	}
	return &TaskDetailResponse{Found: true, Task: &task}, nil
}

// ListCachedTasks returns the last persisted task list, available before the first fetch resolves
func (a *App) ListCachedTasks(limit int) ([]models.Task, error) {
	if a.historyService == nil {
		return []models.Task{}, nil
	}
	if limit <= 0 {
		limit = a.cfg.TaskCenter.PageSize
	}
	return a.historyService.List(a.ctx, limit)
}

// Profile Methods

// GetProfile returns the last fetched account profile (nil before the first
// fetch) and the error of the latest refresh attempt
func (a *App) GetProfile() ProfileResponse {
	resp := ProfileResponse{Profile: a.profileService.Current()}
	if err := a.profileService.LastError(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// RefreshProfile requests a profile refresh; the result arrives as profile:updated
func (a *App) RefreshProfile() {
	a.profileService.Refresh()
}

// Settings Methods

// SaveAPIToken stores the token in the system keychain and starts the task center
func (a *App) SaveAPIToken(token string) error {
	if err := a.tokens.Save(token); err != nil {
		return err
	}
	token, _ = a.tokens.Load()
	a.client.SetToken(token)
	log.Println("API token saved")

	a.startTaskCenter()
	return nil
}

// ClearAPIToken removes the stored token, stops polling and drops the cached task list
func (a *App) ClearAPIToken() error {
	if err := a.tokens.Delete(); err != nil {
		return err
	}
	a.client.SetToken("")
	a.taskCenter.Stop()

	if a.historyService != nil {
		if err := a.historyService.Clear(a.ctx); err != nil {
			log.Printf("WARNING: Failed to clear task cache: %v", err)
		}
	}
	log.Println("API token cleared")
	return nil
}

// ListScheduledJobs returns the background refresh jobs and their next run times
func (a *App) ListScheduledJobs() []scheduler.JobListResponse {
	return a.schedulerService.ListJobs()
}
