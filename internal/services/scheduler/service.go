package scheduler

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Service runs periodic background refreshes on cron schedules
type Service struct {
	cron   *cron.Cron
	jobs   map[string]registeredJob // name -> job
	jobsMu sync.RWMutex
}

type registeredJob struct {
	entryID cron.EntryID
	cron    string
}

// NewService creates a new scheduler service
func NewService() *Service {
	// Create cron scheduler with seconds support
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	return &Service{
		cron: c,
		jobs: make(map[string]registeredJob),
	}
}

// Start begins running registered jobs
func (s *Service) Start() {
	s.cron.Start()
	s.jobsMu.RLock()
	log.Printf("[scheduler] Started with %d jobs", len(s.jobs))
	s.jobsMu.RUnlock()
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		log.Println("[scheduler] Stopped")
	}
}

// Register adds or replaces a named job. Both 5-field and 6-field (seconds)
// expressions are accepted; an empty expression disables the job.
func (s *Service) Register(name, cronExpr string, run func()) error {
	if name == "" || run == nil {
		return fmt.Errorf("name and run function are required")
	}
	if strings.TrimSpace(cronExpr) == "" {
		s.Remove(name)
		log.Printf("[scheduler] Job %s disabled", name)
		return nil
	}

	normalizedCron, err := normalizeCron(cronExpr)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	entryID, err := s.cron.AddFunc(normalizedCron, func() {
		log.Printf("[scheduler] Executing job: %s", name)
		run()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}

	s.jobsMu.Lock()
	if existing, exists := s.jobs[name]; exists {
		s.cron.Remove(existing.entryID)
	}
	s.jobs[name] = registeredJob{entryID: entryID, cron: normalizedCron}
	s.jobsMu.Unlock()

	log.Printf("[scheduler] Scheduled job: %s with cron: %s", name, normalizedCron)
	return nil
}

// Remove unregisters a job if present
func (s *Service) Remove(name string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if job, exists := s.jobs[name]; exists {
		s.cron.Remove(job.entryID)
		delete(s.jobs, name)
	}
}

// ListJobs returns registered jobs sorted by name
func (s *Service) ListJobs() []JobListResponse {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	responses := make([]JobListResponse, 0, len(s.jobs))
	for name, job := range s.jobs {
		resp := JobListResponse{Name: name, Cron: job.cron}
		entry := s.cron.Entry(job.entryID)
		if !entry.Prev.IsZero() {
			prev := entry.Prev.Format(time.RFC3339)
			resp.LastRun = &prev
		}
		if !entry.Next.IsZero() {
			next := entry.Next.Format(time.RFC3339)
			resp.NextRun = &next
		}
		responses = append(responses, resp)
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].Name < responses[j].Name })
	return responses
}

// normalizeCron converts 5-field cron to 6-field format by prepending seconds
// 5-field: "minute hour day month dow" (standard cron)
// 6-field: "second minute hour day month dow" (robfig/cron with WithSeconds)
func normalizeCron(cronExpr string) (string, error) {
	cronExpr = strings.TrimSpace(cronExpr)

	// Descriptors such as @every 5m are understood by the parser as-is
	if strings.HasPrefix(cronExpr, "@") {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cronExpr); err != nil {
			return "", fmt.Errorf("invalid cron descriptor: %w", err)
		}
		return cronExpr, nil
	}

	fields := strings.Fields(cronExpr)
	if len(fields) == 6 {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cronExpr); err == nil {
			return cronExpr, nil
		}
	}

	if len(fields) == 5 {
		if _, err := cron.ParseStandard(cronExpr); err != nil {
			return "", fmt.Errorf("invalid 5-field cron expression: %w", err)
		}
		// Prepend seconds (0 = run at 0 seconds of the minute)
		return "0 " + cronExpr, nil
	}

	return "", fmt.Errorf("invalid cron expression: expected 5 or 6 fields, got %d", len(fields))
}
