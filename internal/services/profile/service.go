package profile

import (
	"context"
	"log"
	"sync"
	"time"

	"optiondash-desktop/internal/models"
	"optiondash-desktop/internal/services/notify"
)

// Fetcher loads the signed-in user's profile from the backend
type Fetcher interface {
	GetProfile(ctx context.Context) (*models.UserProfile, error)
}

// Service keeps the latest user profile (plan, report quota and usage)
type Service struct {
	ctx       context.Context
	fetcher   Fetcher
	publisher notify.Publisher
	timeout   time.Duration

	mu         sync.RWMutex
	current    *models.UserProfile
	lastErr    error
	refreshing bool
	queued     bool
	wg         sync.WaitGroup
}

// NewService creates a new profile service
func NewService(ctx context.Context, fetcher Fetcher, publisher notify.Publisher, timeout time.Duration) *Service {
	if publisher == nil {
		publisher = notify.LogNotifier{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		ctx:       ctx,
		fetcher:   fetcher,
		publisher: publisher,
		timeout:   timeout,
	}
}

// Refresh re-fetches the profile in the background. While a fetch is running,
// further calls collapse into a single follow-up fetch.
func (s *Service) Refresh() {
	s.mu.Lock()
	if s.refreshing {
		s.queued = true
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run()
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		s.load()

		s.mu.Lock()
		if !s.queued || s.ctx.Err() != nil {
			s.refreshing = false
			s.queued = false
			s.mu.Unlock()
			return
		}
		s.queued = false
		s.mu.Unlock()
	}
}

func (s *Service) load() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	profile, err := s.fetcher.GetProfile(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.current = profile
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[profile] WARNING: Failed to refresh profile: %v", err)
		return
	}

	log.Printf("[profile] Refreshed: %d/%d reports used", profile.ReportsUsed, profile.ReportsQuota)
	s.publisher.Publish(notify.EventProfileUpdated, *profile)
}

// Current returns the last successfully fetched profile, or nil
func (s *Service) Current() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	p := *s.current
	return &p
}

// LastError returns the error from the most recent fetch attempt
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Wait blocks until no refresh is running
func (s *Service) Wait() {
	s.wg.Wait()
}
