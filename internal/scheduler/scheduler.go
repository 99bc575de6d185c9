package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hadithhub/hadith-backend/internal/logger"
	"github.com/hadithhub/hadith-backend/internal/repos"
	"github.com/hadithhub/hadith-backend/internal/services"
)

type Config struct {
	GenerationSchedule  string
	CleanupSchedule     string
	StatsSchedule       string
	PatternSchedule     string
	ActiveUserWindow    time.Duration
	BulkGenerationLimit int
	StatsBatchLimit     int
}

func DefaultConfig() Config {
	return Config{
		GenerationSchedule:  "0 */6 * * *",
		CleanupSchedule:     "0 3 * * *",
		StatsSchedule:       "@hourly",
		PatternSchedule:     "0 */12 * * *",
		ActiveUserWindow:    30 * 24 * time.Hour,
		BulkGenerationLimit: 15,
		StatsBatchLimit:     100,
	}
}

type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Running  bool      `json:"running"`
	PrevRun  time.Time `json:"prev_run,omitempty"`
	NextRun  time.Time `json:"next_run,omitempty"`
}

type Status struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
}

// Scheduler owns the four periodic jobs that keep statistics, patterns
// and recommendations fresh across the user base. It assumes a single
// instance per store; there is no leader election.
type Scheduler struct {
	log             *logger.Logger
	cfg             Config
	recommendations services.RecommendationService
	statistics      services.StatisticsService
	patterns        services.PatternService
	interactionRepo repos.InteractionRepo

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
	entries map[string]cron.EntryID
	active  map[string]*atomic.Bool
	specs   []jobSpec
}

type jobSpec struct {
	name     string
	schedule string
	run      func(ctx context.Context)
}

func New(
	baseLog *logger.Logger,
	cfg Config,
	recommendations services.RecommendationService,
	statistics services.StatisticsService,
	patterns services.PatternService,
	interactionRepo repos.InteractionRepo,
) *Scheduler {
	s := &Scheduler{
		log:             baseLog.With("component", "Scheduler"),
		cfg:             cfg,
		recommendations: recommendations,
		statistics:      statistics,
		patterns:        patterns,
		interactionRepo: interactionRepo,
		entries:         map[string]cron.EntryID{},
		active:          map[string]*atomic.Bool{},
	}
	s.specs = []jobSpec{
		{name: "recommendation_refresh", schedule: cfg.GenerationSchedule, run: s.refreshRecommendations},
		{name: "expired_cleanup", schedule: cfg.CleanupSchedule, run: s.cleanupExpired},
		{name: "statistics_refresh", schedule: cfg.StatsSchedule, run: s.refreshStatistics},
		{name: "pattern_refresh", schedule: cfg.PatternSchedule, run: s.refreshPatterns},
	}
	return s
}

// Start registers all jobs and begins triggering them. Calling it while
// already running is a logged no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Info("scheduler already running")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(cron.WithLocation(time.UTC))

	for _, spec := range s.specs {
		flag := &atomic.Bool{}
		s.active[spec.name] = flag

		entryID, err := c.AddFunc(spec.schedule, func() {
			if !flag.CompareAndSwap(false, true) {
				s.log.Warn("job still running, skipping trigger", "job", spec.name)
				return
			}
			defer flag.Store(false)
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("job panic", "job", spec.name, "panic", r)
				}
			}()
			spec.run(ctx)
		})
		if err != nil {
			cancel()
			return err
		}
		s.entries[spec.name] = entryID
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.running = true
	s.log.Info("scheduler started", "jobs", len(s.specs))
	return nil
}

// Stop tears down all registered jobs; a no-op when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.cancel()
	s.cron = nil
	s.cancel = nil
	s.entries = map[string]cron.EntryID{}
	s.active = map[string]*atomic.Bool{}
	s.running = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{Running: s.running}
	for _, spec := range s.specs {
		js := JobStatus{Name: spec.name, Schedule: spec.schedule}
		if flag, ok := s.active[spec.name]; ok {
			js.Running = flag.Load()
		}
		if s.cron != nil {
			if entryID, ok := s.entries[spec.name]; ok {
				entry := s.cron.Entry(entryID)
				js.PrevRun = entry.Prev
				js.NextRun = entry.Next
			}
		}
		status.Jobs = append(status.Jobs, js)
	}
	return status
}

func (s *Scheduler) refreshRecommendations(ctx context.Context) {
	since := time.Now().UTC().Add(-s.cfg.ActiveUserWindow)
	users, err := s.interactionRepo.ActiveUserIDs(ctx, nil, since)
	if err != nil {
		s.log.Warn("active user lookup failed", "job", "recommendation_refresh", "error", err)
		return
	}

	refreshed := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.recommendations.Generate(ctx, userID, s.cfg.BulkGenerationLimit); err != nil {
			s.log.Warn("bulk generation failed", "user_id", userID, "error", err)
			continue
		}
		refreshed++
	}
	s.log.Info("recommendation refresh complete", "users", len(users), "refreshed", refreshed)
}

func (s *Scheduler) cleanupExpired(ctx context.Context) {
	deleted, err := s.recommendations.CleanupExpired(ctx)
	if err != nil {
		s.log.Warn("expired cleanup failed", "error", err)
		return
	}
	s.log.Info("expired cleanup complete", "deleted", deleted)
}

func (s *Scheduler) refreshStatistics(ctx context.Context) {
	refreshed, err := s.statistics.RefreshTopBatch(ctx, s.cfg.StatsBatchLimit)
	if err != nil {
		s.log.Warn("statistics refresh failed", "error", err)
		return
	}
	s.log.Info("statistics refresh complete", "refreshed", refreshed)
}

func (s *Scheduler) refreshPatterns(ctx context.Context) {
	since := time.Now().UTC().Add(-s.cfg.ActiveUserWindow)
	users, err := s.interactionRepo.ActiveUserIDs(ctx, nil, since)
	if err != nil {
		s.log.Warn("active user lookup failed", "job", "pattern_refresh", "error", err)
		return
	}

	updated := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		// The periodic sweep bypasses the 30-minute throttle on purpose.
		if err := s.patterns.Update(ctx, userID); err != nil {
			s.log.Warn("pattern refresh failed", "user_id", userID, "error", err)
			continue
		}
		updated++
	}
	s.log.Info("pattern refresh complete", "users", len(users), "updated", updated)
}
