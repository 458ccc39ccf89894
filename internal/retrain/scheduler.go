package retrain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/detector"
)

// Interval names a retrain cadence.
type Interval string

const (
	Hourly Interval = "hourly"
	Daily  Interval = "daily"
	Weekly Interval = "weekly"
)

// Schedule describes when retrain checks run. Daily runs fire at At each
// day; weekly runs fire at At on Weekday.
type Schedule struct {
	Interval Interval
	At       string // "15:04", used by daily and weekly
	Weekday  time.Weekday
}

// ParseSchedule validates an interval/time pair. Weekly schedules run on
// Monday.
func ParseSchedule(interval, at string) (Schedule, error) {
	s := Schedule{Interval: Interval(interval), At: at, Weekday: time.Monday}
	switch s.Interval {
	case Hourly:
		return s, nil
	case Daily, Weekly:
		if _, err := time.Parse("15:04", at); err != nil {
			return Schedule{}, fmt.Errorf("invalid schedule time %q: %w", at, err)
		}
		return s, nil
	default:
		return Schedule{}, fmt.Errorf("unsupported retrain interval %q", interval)
	}
}

// Next returns the first run time strictly after the given instant.
func (s Schedule) Next(after time.Time) time.Time {
	switch s.Interval {
	case Hourly:
		return after.Truncate(time.Hour).Add(time.Hour)
	case Daily, Weekly:
		at, _ := time.Parse("15:04", s.At)
		next := time.Date(after.Year(), after.Month(), after.Day(), at.Hour(), at.Minute(), 0, 0, after.Location())
		if s.Interval == Weekly {
			for next.Weekday() != s.Weekday {
				next = next.AddDate(0, 0, 1)
			}
			if !next.After(after) {
				next = next.AddDate(0, 0, 7)
			}
			return next
		}
		if !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	default:
		return after.Add(time.Hour)
	}
}

// Scheduler runs retrain cycles on a schedule. It polls at a fixed interval
// rather than sleeping until the due time, so cancellation is observed
// promptly between checks; a retrain in progress is not preempted.
type Scheduler struct {
	orchestrator *Orchestrator
	engine       *detector.Engine
	loader       detector.ArtifactLoader
	schedule     Schedule
	poll         time.Duration
	modelPath    string
	logger       *zap.Logger
}

// NewScheduler creates a scheduler. engine may be nil when no serving engine
// runs in this process; the freshly trained artifact is then only persisted.
func NewScheduler(
	orchestrator *Orchestrator,
	engine *detector.Engine,
	loader detector.ArtifactLoader,
	schedule Schedule,
	poll time.Duration,
	modelPath string,
	logger *zap.Logger,
) *Scheduler {
	if poll <= 0 {
		poll = time.Minute
	}
	return &Scheduler{
		orchestrator: orchestrator,
		engine:       engine,
		loader:       loader,
		schedule:     schedule,
		poll:         poll,
		modelPath:    modelPath,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled, firing a retrain cycle whenever the
// schedule is due. After a successful retrain the serving engine reloads the
// new artifact; this is the only point where the served model changes.
func (s *Scheduler) Run(ctx context.Context) error {
	next := s.schedule.Next(time.Now())
	s.logger.Info("Retrain scheduler started",
		zap.String("interval", string(s.schedule.Interval)),
		zap.Time("next_run", next),
		zap.Duration("poll", s.poll))

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Retrain scheduler stopped")
			return nil
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			s.runCycle(ctx)
			next = s.schedule.Next(now)
			s.logger.Debug("Next retrain check scheduled", zap.Time("next_run", next))
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	report, err := s.orchestrator.Run(ctx, false)
	if err != nil {
		// Lifecycle errors stay in the lifecycle log; serving is unaffected.
		s.logger.Error("Scheduled retrain failed", zap.Error(err))
		return
	}
	if report == nil {
		return
	}
	if s.engine != nil {
		if err := s.engine.Reload(s.loader, s.modelPath); err != nil {
			s.logger.Error("Failed to reload freshly trained model", zap.Error(err))
		}
	}
}
