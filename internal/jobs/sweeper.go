package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stillpath/stillpath-backend/internal/platform/logger"
	"github.com/stillpath/stillpath-backend/internal/services"
)

// Sweeper periodically expires enrollments of ended challenges. Sweep
// errors are logged and the schedule keeps running.
type Sweeper struct {
	log        *logger.Logger
	challenges services.ChallengeService
	schedule   string
	cron       *cron.Cron
}

func NewSweeper(log *logger.Logger, challenges services.ChallengeService, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@every 10m"
	}
	return &Sweeper{
		log:        log.With("job", "EnrollmentSweeper"),
		challenges: challenges,
		schedule:   schedule,
	}
}

func (s *Sweeper) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	s.log.Info("enrollment sweeper started", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := s.challenges.ExpireSweep(ctx); err != nil {
		s.log.Error("enrollment sweep failed", "error", err)
	}
}

func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("enrollment sweeper stopped")
}
