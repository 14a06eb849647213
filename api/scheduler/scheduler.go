package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/databases"
)

const (
	resumeHandoffsJob = "resume_handoffs_job"
	resumeHandoffsTTL = 2 * time.Minute
)

// Resumer finishes hand-offs that were interrupted
type Resumer interface {
	ResumePending(ctx context.Context) error
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron       *cron.Cron
	Handoffs   Resumer
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(handoffs Resumer, lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Handoffs:   handoffs,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("@every 1m", s.resumeHandoffs)
	if err != nil {
		zap.S().Errorw("failed to register resume handoffs job", "error", err)
	}

	s.cron.Start()
	zap.S().Infow("scheduler started", "instance", s.instanceID)
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// resumeHandoffs retries journaled hand-offs left pending by a crashed
// or failed logout
func (s *Scheduler) resumeHandoffs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, resumeHandoffsJob, s.instanceID, resumeHandoffsTTL)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for resume handoffs job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("resume handoffs job already running on another instance, skipping")
		return
	}
	defer func() {
		if err := s.LockDB.ReleaseLock(ctx, resumeHandoffsJob, s.instanceID); err != nil {
			zap.S().Warnw("failed to release resume handoffs lock", "error", err)
		}
	}()

	if err := s.Handoffs.ResumePending(ctx); err != nil {
		zap.S().Errorw("failed to resume pending handoffs", "instance", s.instanceID, "error", err)
	}
}
