package app

import (
	"context"
	"time"

	"github.com/talentsync/interviewd/internal/service"
	"go.uber.org/zap"
)

// ReminderJob periodically sweeps for sessions that are due a reminder
// email and hands them to the orchestrator. There is no persisted timer
// object: the sweep recomputes the due set from the store every run.
type ReminderJob struct {
	sessions *service.SessionService
	lead     time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewReminderJob(sessions *service.SessionService, lead, interval time.Duration, logger *zap.Logger) *ReminderJob {
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReminderJob{
		sessions: sessions,
		lead:     lead,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop or context cancellation.
func (j *ReminderJob) Start(ctx context.Context) {
	j.logger.Info("Starting reminder job",
		zap.Duration("lead", j.lead),
		zap.Duration("interval", j.interval),
	)
	go j.run(ctx)
}

func (j *ReminderJob) Stop() {
	j.logger.Info("Stopping reminder job")
	close(j.stopChan)
}

func (j *ReminderJob) run(ctx context.Context) {
	// First sweep right away, then on the ticker.
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.stopChan:
			j.logger.Info("Reminder job stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Reminder job cancelled")
			return
		}
	}
}

func (j *ReminderJob) sweep(ctx context.Context) {
	due, err := j.sessions.DueForReminder(ctx, j.lead)
	if err != nil {
		j.logger.Error("Reminder sweep failed", zap.Error(err))
		return
	}

	for _, session := range due {
		if err := j.sessions.SendReminder(ctx, session.ID); err != nil {
			j.logger.Warn("Failed to send reminder",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
		}
	}

	if len(due) > 0 {
		j.logger.Info("Reminder sweep completed", zap.Int("sent", len(due)))
	}
}
