// Package notify composes and sends session-lifecycle emails with bounded
// retry. Every attempt, successful or not, lands in the notification audit
// log before the call returns.
package notify

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/talentsync/interviewd/internal/metrics"
	"github.com/talentsync/interviewd/internal/model"
)

// AttemptLog records delivery attempts. Log failures are never fatal to the
// delivery itself.
type AttemptLog interface {
	Append(ctx context.Context, attempt *model.NotificationAttempt) error
}

// RetryPolicy bounds the dispatcher's backoff. Delay before attempt n is
// min(MaxDelay, InitialDelay * 2^n).
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1000 * time.Millisecond,
		MaxDelay:     5000 * time.Millisecond,
	}
}

type Dispatcher struct {
	transport Transport
	attempts  AttemptLog
	policy    RetryPolicy
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(transport Transport, attempts AttemptLog, policy RetryPolicy, logger *zap.Logger) *Dispatcher {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Dispatcher{
		transport: transport,
		attempts:  attempts,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// Send renders and delivers one lifecycle email. On retry exhaustion it
// returns a *model.DeliveryError; callers in the orchestrator treat that as
// non-fatal to the state transition that triggered it.
func (d *Dispatcher) Send(ctx context.Context, kind model.NotificationKind, session *model.Session, extra map[string]string) (string, error) {
	envelope, err := renderEnvelope(kind, session, extra)
	if err != nil {
		return "", err
	}

	backoff := retry.WithCappedDuration(d.policy.MaxDelay, retry.NewExponential(d.policy.InitialDelay))
	backoff = retry.WithMaxRetries(uint64(d.policy.MaxAttempts-1), backoff)

	var messageID string
	attempt := 0

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		id, deliverErr := d.transport.Deliver(ctx, envelope)
		d.logAttempt(ctx, kind, session, attempt, id, deliverErr)
		if deliverErr != nil {
			return retry.RetryableError(deliverErr)
		}
		messageID = id
		return nil
	})

	if err != nil {
		d.logger.Warn("Notification delivery exhausted",
			zap.String("session_id", session.ID.String()),
			zap.String("kind", string(kind)),
			zap.String("recipient", envelope.To),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return "", &model.DeliveryError{
			Recipient: envelope.To,
			Kind:      kind,
			Attempts:  attempt,
			Err:       err,
		}
	}

	d.logger.Info("Notification sent",
		zap.String("session_id", session.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("recipient", envelope.To),
		zap.String("message_id", messageID),
		zap.Int("attempts", attempt),
	)
	return messageID, nil
}

func (d *Dispatcher) logAttempt(ctx context.Context, kind model.NotificationKind, session *model.Session, attempt int, messageID string, deliverErr error) {
	record := &model.NotificationAttempt{
		SessionID: session.ID,
		Recipient: session.CandidateEmail,
		Kind:      kind,
		Attempt:   attempt,
		Outcome:   model.AttemptOutcomeSent,
		MessageID: messageID,
		CreatedAt: d.now(),
	}
	if deliverErr != nil {
		record.Outcome = model.AttemptOutcomeFailed
		record.Error = deliverErr.Error()
	}
	metrics.NotificationAttempts.WithLabelValues(string(record.Outcome)).Inc()

	if err := d.attempts.Append(ctx, record); err != nil {
		d.logger.Error("Failed to append notification attempt",
			zap.String("session_id", session.ID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
