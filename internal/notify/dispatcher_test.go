package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentsync/interviewd/internal/model"
)

type flakyTransport struct {
	failures int
	calls    int
}

func (t *flakyTransport) Deliver(_ context.Context, _ Envelope) (string, error) {
	t.calls++
	if t.calls <= t.failures {
		return "", errors.New("smtp gateway unavailable")
	}
	return "msg-" + uuid.NewString(), nil
}

type memoryAttemptLog struct {
	records []*model.NotificationAttempt
}

func (l *memoryAttemptLog) Append(_ context.Context, attempt *model.NotificationAttempt) error {
	copied := *attempt
	l.records = append(l.records, &copied)
	return nil
}

func testSession() *model.Session {
	return &model.Session{
		ID:             uuid.New(),
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		InterviewerID:  "interviewer-1",
		ScheduledStart: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		DurationMin:    60,
		Type:           model.SessionTypeTechnical,
		Level:          model.SessionLevelSenior,
		Status:         model.SessionStatusScheduled,
	}
}

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestSendSucceedsAfterTransientFailures(t *testing.T) {
	transport := &flakyTransport{failures: 2}
	log := &memoryAttemptLog{}
	dispatcher := NewDispatcher(transport, log, testPolicy(), zap.NewNop())

	messageID, err := dispatcher.Send(context.Background(), model.NotificationKindInvite, testSession(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, messageID)

	require.Len(t, log.records, 3)
	require.Equal(t, model.AttemptOutcomeFailed, log.records[0].Outcome)
	require.Equal(t, model.AttemptOutcomeFailed, log.records[1].Outcome)
	require.Equal(t, model.AttemptOutcomeSent, log.records[2].Outcome)
	require.Equal(t, messageID, log.records[2].MessageID)

	for i, record := range log.records {
		require.Equal(t, i+1, record.Attempt)
		if i > 0 {
			require.False(t, record.CreatedAt.Before(log.records[i-1].CreatedAt))
		}
	}
}

func TestSendExhaustsRetries(t *testing.T) {
	transport := &flakyTransport{failures: 10}
	log := &memoryAttemptLog{}
	dispatcher := NewDispatcher(transport, log, testPolicy(), zap.NewNop())

	_, err := dispatcher.Send(context.Background(), model.NotificationKindReminder, testSession(), nil)
	require.Error(t, err)

	var deliveryErr *model.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	require.Equal(t, 3, deliveryErr.Attempts)
	require.Equal(t, "ada@example.com", deliveryErr.Recipient)

	require.Equal(t, 3, transport.calls)
	require.Len(t, log.records, 3)
	for _, record := range log.records {
		require.Equal(t, model.AttemptOutcomeFailed, record.Outcome)
		require.NotEmpty(t, record.Error)
	}
}

func TestSendRendersKnownKinds(t *testing.T) {
	session := testSession()
	for _, kind := range []model.NotificationKind{
		model.NotificationKindInvite,
		model.NotificationKindReminder,
		model.NotificationKindCancellation,
		model.NotificationKindSummary,
	} {
		envelope, err := renderEnvelope(kind, session, map[string]string{"reason": "interviewer unavailable"})
		require.NoError(t, err)
		require.Equal(t, session.CandidateEmail, envelope.To)
		require.NotEmpty(t, envelope.Subject)
		require.Contains(t, envelope.TextBody, session.CandidateName)
	}
}

func TestSendRejectsUnknownKind(t *testing.T) {
	dispatcher := NewDispatcher(&flakyTransport{}, &memoryAttemptLog{}, testPolicy(), zap.NewNop())

	_, err := dispatcher.Send(context.Background(), model.NotificationKind("carrier-pigeon"), testSession(), nil)
	require.ErrorIs(t, err, model.ErrValidation)
}
