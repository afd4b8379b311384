package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentsync/interviewd/internal/model"
)

const defaultQuestionCount = 5

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SessionStore is the narrow adapter over the persistent session records.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ListByInterviewer(ctx context.Context, interviewerID string, status model.SessionStatus, limit int) ([]*model.Session, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, cancelledBy string, at time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, summary *model.Summary, at time.Time) error
	StampReminder(ctx context.Context, id uuid.UUID, at time.Time) error
	SetFeedback(ctx context.Context, id uuid.UUID, feedback *model.Feedback) error
	ListDueForReminder(ctx context.Context, windowStart, windowEnd time.Time) ([]*model.Session, error)
}

// EventStore reads the ordered proctoring log for summary aggregation.
type EventStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.ProctoringEvent, error)
}

// Notifier is the dispatcher seam. Errors returned here are logged and
// swallowed: an email must never roll back a session transition.
type Notifier interface {
	Send(ctx context.Context, kind model.NotificationKind, session *model.Session, extra map[string]string) (string, error)
}

// Moderator screens free-text feedback. It fails soft: on collaborator
// error the text is treated as appropriate.
type Moderator interface {
	Moderate(ctx context.Context, text string) (bool, error)
}

// SessionService is the lifecycle orchestrator: it owns every status
// transition and emits the side effects each transition requires.
type SessionService struct {
	sessions  SessionStore
	events    EventStore
	notifier  Notifier
	moderator Moderator
	logger    *zap.Logger
	now       func() time.Time

	dispatchTimeout time.Duration
}

func NewSessionService(sessions SessionStore, events EventStore, notifier Notifier, moderator Moderator, logger *zap.Logger) *SessionService {
	return &SessionService{
		sessions:        sessions,
		events:          events,
		notifier:        notifier,
		moderator:       moderator,
		logger:          logger,
		now:             time.Now,
		dispatchTimeout: 30 * time.Second,
	}
}

// ScheduleInput carries everything needed to create a session.
type ScheduleInput struct {
	CandidateName  string
	CandidateEmail string
	InterviewerID  string
	Start          time.Time
	DurationMin    int
	Type           model.SessionType
	Level          model.SessionLevel
	QuestionCount  int
}

// Schedule creates a session and fires the invite email in the background.
// The session is returned as soon as the store write succeeds; invite
// delivery failure is logged, never propagated.
func (s *SessionService) Schedule(ctx context.Context, input ScheduleInput) (*model.Session, error) {
	if err := validateSchedule(input, s.now()); err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:             uuid.New(),
		CandidateName:  input.CandidateName,
		CandidateEmail: input.CandidateEmail,
		InterviewerID:  input.InterviewerID,
		ScheduledStart: input.Start.UTC(),
		DurationMin:    input.DurationMin,
		Type:           input.Type,
		Level:          input.Level,
		QuestionCount:  input.QuestionCount,
		Status:         model.SessionStatusScheduled,
	}
	if session.QuestionCount <= 0 {
		session.QuestionCount = defaultQuestionCount
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("Session scheduled",
		zap.String("session_id", session.ID.String()),
		zap.String("interviewer_id", session.InterviewerID),
		zap.Time("start", session.ScheduledStart),
	)

	s.dispatchAsync(model.NotificationKindInvite, session, nil)

	return session, nil
}

// Get loads a session with its ordered event log.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	session.Events = events

	return session, nil
}

// List returns the interviewer's sessions, optionally filtered by status.
func (s *SessionService) List(ctx context.Context, interviewerID string, status model.SessionStatus, limit int) ([]*model.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.sessions.ListByInterviewer(ctx, interviewerID, status, limit)
}

// Cancel moves a scheduled session to cancelled and fires the cancellation
// email. Only the owning interviewer may cancel.
func (s *SessionService) Cancel(ctx context.Context, id uuid.UUID, actorID, reason string) (*model.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.InterviewerID != actorID {
		return nil, fmt.Errorf("%w: session belongs to another interviewer", model.ErrForbidden)
	}
	if session.Terminal() {
		return nil, fmt.Errorf("%w: session is already %s", model.ErrConflict, session.Status)
	}

	now := s.now().UTC()
	if err := s.sessions.MarkCancelled(ctx, id, actorID, now); err != nil {
		return nil, fmt.Errorf("mark cancelled: %w", err)
	}

	session.Status = model.SessionStatusCancelled
	session.CancelledAt = &now
	session.CancelledBy = actorID
	session.UpdatedAt = now

	s.logger.Info("Session cancelled",
		zap.String("session_id", id.String()),
		zap.String("cancelled_by", actorID),
	)

	extra := map[string]string{}
	if reason != "" {
		extra["reason"] = reason
	}
	s.dispatchAsync(model.NotificationKindCancellation, session, extra)

	return session, nil
}

// Complete moves a session to completed, storing the aggregated proctoring
// summary. A repeat call on an already completed session is a no-op that
// returns the prior record; duplicate client calls are expected.
func (s *SessionService) Complete(ctx context.Context, id uuid.UUID, notes string) (*model.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SessionStatusCompleted {
		return session, nil
	}
	if session.Status == model.SessionStatusCancelled {
		return nil, fmt.Errorf("%w: cannot complete a cancelled session", model.ErrConflict)
	}

	events, err := s.events.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	summary := aggregateSummary(events, notes)

	now := s.now().UTC()
	if err := s.sessions.MarkCompleted(ctx, id, summary, now); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	session.Status = model.SessionStatusCompleted
	session.Summary = summary
	session.CompletedAt = &now
	session.UpdatedAt = now

	s.logger.Info("Session completed",
		zap.String("session_id", id.String()),
		zap.Int("event_count", summary.EventCount),
		zap.Int("detected_count", summary.DetectedCount),
	)

	s.dispatchAsync(model.NotificationKindSummary, session, nil)

	return session, nil
}

// SendReminder dispatches the reminder email and stamps the session. The
// only state change is the reminder stamp; delivery failure is logged and
// swallowed, and the session is stamped either way so a failed reminder is
// not re-driven on the next sweep.
func (s *SessionService) SendReminder(ctx context.Context, id uuid.UUID) error {
	session, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if session.Status != model.SessionStatusScheduled {
		return fmt.Errorf("%w: cannot remind a %s session", model.ErrConflict, session.Status)
	}

	if err := s.sessions.StampReminder(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("stamp reminder: %w", err)
	}

	if _, err := s.notifier.Send(ctx, model.NotificationKindReminder, session, nil); err != nil {
		s.logger.Warn("Reminder delivery failed",
			zap.String("session_id", id.String()),
			zap.Error(err),
		)
	}

	return nil
}

// DueForReminder returns scheduled sessions whose start falls inside the
// reminder lead window and which have not been reminded yet.
func (s *SessionService) DueForReminder(ctx context.Context, lead time.Duration) ([]*model.Session, error) {
	now := s.now().UTC()
	return s.sessions.ListDueForReminder(ctx, now, now.Add(lead))
}

// SubmitFeedback stores the interviewer's assessment. Feedback notes pass
// through the moderation collaborator, which fails soft.
func (s *SessionService) SubmitFeedback(ctx context.Context, id uuid.UUID, actorID string, feedback *model.Feedback) (*model.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.InterviewerID != actorID {
		return nil, fmt.Errorf("%w: session belongs to another interviewer", model.ErrForbidden)
	}
	if session.Status == model.SessionStatusCancelled {
		return nil, fmt.Errorf("%w: cannot leave feedback on a cancelled session", model.ErrConflict)
	}

	if feedback.Notes != "" {
		flagged, err := s.moderator.Moderate(ctx, feedback.Notes)
		if err != nil {
			s.logger.Warn("Feedback moderation unavailable, accepting as-is",
				zap.String("session_id", id.String()),
				zap.Error(err),
			)
		} else if flagged {
			return nil, fmt.Errorf("%w: feedback notes were flagged by moderation", model.ErrValidation)
		}
	}

	feedback.SubmittedBy = actorID
	feedback.SubmittedAt = s.now().UTC()

	if err := s.sessions.SetFeedback(ctx, id, feedback); err != nil {
		return nil, fmt.Errorf("set feedback: %w", err)
	}

	session.Feedback = feedback

	s.logger.Info("Feedback submitted",
		zap.String("session_id", id.String()),
		zap.String("submitted_by", actorID),
	)

	return session, nil
}

func (s *SessionService) load(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", model.ErrNotFound, id)
	}
	return session, nil
}

// dispatchAsync fires a lifecycle email without blocking the caller. The
// session transition is already durable; delivery errors are logged and
// discarded here, never propagated.
func (s *SessionService) dispatchAsync(kind model.NotificationKind, session *model.Session, extra map[string]string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		if _, err := s.notifier.Send(ctx, kind, session, extra); err != nil {
			s.logger.Warn("Background notification failed",
				zap.String("session_id", session.ID.String()),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}()
}

func validateSchedule(input ScheduleInput, now time.Time) error {
	switch {
	case input.CandidateName == "":
		return fmt.Errorf("%w: candidate name is required", model.ErrValidation)
	case input.CandidateEmail == "":
		return fmt.Errorf("%w: candidate email is required", model.ErrValidation)
	case !emailPattern.MatchString(input.CandidateEmail):
		return fmt.Errorf("%w: candidate email is malformed", model.ErrValidation)
	case input.InterviewerID == "":
		return fmt.Errorf("%w: interviewer id is required", model.ErrValidation)
	case input.Start.IsZero() || !input.Start.After(now):
		return fmt.Errorf("%w: start must be in the future", model.ErrValidation)
	case input.DurationMin <= 0:
		return fmt.Errorf("%w: duration must be positive", model.ErrValidation)
	case input.Type == "":
		return fmt.Errorf("%w: session type is required", model.ErrValidation)
	case input.Level == "":
		return fmt.Errorf("%w: session level is required", model.ErrValidation)
	}
	return nil
}

func aggregateSummary(events []*model.ProctoringEvent, notes string) *model.Summary {
	summary := &model.Summary{
		EventCount: len(events),
		Notes:      notes,
	}
	for _, event := range events {
		if event.Detected {
			summary.DetectedCount++
		}
		if event.Confidence > summary.MaxConfidence {
			summary.MaxConfidence = event.Confidence
		}
	}
	return summary
}
