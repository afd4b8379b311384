package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentsync/interviewd/internal/model"
	"github.com/talentsync/interviewd/internal/repository/base"
)

const sessionColumns = `
	id, candidate_name, candidate_email, interviewer_id, scheduled_start,
	duration_min, type, level, question_count, status, created_at, updated_at,
	completed_at, cancelled_at, cancelled_by, last_reminder_at, summary, feedback
`

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

// Create inserts a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, candidate_name, candidate_email, interviewer_id, scheduled_start,
			duration_min, type, level, question_count, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		session.ID,
		session.CandidateName,
		session.CandidateEmail,
		session.InterviewerID,
		session.ScheduledStart,
		session.DurationMin,
		session.Type,
		session.Level,
		session.QuestionCount,
		session.Status,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("%w: create session: %v", model.ErrStore, err)
	}

	return nil
}

// GetByID returns the session or nil when it does not exist.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT` + sessionColumns + `FROM sessions WHERE id = $1`

	session, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get session by id: %v", model.ErrStore, err)
	}

	return session, nil
}

// ListByInterviewer returns the interviewer's sessions, newest first.
// An empty status matches all statuses.
func (r *SessionRepository) ListByInterviewer(ctx context.Context, interviewerID string, status model.SessionStatus, limit int) ([]*model.Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE interviewer_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.Query(ctx, query, interviewerID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", model.ErrStore, err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", model.ErrStore, err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// MarkCancelled moves a non-terminal session to cancelled. The status guard
// in the WHERE clause keeps the transition one-directional even under
// concurrent callers.
func (r *SessionRepository) MarkCancelled(ctx context.Context, id uuid.UUID, cancelledBy string, at time.Time) error {
	query := `
		UPDATE sessions
		SET status = 'cancelled', cancelled_at = $2, cancelled_by = $3, updated_at = $2
		WHERE id = $1 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, id, at, cancelledBy)
	if err != nil {
		return fmt.Errorf("%w: mark cancelled: %v", model.ErrStore, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: session is not in a cancellable state", model.ErrConflict)
	}

	return nil
}

// MarkCompleted moves a scheduled session to completed with its aggregated
// summary.
func (r *SessionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, summary *model.Summary, at time.Time) error {
	query := `
		UPDATE sessions
		SET status = 'completed', summary = $2, completed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, id, summary, at)
	if err != nil {
		return fmt.Errorf("%w: mark completed: %v", model.ErrStore, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: session is not in a completable state", model.ErrConflict)
	}

	return nil
}

// StampReminder records that a reminder was dispatched.
func (r *SessionRepository) StampReminder(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE sessions SET last_reminder_at = $2, updated_at = $2 WHERE id = $1`

	if _, err := r.ExecAffected(ctx, query, id, at); err != nil {
		return fmt.Errorf("%w: stamp reminder: %v", model.ErrStore, err)
	}
	return nil
}

// SetFeedback stores the interviewer's assessment.
func (r *SessionRepository) SetFeedback(ctx context.Context, id uuid.UUID, feedback *model.Feedback) error {
	query := `UPDATE sessions SET feedback = $2, updated_at = now() WHERE id = $1`

	if _, err := r.ExecAffected(ctx, query, id, feedback); err != nil {
		return fmt.Errorf("%w: set feedback: %v", model.ErrStore, err)
	}
	return nil
}

// ListDueForReminder returns scheduled, never-reminded sessions starting
// inside (windowStart, windowEnd].
func (r *SessionRepository) ListDueForReminder(ctx context.Context, windowStart, windowEnd time.Time) ([]*model.Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE status = 'scheduled'
		  AND last_reminder_at IS NULL
		  AND scheduled_start > $1
		  AND scheduled_start <= $2
		ORDER BY scheduled_start
	`

	rows, err := r.Query(ctx, query, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: list due for reminder: %v", model.ErrStore, err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan session: %v", model.ErrStore, err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var session model.Session
	err := row.Scan(
		&session.ID,
		&session.CandidateName,
		&session.CandidateEmail,
		&session.InterviewerID,
		&session.ScheduledStart,
		&session.DurationMin,
		&session.Type,
		&session.Level,
		&session.QuestionCount,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.CompletedAt,
		&session.CancelledAt,
		&session.CancelledBy,
		&session.LastReminderAt,
		&session.Summary,
		&session.Feedback,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
