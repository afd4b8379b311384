package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentsync/interviewd/internal/model"
	"github.com/talentsync/interviewd/internal/repository/base"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(pool)}
}

// Append records one delivery attempt. The audit trail is append-only;
// rows are never mutated.
func (r *NotificationRepository) Append(ctx context.Context, attempt *model.NotificationAttempt) error {
	query := `
		INSERT INTO notification_attempts (
			session_id, recipient, kind, attempt, outcome, message_id, error, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.QueryRow(
		ctx, query,
		attempt.SessionID,
		attempt.Recipient,
		attempt.Kind,
		attempt.Attempt,
		attempt.Outcome,
		attempt.MessageID,
		attempt.Error,
		attempt.CreatedAt,
	).Scan(&attempt.ID)

	if err != nil {
		return fmt.Errorf("%w: append notification attempt: %v", model.ErrStore, err)
	}

	return nil
}

// ListBySession returns the audit trail for one session, oldest first.
func (r *NotificationRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.NotificationAttempt, error) {
	query := `
		SELECT id, session_id, recipient, kind, attempt, outcome, message_id, error, created_at
		FROM notification_attempts
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list notification attempts: %v", model.ErrStore, err)
	}
	defer rows.Close()

	var attempts []*model.NotificationAttempt
	for rows.Next() {
		var attempt model.NotificationAttempt
		err := rows.Scan(
			&attempt.ID,
			&attempt.SessionID,
			&attempt.Recipient,
			&attempt.Kind,
			&attempt.Attempt,
			&attempt.Outcome,
			&attempt.MessageID,
			&attempt.Error,
			&attempt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan notification attempt: %v", model.ErrStore, err)
		}
		attempts = append(attempts, &attempt)
	}

	return attempts, rows.Err()
}
