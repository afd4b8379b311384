package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentsync/interviewd/internal/model"
	"github.com/talentsync/interviewd/internal/repository/base"
)

type EventRepository struct {
	*base.Repository
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{Repository: base.NewRepository(pool)}
}

// Append adds one scored event to the session's log. Seq is assigned by the
// store and defines receipt order; rows are never updated or deleted.
func (r *EventRepository) Append(ctx context.Context, event *model.ProctoringEvent) error {
	query := `
		INSERT INTO proctoring_events (
			session_id, kind, analysis, detected, confidence, indicators, received_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`

	err := r.QueryRow(
		ctx, query,
		event.SessionID,
		event.Kind,
		event.Analysis,
		event.Detected,
		event.Confidence,
		event.Indicators,
		event.ReceivedAt,
	).Scan(&event.Seq)

	if err != nil {
		return fmt.Errorf("%w: append proctoring event: %v", model.ErrStore, err)
	}

	return nil
}

// ListBySession returns the session's events in receipt order.
func (r *EventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.ProctoringEvent, error) {
	query := `
		SELECT seq, session_id, kind, analysis, detected, confidence, indicators, received_at
		FROM proctoring_events
		WHERE session_id = $1
		ORDER BY seq
	`

	rows, err := r.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list proctoring events: %v", model.ErrStore, err)
	}
	defer rows.Close()

	var events []*model.ProctoringEvent
	for rows.Next() {
		var event model.ProctoringEvent
		err := rows.Scan(
			&event.Seq,
			&event.SessionID,
			&event.Kind,
			&event.Analysis,
			&event.Detected,
			&event.Confidence,
			&event.Indicators,
			&event.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan proctoring event: %v", model.ErrStore, err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
