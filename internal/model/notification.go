package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindInvite       NotificationKind = "invite"
	NotificationKindReminder     NotificationKind = "reminder"
	NotificationKindCancellation NotificationKind = "cancellation"
	NotificationKindSummary      NotificationKind = "summary"
)

type AttemptOutcome string

const (
	AttemptOutcomeSent   AttemptOutcome = "sent"
	AttemptOutcomeFailed AttemptOutcome = "failed"
)

// NotificationAttempt is one delivery try, logged whether it succeeded or
// not. The table is an append-only audit trail; rows are never updated.
type NotificationAttempt struct {
	ID        int64            `json:"id"`
	SessionID uuid.UUID        `json:"session_id"`
	Recipient string           `json:"recipient"`
	Kind      NotificationKind `json:"kind"`
	Attempt   int              `json:"attempt"`
	Outcome   AttemptOutcome   `json:"outcome"`
	MessageID string           `json:"message_id,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// AccessDecision is computed per request and never persisted.
type AccessDecision struct {
	Allow  bool         `json:"allow"`
	Reason DenialReason `json:"reason,omitempty"`
}

type DenialReason string

const (
	DenyCancelled     DenialReason = "cancelled"
	DenyNotOwner      DenialReason = "not-owner"
	DenyOutsideWindow DenialReason = "outside-window"
	DenyNotFound      DenialReason = "not-found"
)
