package model

import (
	"time"

	"github.com/google/uuid"
)

type SignalKind string

const (
	SignalKindVisual SignalKind = "visual" // Webcam frame description
	SignalKindAudio  SignalKind = "audio"  // Transcribed speech fragment
)

// ProctoringEvent is one scored integrity signal. Events are append-only and
// ordered by receipt; Seq is assigned by the store and never reused.
type ProctoringEvent struct {
	Seq        int64      `json:"seq"`
	SessionID  uuid.UUID  `json:"session_id"`
	Kind       SignalKind `json:"kind"`
	Analysis   string     `json:"analysis"`
	Detected   bool       `json:"detected"`
	Confidence float64    `json:"confidence"`
	Indicators []string   `json:"indicators"`
	ReceivedAt time.Time  `json:"received_at"`
}

// HighPriority reports whether the event should be surfaced immediately to
// the interviewer in addition to the ordered log.
func (e *ProctoringEvent) HighPriority() bool {
	return e.Confidence > 0.8
}
