package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled" // Waiting for its access window
	SessionStatusCompleted SessionStatus = "completed" // Finished by the interviewer
	SessionStatusCancelled SessionStatus = "cancelled" // Cancelled before completion
)

// "active" is intentionally not a stored status: a session is active when it
// is still scheduled and the current time falls inside its access window.

type SessionType string

const (
	SessionTypeTechnical  SessionType = "technical"
	SessionTypeBehavioral SessionType = "behavioral"
	SessionTypeSystem     SessionType = "system_design"
)

type SessionLevel string

const (
	SessionLevelJunior SessionLevel = "junior"
	SessionLevelMiddle SessionLevel = "middle"
	SessionLevelSenior SessionLevel = "senior"
)

type Session struct {
	ID             uuid.UUID     `json:"id"`
	CandidateName  string        `json:"candidate_name"`
	CandidateEmail string        `json:"candidate_email"`
	InterviewerID  string        `json:"interviewer_id"`
	ScheduledStart time.Time     `json:"scheduled_start"`
	DurationMin    int           `json:"duration_min"`
	Type           SessionType   `json:"type"`
	Level          SessionLevel  `json:"level"`
	QuestionCount  int           `json:"question_count"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy    string        `json:"cancelled_by,omitempty"`
	LastReminderAt *time.Time    `json:"last_reminder_at,omitempty"`
	Summary        *Summary      `json:"summary,omitempty"`
	Feedback       *Feedback     `json:"feedback,omitempty"`

	// Loaded separately, not part of the sessions row.
	Events []*ProctoringEvent `json:"events,omitempty"`
}

// Terminal reports whether the session reached a state it can never leave.
func (s *Session) Terminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

// Summary aggregates the proctoring event log at completion time.
type Summary struct {
	EventCount    int     `json:"event_count"`
	DetectedCount int     `json:"detected_count"`
	MaxConfidence float64 `json:"max_confidence"`
	Notes         string  `json:"notes,omitempty"`
}

// Feedback is the interviewer's post-session assessment.
type Feedback struct {
	TechnicalSkills     int       `json:"technical_skills"`
	CommunicationSkills int       `json:"communication_skills"`
	Notes               string    `json:"notes"`
	SubmittedBy         string    `json:"submitted_by"`
	SubmittedAt         time.Time `json:"submitted_at"`
}
