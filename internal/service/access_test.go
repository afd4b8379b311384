package service

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talentsync/interviewd/internal/model"
)

func gateSession(status model.SessionStatus, start time.Time) *model.Session {
	return &model.Session{
		ID:             uuid.New(),
		CandidateEmail: "candidate@example.com",
		InterviewerID:  "interviewer-1",
		ScheduledStart: start,
		Status:         status,
	}
}

func TestDecideAccessWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	session := gateSession(model.SessionStatusScheduled, start)

	cases := []struct {
		name   string
		now    time.Time
		allow  bool
		reason model.DenialReason
	}{
		{"14 minutes early", start.Add(-14 * time.Minute), true, ""},
		{"exactly 15 minutes early", start.Add(-15 * time.Minute), true, ""},
		{"16 minutes early", start.Add(-16 * time.Minute), false, model.DenyOutsideWindow},
		{"59 minutes late", start.Add(59 * time.Minute), true, ""},
		{"exactly 60 minutes late", start.Add(60 * time.Minute), true, ""},
		{"61 minutes late", start.Add(61 * time.Minute), false, model.DenyOutsideWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := DecideAccess(session, "candidate@example.com", tc.now)
			if decision.Allow != tc.allow {
				t.Fatalf("expected allow=%v, got %v", tc.allow, decision.Allow)
			}
			if decision.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, decision.Reason)
			}
		})
	}
}

func TestDecideAccessCancelled(t *testing.T) {
	start := time.Now().Add(5 * time.Minute)
	session := gateSession(model.SessionStatusCancelled, start)

	decision := DecideAccess(session, "candidate@example.com", time.Now())
	if decision.Allow {
		t.Fatal("expected denial for cancelled session")
	}
	if decision.Reason != model.DenyCancelled {
		t.Fatalf("expected reason cancelled, got %q", decision.Reason)
	}
}

func TestDecideAccessWrongCandidate(t *testing.T) {
	start := time.Now()
	session := gateSession(model.SessionStatusScheduled, start)

	decision := DecideAccess(session, "someone-else@example.com", start)
	if decision.Allow {
		t.Fatal("expected denial for non-owner")
	}
	if decision.Reason != model.DenyNotOwner {
		t.Fatalf("expected reason not-owner, got %q", decision.Reason)
	}
}

func TestDecideAccessCompleted(t *testing.T) {
	start := time.Now()
	session := gateSession(model.SessionStatusCompleted, start)

	decision := DecideAccess(session, "candidate@example.com", start)
	if decision.Allow {
		t.Fatal("expected denial for completed session")
	}
	if decision.Reason != model.DenyOutsideWindow {
		t.Fatalf("expected reason outside-window, got %q", decision.Reason)
	}
}

func TestDecideInterviewerAccess(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	session := gateSession(model.SessionStatusScheduled, start)

	// Identity match is skipped for interviewers.
	decision := DecideInterviewerAccess(session, start)
	if !decision.Allow {
		t.Fatalf("expected allow, got reason %q", decision.Reason)
	}

	// Status and window checks still apply.
	decision = DecideInterviewerAccess(session, start.Add(2*time.Hour))
	if decision.Allow {
		t.Fatal("expected denial outside window")
	}

	cancelled := gateSession(model.SessionStatusCancelled, start)
	decision = DecideInterviewerAccess(cancelled, start)
	if decision.Reason != model.DenyCancelled {
		t.Fatalf("expected reason cancelled, got %q", decision.Reason)
	}
}
