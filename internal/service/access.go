package service

import (
	"time"

	"github.com/talentsync/interviewd/internal/model"
)

// Access window around the scheduled start. The door opens 15 minutes early
// to let candidates settle in and closes 60 minutes after the nominal start
// so sessions do not stay joinable forever.
const (
	AccessWindowBefore = 15 * time.Minute
	AccessWindowAfter  = 60 * time.Minute
)

// DecideAccess decides whether the requesting candidate may enter the
// session at the given instant. It is deterministic and side-effect-free so
// it can be tested against fabricated clocks.
func DecideAccess(session *model.Session, requestingEmail string, now time.Time) model.AccessDecision {
	if session.Status == model.SessionStatusCancelled {
		return model.AccessDecision{Reason: model.DenyCancelled}
	}

	if requestingEmail != session.CandidateEmail {
		return model.AccessDecision{Reason: model.DenyNotOwner}
	}

	return decideWindow(session, now)
}

// DecideInterviewerAccess is the privileged path: it skips the identity
// match but keeps the status and time-window checks.
func DecideInterviewerAccess(session *model.Session, now time.Time) model.AccessDecision {
	if session.Status == model.SessionStatusCancelled {
		return model.AccessDecision{Reason: model.DenyCancelled}
	}

	return decideWindow(session, now)
}

func decideWindow(session *model.Session, now time.Time) model.AccessDecision {
	if session.Status != model.SessionStatusScheduled {
		return model.AccessDecision{Reason: model.DenyOutsideWindow}
	}

	delta := session.ScheduledStart.Sub(now)
	if delta > AccessWindowBefore || delta < -AccessWindowAfter {
		return model.AccessDecision{Reason: model.DenyOutsideWindow}
	}

	return model.AccessDecision{Allow: true}
}
