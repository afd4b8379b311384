package notify

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/talentsync/interviewd/internal/model"
)

type templateData struct {
	CandidateName string
	Start         string
	Duration      int
	Type          string
	Level         string
	Reason        string
	Extra         map[string]string
}

var subjects = map[model.NotificationKind]string{
	model.NotificationKindInvite:       "Interview Scheduled - TalentSync",
	model.NotificationKindReminder:     "Interview Reminder - TalentSync",
	model.NotificationKindCancellation: "Interview Cancelled - TalentSync",
	model.NotificationKindSummary:      "Interview Feedback - TalentSync",
}

var bodies = map[model.NotificationKind]*template.Template{
	model.NotificationKindInvite: template.Must(template.New("invite").Parse(
		`Hello {{.CandidateName}},

Your {{.Level}} {{.Type}} interview has been scheduled for {{.Start}}.
Planned duration: {{.Duration}} minutes.

Please join up to 15 minutes before the start.`)),

	model.NotificationKindReminder: template.Must(template.New("reminder").Parse(
		`Hello {{.CandidateName}},

This is a reminder for your interview on {{.Start}}.
The room opens 15 minutes before the start.`)),

	model.NotificationKindCancellation: template.Must(template.New("cancellation").Parse(
		`Hello {{.CandidateName}},

Your interview scheduled for {{.Start}} has been cancelled.
{{if .Reason}}Reason: {{.Reason}}{{end}}`)),

	model.NotificationKindSummary: template.Must(template.New("summary").Parse(
		`Hello {{.CandidateName}},

Your interview on {{.Start}} is complete. Feedback will follow from the
interviewer shortly. Thank you for your time.`)),
}

func renderEnvelope(kind model.NotificationKind, session *model.Session, extra map[string]string) (Envelope, error) {
	tmpl, ok := bodies[kind]
	if !ok {
		return Envelope{}, fmt.Errorf("%w: unknown notification kind %q", model.ErrValidation, kind)
	}

	data := templateData{
		CandidateName: session.CandidateName,
		Start:         session.ScheduledStart.Format(time.RFC1123),
		Duration:      session.DurationMin,
		Type:          string(session.Type),
		Level:         string(session.Level),
		Reason:        extra["reason"],
		Extra:         extra,
	}

	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return Envelope{}, fmt.Errorf("render %s body: %w", kind, err)
	}

	return Envelope{
		To:       session.CandidateEmail,
		Subject:  subjects[kind],
		TextBody: body.String(),
		Priority: "high",
	}, nil
}
