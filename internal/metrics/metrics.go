// Package metrics holds the process-wide prometheus instruments, exposed
// on /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignalsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proctoring_signals_scored_total",
		Help: "Integrity signals accepted and scored, by signal kind.",
	}, []string{"kind"})

	SignalsRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proctoring_signals_rate_limited_total",
		Help: "Integrity signals dropped by the per-identity rate limit.",
	})

	FramesUnknown = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proctoring_frames_unknown_total",
		Help: "Inbound frames with an unrecognized type, logged and ignored.",
	})

	HighPriorityEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proctoring_high_priority_events_total",
		Help: "Scored events that crossed the high-priority confidence bar.",
	})

	NotificationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_attempts_total",
		Help: "Email delivery attempts, by outcome.",
	}, []string{"outcome"})
)
