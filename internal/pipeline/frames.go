package pipeline

import (
	"time"

	"github.com/talentsync/interviewd/internal/model"
)

// FrameKind is the closed set of inbound frame types on the duplex channel.
type FrameKind string

const (
	FrameInterviewStart    FrameKind = "interview_start"
	FrameCandidateResponse FrameKind = "candidate_response"
	FrameFraudDetection    FrameKind = "fraud_detection"
)

// InboundFrame is one JSON message received from the client. Exactly which
// payload fields are meaningful depends on Type.
type InboundFrame struct {
	Type       FrameKind        `json:"type"`
	Kind       model.SignalKind `json:"kind,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	Image      string           `json:"image,omitempty"`
	Audio      string           `json:"audio,omitempty"`
	QuestionID string           `json:"question_id,omitempty"`
}

type OutboundType string

const (
	OutConnection          OutboundType = "connection"
	OutInterviewStarted    OutboundType = "interview_started"
	OutTranscriptProcessed OutboundType = "transcript_processed"
	OutFraudResult         OutboundType = "fraud_detection_result"
	OutHighPriority        OutboundType = "high_priority_alert"
	OutRateLimited         OutboundType = "rate_limited"
	OutError               OutboundType = "error"
)

// OutboundFrame is one JSON message pushed back over the channel.
type OutboundFrame struct {
	Type       OutboundType     `json:"type"`
	Status     string           `json:"status,omitempty"`
	Message    string           `json:"message,omitempty"`
	Kind       model.SignalKind `json:"kind,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
	Detected   bool             `json:"detected"`
	Confidence float64          `json:"confidence"`
	Indicators []string         `json:"indicators,omitempty"`
	Seq        int64            `json:"seq,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}
