// Package pipeline turns inbound integrity signals from a session's duplex
// connection into scored, persisted proctoring events. It is purely an
// event-appending side channel: connection lifecycle never mutates session
// status.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/talentsync/interviewd/internal/fraud"
	"github.com/talentsync/interviewd/internal/metrics"
	"github.com/talentsync/interviewd/internal/model"
)

// EventStore appends scored events to a session's ordered log.
type EventStore interface {
	Append(ctx context.Context, event *model.ProctoringEvent) error
}

// ContentService converts raw signal payloads into analysis text. Both
// calls may be slow or fail; failures degrade to an empty analysis, which
// scores as no detection.
type ContentService interface {
	Describe(ctx context.Context, image string) (string, error)
	Transcribe(ctx context.Context, audio string) (string, error)
}

type Pipeline struct {
	events  EventStore
	content ContentService
	limiter *Limiter
	logger  *zap.Logger
	now     func() time.Time
}

func New(events EventStore, content ContentService, limiter *Limiter, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		events:  events,
		content: content,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// ServeConn runs the read loop for one session's connection. Frames are
// processed strictly in arrival order; the loop ends only when the client
// closes the connection or the context is cancelled.
func (p *Pipeline) ServeConn(ctx context.Context, session *model.Session, identity string, conn *websocket.Conn) {
	p.logger.Info("Proctoring connection established",
		zap.String("session_id", session.ID.String()),
		zap.String("identity", identity),
	)

	ack := OutboundFrame{Type: OutConnection, Status: "connected", Timestamp: p.now().UTC()}
	if err := websocket.JSON.Send(conn, ack); err != nil {
		p.logger.Warn("Failed to send connection ack", zap.Error(err))
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Info("Proctoring connection closed",
					zap.String("session_id", session.ID.String()),
				)
				return
			}
			// A malformed frame is not fatal: report it and read on.
			p.logger.Warn("Failed to decode frame",
				zap.String("session_id", session.ID.String()),
				zap.Error(err),
			)
			p.send(conn, OutboundFrame{
				Type:      OutError,
				Message:   "failed to process message",
				Timestamp: p.now().UTC(),
			})
			continue
		}

		for _, out := range p.process(ctx, session, identity, frame) {
			p.send(conn, out)
		}
	}
}

func (p *Pipeline) send(conn *websocket.Conn, frame OutboundFrame) {
	if err := websocket.JSON.Send(conn, frame); err != nil {
		p.logger.Warn("Failed to send frame",
			zap.String("type", string(frame.Type)),
			zap.Error(err),
		)
	}
}

// process dispatches one inbound frame and returns the frames to push back.
// Unknown frame types are logged and ignored, never fatal.
func (p *Pipeline) process(ctx context.Context, session *model.Session, identity string, frame InboundFrame) []OutboundFrame {
	switch frame.Type {
	case FrameInterviewStart:
		return []OutboundFrame{{Type: OutInterviewStarted, Timestamp: p.now().UTC()}}

	case FrameCandidateResponse:
		return p.handleCandidateResponse(ctx, session, identity, frame)

	case FrameFraudDetection:
		return p.handleFraudDetection(ctx, session, identity, frame)

	default:
		metrics.FramesUnknown.Inc()
		p.logger.Warn("Unknown frame type",
			zap.String("session_id", session.ID.String()),
			zap.String("type", string(frame.Type)),
		)
		return nil
	}
}

func (p *Pipeline) handleCandidateResponse(ctx context.Context, session *model.Session, identity string, frame InboundFrame) []OutboundFrame {
	if limited := p.checkLimit(ctx, identity); limited != nil {
		return []OutboundFrame{*limited}
	}

	result := fraud.ScoreAudio(frame.Transcript)
	event := p.appendEvent(ctx, session, model.SignalKindAudio, frame.Transcript, result)

	out := []OutboundFrame{{
		Type:       OutTranscriptProcessed,
		Transcript: frame.Transcript,
		Detected:   result.Detected,
		Confidence: result.Confidence,
		Seq:        event.Seq,
		Timestamp:  p.now().UTC(),
	}}
	return p.withHighPriority(out, event)
}

func (p *Pipeline) handleFraudDetection(ctx context.Context, session *model.Session, identity string, frame InboundFrame) []OutboundFrame {
	if limited := p.checkLimit(ctx, identity); limited != nil {
		return []OutboundFrame{*limited}
	}

	kind := frame.Kind
	if kind == "" {
		kind = model.SignalKindVisual
	}

	analysis := p.describeSignal(ctx, session, kind, frame)

	var result fraud.Result
	switch kind {
	case model.SignalKindAudio:
		result = fraud.ScoreAudio(analysis)
	default:
		result = fraud.Score(analysis)
	}

	event := p.appendEvent(ctx, session, kind, analysis, result)

	out := []OutboundFrame{{
		Type:       OutFraudResult,
		Kind:       kind,
		Detected:   result.Detected,
		Confidence: result.Confidence,
		Indicators: result.Indicators,
		Seq:        event.Seq,
		Timestamp:  p.now().UTC(),
	}}
	return p.withHighPriority(out, event)
}

// describeSignal resolves the raw payload to analysis text through the
// content collaborator. On failure it returns the empty string, which
// scores as no detection rather than failing the connection.
func (p *Pipeline) describeSignal(ctx context.Context, session *model.Session, kind model.SignalKind, frame InboundFrame) string {
	var analysis string
	var err error

	switch kind {
	case model.SignalKindAudio:
		analysis, err = p.content.Transcribe(ctx, frame.Audio)
	default:
		analysis, err = p.content.Describe(ctx, frame.Image)
	}

	if err != nil {
		p.logger.Warn("Signal analysis unavailable, degrading to no detection",
			zap.String("session_id", session.ID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return ""
	}
	return analysis
}

func (p *Pipeline) checkLimit(ctx context.Context, identity string) *OutboundFrame {
	if p.limiter.Allow(ctx, identity) {
		return nil
	}
	metrics.SignalsRateLimited.Inc()
	return &OutboundFrame{
		Type:      OutRateLimited,
		Message:   "signal submission limit reached, retry after the window",
		Timestamp: p.now().UTC(),
	}
}

func (p *Pipeline) appendEvent(ctx context.Context, session *model.Session, kind model.SignalKind, analysis string, result fraud.Result) *model.ProctoringEvent {
	event := &model.ProctoringEvent{
		SessionID:  session.ID,
		Kind:       kind,
		Analysis:   analysis,
		Detected:   result.Detected,
		Confidence: result.Confidence,
		Indicators: result.Indicators,
		ReceivedAt: p.now().UTC(),
	}

	if err := p.events.Append(ctx, event); err != nil {
		// A store outage loses this sample but must not kill the channel.
		p.logger.Error("Failed to append proctoring event",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
	}
	metrics.SignalsScored.WithLabelValues(string(kind)).Inc()

	return event
}

func (p *Pipeline) withHighPriority(out []OutboundFrame, event *model.ProctoringEvent) []OutboundFrame {
	if !event.HighPriority() {
		return out
	}
	metrics.HighPriorityEvents.Inc()
	p.logger.Warn("High-priority proctoring event",
		zap.String("session_id", event.SessionID.String()),
		zap.Float64("confidence", event.Confidence),
		zap.Strings("indicators", event.Indicators),
	)
	return append(out, OutboundFrame{
		Type:       OutHighPriority,
		Kind:       event.Kind,
		Detected:   event.Detected,
		Confidence: event.Confidence,
		Indicators: event.Indicators,
		Seq:        event.Seq,
		Timestamp:  p.now().UTC(),
	})
}
