// Package httpapi is the HTTP and websocket surface over the orchestrator,
// gate, and pipeline.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/talentsync/interviewd/internal/auth"
	"github.com/talentsync/interviewd/internal/model"
	"github.com/talentsync/interviewd/internal/pipeline"
	"github.com/talentsync/interviewd/internal/service"
)

type identityContextKey struct{}

type Server struct {
	sessions *service.SessionService
	pipeline *pipeline.Pipeline
	limiter  *pipeline.Limiter
	verifier auth.Verifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewServer(sessions *service.SessionService, pl *pipeline.Pipeline, limiter *pipeline.Limiter, verifier auth.Verifier, logger *zap.Logger) *Server {
	return &Server{
		sessions: sessions,
		pipeline: pl,
		limiter:  limiter,
		verifier: verifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/interviews", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleSchedule)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Post("/{id}/cancel", s.handleCancel)
		r.Post("/{id}/complete", s.handleComplete)
		r.Post("/{id}/remind", s.handleRemind)
		r.Post("/{id}/feedback", s.handleFeedback)
		r.Get("/{id}/enter", s.handleEnter)
	})

	r.Get("/ws/interviews/{id}", s.handleWebsocket)

	return r
}

// authenticate resolves the bearer token into an identity on the request
// context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.identityFromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) identityFromRequest(r *http.Request) (*auth.Identity, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		// Websocket clients cannot set headers, so a token query
		// parameter is accepted as well.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, model.ErrAuth
	}
	return s.verifier.Verify(token)
}

func identityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(*auth.Identity)
	return identity
}

type scheduleRequest struct {
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	Start          string `json:"start"`
	DurationMin    int    `json:"duration_min"`
	Type           string `json:"type"`
	Level          string `json:"level"`
	QuestionCount  int    `json:"question_count"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Join(model.ErrValidation, err))
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil && req.Start != "" {
		writeError(w, errors.Join(model.ErrValidation, err))
		return
	}

	session, err := s.sessions.Schedule(r.Context(), service.ScheduleInput{
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		InterviewerID:  identity.UID,
		Start:          start,
		DurationMin:    req.DurationMin,
		Type:           model.SessionType(req.Type),
		Level:          model.SessionLevel(req.Level),
		QuestionCount:  req.QuestionCount,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := model.SessionStatus(r.URL.Query().Get("status"))

	sessions, err := s.sessions.List(r.Context(), identity.UID, status, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req cancelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	session, err := s.sessions.Cancel(r.Context(), id, identity.UID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type completeRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req completeRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	session, err := s.sessions.Complete(r.Context(), id, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRemind(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.sessions.SendReminder(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reminder sent"})
}

type feedbackRequest struct {
	TechnicalSkills     int    `json:"technical_skills"`
	CommunicationSkills int    `json:"communication_skills"`
	Notes               string `json:"notes"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Join(model.ErrValidation, err))
		return
	}

	session, err := s.sessions.SubmitFeedback(r.Context(), id, identity.UID, &model.Feedback{
		TechnicalSkills:     req.TechnicalSkills,
		CommunicationSkills: req.CommunicationSkills,
		Notes:               req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// gatedSummary is what a candidate sees when the gate lets them in.
type gatedSummary struct {
	CandidateName string              `json:"candidate_name"`
	Type          model.SessionType   `json:"type"`
	Level         model.SessionLevel  `json:"level"`
	DurationMin   int                 `json:"duration_min"`
	QuestionCount int                 `json:"question_count"`
	Status        model.SessionStatus `json:"status"`
}

func (s *Server) handleEnter(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r.Context())

	// Entry checks share the signal limiter under a separate key space so
	// a polling client cannot hammer the gate.
	if s.limiter != nil && !s.limiter.Allow(r.Context(), "enter:"+identity.Email) {
		writeError(w, fmt.Errorf("%w: too many entry checks", model.ErrRateLimited))
		return
	}

	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, decision, err := s.decide(r.Context(), id, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allow {
		writeJSON(w, denialStatus(decision.Reason), decision)
		return
	}

	writeJSON(w, http.StatusOK, gatedSummary{
		CandidateName: session.CandidateName,
		Type:          session.Type,
		Level:         session.Level,
		DurationMin:   session.DurationMin,
		QuestionCount: session.QuestionCount,
		Status:        session.Status,
	})
}

// decide loads the session and runs the access gate for the identity,
// using the privileged path for the owning interviewer.
func (s *Server) decide(ctx context.Context, id uuid.UUID, identity *auth.Identity) (*model.Session, model.AccessDecision, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.AccessDecision{Reason: model.DenyNotFound}, nil
		}
		return nil, model.AccessDecision{}, err
	}

	if identity.Interviewer && identity.UID == session.InterviewerID {
		return session, service.DecideInterviewerAccess(session, s.now()), nil
	}
	return session, service.DecideAccess(session, identity.Email, s.now()), nil
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, decision, err := s.decide(r.Context(), id, identity)
	if err != nil {
		writeError(w, err)
		return
	}
	if !decision.Allow {
		writeJSON(w, denialStatus(decision.Reason), decision)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()
		s.pipeline.ServeConn(r.Context(), session, identity.Email, conn)
	}).ServeHTTP(w, r)
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.Join(model.ErrValidation, err)
	}
	return id, nil
}

func denialStatus(reason model.DenialReason) int {
	if reason == model.DenyNotFound {
		return http.StatusNotFound
	}
	return http.StatusForbidden
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy onto HTTP statuses. Auth errors never
// leak internal detail.
func writeError(w http.ResponseWriter, err error) {
	var deliveryErr *model.DeliveryError

	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrAuth):
		status = http.StatusUnauthorized
		message = "authentication failed"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		message = "forbidden"
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, model.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.As(err, &deliveryErr), errors.Is(err, model.ErrTransport), errors.Is(err, model.ErrStore):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"error": message})
}
