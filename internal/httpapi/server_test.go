package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentsync/interviewd/internal/auth"
	"github.com/talentsync/interviewd/internal/model"
	"github.com/talentsync/interviewd/internal/pipeline"
	"github.com/talentsync/interviewd/internal/service"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
	events   map[uuid.UUID][]*model.ProctoringEvent
	nextSeq  int64
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uuid.UUID]*model.Session),
		events:   make(map[uuid.UUID][]*model.ProctoringEvent),
	}
}

func (s *memStore) Create(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *memStore) ListByInterviewer(_ context.Context, interviewerID string, status model.SessionStatus, limit int) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Session
	for _, session := range s.sessions {
		if session.InterviewerID != interviewerID {
			continue
		}
		if status != "" && session.Status != status {
			continue
		}
		copied := *session
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) MarkCancelled(_ context.Context, id uuid.UUID, cancelledBy string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[id]
	session.Status = model.SessionStatusCancelled
	session.CancelledAt = &at
	session.CancelledBy = cancelledBy
	return nil
}

func (s *memStore) MarkCompleted(_ context.Context, id uuid.UUID, summary *model.Summary, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[id]
	session.Status = model.SessionStatusCompleted
	session.Summary = summary
	session.CompletedAt = &at
	return nil
}

func (s *memStore) StampReminder(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id].LastReminderAt = &at
	return nil
}

func (s *memStore) SetFeedback(_ context.Context, id uuid.UUID, feedback *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id].Feedback = feedback
	return nil
}

func (s *memStore) ListDueForReminder(_ context.Context, _, _ time.Time) ([]*model.Session, error) {
	return nil, nil
}

func (s *memStore) Append(_ context.Context, event *model.ProctoringEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	event.Seq = s.nextSeq
	copied := *event
	s.events[event.SessionID] = append(s.events[event.SessionID], &copied)
	return nil
}

func (s *memStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*model.ProctoringEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[sessionID], nil
}

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, model.NotificationKind, *model.Session, map[string]string) (string, error) {
	return "msg-1", nil
}

type noopModerator struct{}

func (noopModerator) Moderate(context.Context, string) (bool, error) { return false, nil }

type stubVerifier struct {
	identities map[string]*auth.Identity
}

func (v *stubVerifier) Verify(token string) (*auth.Identity, error) {
	identity, ok := v.identities[token]
	if !ok {
		return nil, model.ErrAuth
	}
	return identity, nil
}

type stubContent struct{}

func (stubContent) Describe(context.Context, string) (string, error)   { return "", nil }
func (stubContent) Transcribe(context.Context, string) (string, error) { return "", nil }

type apiFixture struct {
	server *Server
	store  *memStore
	router http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store := newMemStore()
	logger := zap.NewNop()
	sessions := service.NewSessionService(store, store, noopNotifier{}, noopModerator{}, logger)

	limiter := pipeline.NewLimiter(pipeline.NewMemoryCounterStore(), 10, time.Minute, logger)
	pl := pipeline.New(store, stubContent{}, limiter, logger)

	verifier := &stubVerifier{identities: map[string]*auth.Identity{
		"interviewer-token": {UID: "interviewer-1", Email: "ivy@example.com", Interviewer: true},
		"candidate-token":   {UID: "cand-1", Email: "ada@example.com", EmailVerified: true},
		"stranger-token":    {UID: "cand-2", Email: "mallory@example.com"},
	}}

	server := NewServer(sessions, pl, limiter, verifier, logger)
	return &apiFixture{server: server, store: store, router: server.Router()}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *apiFixture) schedule(t *testing.T, start time.Time) *model.Session {
	t.Helper()
	resp := f.request(t, http.MethodPost, "/api/interviews", "interviewer-token", scheduleRequest{
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
		Start:          start.Format(time.RFC3339),
		DurationMin:    60,
		Type:           "technical",
		Level:          "senior",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var session model.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	return &session
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/api/interviews", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = f.request(t, http.MethodGet, "/api/interviews", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestScheduleAndGet(t *testing.T) {
	f := newAPIFixture(t)
	session := f.schedule(t, time.Now().Add(24*time.Hour))

	resp := f.request(t, http.MethodGet, "/api/interviews/"+session.ID.String(), "interviewer-token", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.request(t, http.MethodGet, "/api/interviews/"+uuid.NewString(), "interviewer-token", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestScheduleValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/interviews", "interviewer-token", scheduleRequest{
		CandidateName:  "Ada",
		CandidateEmail: "not-an-email",
		Start:          time.Now().Add(time.Hour).Format(time.RFC3339),
		DurationMin:    60,
		Type:           "technical",
		Level:          "senior",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCancelForbiddenAndConflict(t *testing.T) {
	f := newAPIFixture(t)
	session := f.schedule(t, time.Now().Add(24*time.Hour))
	path := "/api/interviews/" + session.ID.String() + "/cancel"

	// Only the owning interviewer may cancel.
	resp := f.request(t, http.MethodPost, path, "candidate-token", cancelRequest{})
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.request(t, http.MethodPost, path, "interviewer-token", cancelRequest{Reason: "schedule conflict"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.request(t, http.MethodPost, path, "interviewer-token", cancelRequest{})
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newAPIFixture(t)
	session := f.schedule(t, time.Now().Add(24*time.Hour))
	path := "/api/interviews/" + session.ID.String() + "/complete"

	resp := f.request(t, http.MethodPost, path, "interviewer-token", completeRequest{Notes: "done"})
	require.Equal(t, http.StatusOK, resp.Code)

	var first model.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))
	require.Equal(t, model.SessionStatusCompleted, first.Status)

	resp = f.request(t, http.MethodPost, path, "interviewer-token", completeRequest{Notes: "again"})
	require.Equal(t, http.StatusOK, resp.Code)

	var second model.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	require.Equal(t, first.Summary, second.Summary)
}

func TestEnterGate(t *testing.T) {
	f := newAPIFixture(t)
	start := time.Now().Add(10 * time.Minute)
	session := f.schedule(t, start)
	path := "/api/interviews/" + session.ID.String() + "/enter"

	t.Run("candidate inside window", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, path, "candidate-token", nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var summary gatedSummary
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
		require.Equal(t, "Ada Lovelace", summary.CandidateName)
		require.Equal(t, 5, summary.QuestionCount)
	})

	t.Run("wrong candidate", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, path, "stranger-token", nil)
		require.Equal(t, http.StatusForbidden, resp.Code)

		var decision model.AccessDecision
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decision))
		require.Equal(t, model.DenyNotOwner, decision.Reason)
	})

	t.Run("outside window", func(t *testing.T) {
		f.server.now = func() time.Time { return start.Add(2 * time.Hour) }
		defer func() { f.server.now = time.Now }()

		resp := f.request(t, http.MethodGet, path, "candidate-token", nil)
		require.Equal(t, http.StatusForbidden, resp.Code)

		var decision model.AccessDecision
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decision))
		require.Equal(t, model.DenyOutsideWindow, decision.Reason)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, "/api/interviews/"+uuid.NewString()+"/enter", "candidate-token", nil)
		require.Equal(t, http.StatusNotFound, resp.Code)

		var decision model.AccessDecision
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decision))
		require.Equal(t, model.DenyNotFound, decision.Reason)
	})

	t.Run("interviewer bypasses identity match", func(t *testing.T) {
		resp := f.request(t, http.MethodGet, path, "interviewer-token", nil)
		require.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestEnterThrottled(t *testing.T) {
	f := newAPIFixture(t)
	f.server.limiter = pipeline.NewLimiter(pipeline.NewMemoryCounterStore(), 3, time.Minute, zap.NewNop())
	session := f.schedule(t, time.Now().Add(10*time.Minute))
	path := "/api/interviews/" + session.ID.String() + "/enter"

	for i := 0; i < 3; i++ {
		resp := f.request(t, http.MethodGet, path, "candidate-token", nil)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := f.request(t, http.MethodGet, path, "candidate-token", nil)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	// The interviewer's entry checks are keyed separately.
	resp = f.request(t, http.MethodGet, path, "interviewer-token", nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newAPIFixture(t)
	first := f.schedule(t, time.Now().Add(24*time.Hour))
	f.schedule(t, time.Now().Add(48*time.Hour))

	resp := f.request(t, http.MethodPost, "/api/interviews/"+first.ID.String()+"/cancel", "interviewer-token", cancelRequest{})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.request(t, http.MethodGet, "/api/interviews?status=cancelled", "interviewer-token", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var sessions []*model.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, first.ID, sessions[0].ID)
}

func TestFeedbackRoundTrip(t *testing.T) {
	f := newAPIFixture(t)
	session := f.schedule(t, time.Now().Add(24*time.Hour))

	resp := f.request(t, http.MethodPost, "/api/interviews/"+session.ID.String()+"/feedback", "interviewer-token", feedbackRequest{
		TechnicalSkills:     4,
		CommunicationSkills: 5,
		Notes:               "strong candidate",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var updated model.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	require.NotNil(t, updated.Feedback)
	require.Equal(t, "interviewer-1", updated.Feedback.SubmittedBy)
}

func TestMalformedSessionID(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/api/interviews/not-a-uuid", "interviewer-token", nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "application/json", resp.Header().Get("Content-Type"))
}
