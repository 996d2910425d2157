package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

type storedResult struct {
	snap domain.AnswerSnapshot
	ev   []domain.Evidence
}

// fakeRepos is an in-memory capability.Repositories fake for handler tests.
type fakeRepos struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]domain.QuerySession
	results  map[uuid.UUID]storedResult
	traces   map[uuid.UUID][]domain.PlannerTrace
	logs     map[uuid.UUID][]domain.SearchLog
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		sessions: map[uuid.UUID]domain.QuerySession{},
		results:  map[uuid.UUID]storedResult{},
		traces:   map[uuid.UUID][]domain.PlannerTrace{},
		logs:     map[uuid.UUID][]domain.SearchLog{},
	}
}

func (f *fakeRepos) CreateSession(_ context.Context, question string) (domain.QuerySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := domain.QuerySession{ID: uuid.New(), Question: question, Status: domain.StatusInit}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeRepos) GetSession(_ context.Context, id uuid.UUID) (domain.QuerySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.QuerySession{}, fmt.Errorf("unknown session %s", id)
	}
	return s, nil
}

func (f *fakeRepos) UpdateSessionStatus(_ context.Context, id uuid.UUID, status domain.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	s.Status = status
	f.sessions[id] = s
	return nil
}

func (f *fakeRepos) AppendPlannerTrace(_ context.Context, t domain.PlannerTrace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traces[t.SessionID] = append(f.traces[t.SessionID], t)
	return nil
}

func (f *fakeRepos) ReadTrace(_ context.Context, id uuid.UUID) ([]domain.PlannerTrace, []domain.SearchLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.traces[id], f.logs[id], nil
}

func (f *fakeRepos) AppendSearchLog(_ context.Context, l domain.SearchLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[l.SessionID] = append(f.logs[l.SessionID], l)
	return nil
}

func (f *fakeRepos) WriteAnswerWithEvidence(_ context.Context, snap domain.AnswerSnapshot, evidence []domain.Evidence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[snap.SessionID] = storedResult{snap, evidence}
	return nil
}

func (f *fakeRepos) ReadResult(_ context.Context, id uuid.UUID) (domain.AnswerSnapshot, []domain.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[id]
	if !ok {
		return domain.AnswerSnapshot{}, nil, fmt.Errorf("no result for %s", id)
	}
	return r.snap, r.ev, nil
}

func (f *fakeRepos) CacheGet(context.Context, string) (domain.QueryCacheEntry, bool, error) {
	return domain.QueryCacheEntry{}, false, nil
}

func (f *fakeRepos) CachePut(context.Context, domain.QueryCacheEntry) error {
	return nil
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *recordingQueue) Submit(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

func newTestServer() (*Server, *fakeRepos, *recordingQueue) {
	repos := newFakeRepos()
	queue := &recordingQueue{}
	s := New(repos, queue, "secret-token")
	return s, repos, queue
}

func TestCreateQuery_EmptyQuestionIsBadRequest(t *testing.T) {
	s, _, _ := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewBufferString(`{"question":""}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateQuery_SucceedsAndEnqueues(t *testing.T) {
	s, _, queue := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewBufferString(`{"question":"When did Voyager 1 launch?"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp createQueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(domain.StatusInit) {
		t.Fatalf("expected INIT, got %q", resp.Status)
	}
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if len(queue.ids) != 1 {
		t.Fatalf("expected session to be enqueued once, got %d", len(queue.ids))
	}
}

func TestGetStatus_UnknownSessionIs404(t *testing.T) {
	s, _, _ := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/"+uuid.New().String()+"/status", nil)
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetResult_NotYetCompleteIsConflict(t *testing.T) {
	s, repos, _ := newTestServer()
	session, err := repos.CreateSession(context.Background(), "q")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/"+session.ID.String()+"/result", nil)
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestGetResult_DoneSessionReturnsAnswerAndEvidence(t *testing.T) {
	s, repos, _ := newTestServer()
	session, err := repos.CreateSession(context.Background(), "q")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := repos.UpdateSessionStatus(context.Background(), session.ID, domain.StatusDone); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repos.WriteAnswerWithEvidence(context.Background(),
		domain.AnswerSnapshot{SessionID: session.ID, AnswerText: "answer", ConfidenceLevel: domain.ConfidenceHigh},
		[]domain.Evidence{{SessionID: session.ID, ClaimText: "claim", Status: domain.ClaimVerified, SourceURL: "https://a.example.com"}},
	); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/"+session.ID.String()+"/result", nil)
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp resultResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "answer" || len(resp.Evidence) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGetTrace_MissingTokenIsForbidden(t *testing.T) {
	s, _, _ := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/"+uuid.New().String()+"/trace", nil)
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestGetTrace_WrongTokenIsForbidden(t *testing.T) {
	s, _, _ := newTestServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/"+uuid.New().String()+"/trace", nil)
	req.Header.Set("X-Internal-Token", "not-the-secret")
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestGetTrace_CorrectTokenReturnsTraces(t *testing.T) {
	s, repos, _ := newTestServer()
	session, err := repos.CreateSession(context.Background(), "q")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := repos.AppendPlannerTrace(context.Background(), domain.PlannerTrace{SessionID: session.ID, AttemptNumber: 1}); err != nil {
		t.Fatalf("append trace: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/query/"+session.ID.String()+"/trace", nil)
	req.Header.Set("X-Internal-Token", "secret-token")
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp traceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.PlannerTraces) != 1 {
		t.Fatalf("expected 1 planner trace, got %d", len(resp.PlannerTraces))
	}
}
