// Package httpapi is the thin HTTP adapter over the session pipeline: the
// four endpoints of spec.md 6. Grounded on itsneelabh-gomind's
// orchestration-example main.go (gin.New + gin.Logger/Recovery middleware,
// route handlers closing over injected collaborators) and on
// codeready-toolchain/tarsy's pkg/api.Server (a struct holding every
// collaborator the handlers need, wired once at construction).
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/domain"
)

// Enqueuer hands a freshly-created session off to the worker pool.
type Enqueuer interface {
	Submit(sessionID uuid.UUID) error
}

// Server wires the HTTP surface to the repository layer and the worker
// pool. Repos is used directly for reads (status/result/trace); writes that
// kick off a pipeline run go through Repos.CreateSession then Queue.Submit.
type Server struct {
	Repos               capability.Repositories
	Queue               Enqueuer
	InternalTraceToken  string

	engine *gin.Engine
}

// New builds a Server and registers its routes.
func New(repos capability.Repositories, queue Enqueuer, internalTraceToken string) *Server {
	s := &Server{Repos: repos, Queue: queue, InternalTraceToken: internalTraceToken}
	s.engine = gin.New()
	s.engine.Use(gin.Logger(), gin.Recovery())
	s.routes()
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	api := s.engine.Group("/api/query")
	api.POST("", s.createQuery)
	api.GET("/:id/status", s.getStatus)
	api.GET("/:id/result", s.getResult)
	api.GET("/:id/trace", s.getTrace)
}

type createQueryRequest struct {
	Question string `json:"question"`
}

type createQueryResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// createQuery handles POST /api/query.
func (s *Server) createQuery(c *gin.Context) {
	var req createQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	session, err := s.Repos.CreateSession(c.Request.Context(), req.Question)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}

	if err := s.Queue.Submit(session.ID); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}

	c.JSON(http.StatusCreated, createQueryResponse{
		SessionID: session.ID.String(),
		Status:    string(session.Status),
	})
}

type statusResponse struct {
	Status     string `json:"status"`
	IsComplete bool   `json:"is_complete"`
}

// getStatus handles GET /api/query/{id}/status.
func (s *Server) getStatus(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	session, err := s.Repos.GetSession(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		Status:     string(session.Status),
		IsComplete: session.Status.Terminal(),
	})
}

type evidenceResponse struct {
	Claim  string `json:"claim"`
	Status string `json:"status"`
	Source string `json:"source"`
}

type resultResponse struct {
	Answer           string             `json:"answer"`
	ConfidenceLevel  string             `json:"confidence_level"`
	ConfidenceReason string             `json:"confidence_reason"`
	Evidence         []evidenceResponse `json:"evidence"`
}

// getResult handles GET /api/query/{id}/result.
func (s *Server) getResult(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	session, err := s.Repos.GetSession(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	if !session.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "session not yet complete"})
		return
	}

	snap, evidence, err := s.Repos.ReadResult(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no result for session"})
		return
	}

	resp := resultResponse{
		Answer:           snap.AnswerText,
		ConfidenceLevel:  string(snap.ConfidenceLevel),
		ConfidenceReason: snap.ConfidenceReason,
		Evidence:         make([]evidenceResponse, 0, len(evidence)),
	}
	for _, e := range evidence {
		resp.Evidence = append(resp.Evidence, evidenceResponse{
			Claim:  e.ClaimText,
			Status: string(e.Status),
			Source: e.SourceURL,
		})
	}
	c.JSON(http.StatusOK, resp)
}

type traceResponse struct {
	PlannerTraces []domain.PlannerTrace `json:"planner_traces"`
	SearchLogs    []domain.SearchLog    `json:"search_logs"`
}

// getTrace handles GET /api/query/{id}/trace, gated by X-Internal-Token.
func (s *Server) getTrace(c *gin.Context) {
	if s.InternalTraceToken == "" || c.GetHeader("X-Internal-Token") != s.InternalTraceToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	traces, logs, err := s.Repos.ReadTrace(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, traceResponse{PlannerTraces: traces, SearchLogs: logs})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return uuid.UUID{}, false
	}
	return id, true
}
