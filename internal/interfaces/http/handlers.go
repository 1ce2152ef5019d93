package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-admin/internal/container"
	"github.com/garyjia/expense-admin/internal/crud"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/event"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
)

const (
	// SessionHeader carries the id returned by POST /api/sessions
	SessionHeader = "X-Session-ID"

	sessionKey        = "session_id"
	sessionContextKey = "session"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	backend Backend
	logger  Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(backend Backend, logger Logger) *Handlers {
	return &Handlers{backend: backend, logger: logger}
}

// Response represents a standard JSON response. Notices are the user-facing
// messages the session's controllers produced since the last response.
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Kind    apperr.Kind       `json:"kind,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Notices []*event.Event    `json:"notices,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                               `json:"status"`
	Timestamp  string                               `json:"timestamp"`
	Components map[string]container.ComponentHealth `json:"components"`
}

// SessionRequest opens a session for the signed-in user. The bearer token
// may come from the Authorization header instead of the body.
type SessionRequest struct {
	Token         string   `json:"token"`
	ProfileID     string   `json:"profileId" binding:"required"`
	Position      string   `json:"position"`
	Roles         []string `json:"roles"`
	OfficeID      *int64   `json:"officeId"`
	GovernorateID *int64   `json:"governorateId"`
}

// SessionResponse is returned when a session opens
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Position  string `json:"position"`
	Admin     bool   `json:"admin"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	health := h.backend.Health()
	status := "healthy"
	code := http.StatusOK
	if !health.Overall {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, Response{
		Success: health.Overall,
		Data: HealthResponse{
			Status:     status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Components: health.Components,
		},
	})
}

// OpenSession handles POST /api/sessions
func (h *Handlers) OpenSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid session request", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid session request"})
		return
	}

	actor := workflow.Actor{
		ProfileID:     req.ProfileID,
		Roles:         req.Roles,
		OfficeID:      req.OfficeID,
		GovernorateID: req.GovernorateID,
	}
	if req.Position != "" {
		pos, err := workflow.ParsePosition(req.Position)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		actor.Position = pos
	}

	token := req.Token
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "an access token is required"})
		return
	}

	s, err := h.backend.NewSession(token, actor)
	if err != nil {
		h.logger.Error("Failed to open session", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "session could not be opened"})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: SessionResponse{
			SessionID: s.ID,
			Position:  string(actor.Position),
			Admin:     actor.IsAdmin(),
		},
	})
}

// CloseSession handles DELETE /api/sessions/current
func (h *Handlers) CloseSession(c *gin.Context) {
	s := session(c)
	h.backend.CloseSession(s.ID)
	c.JSON(http.StatusOK, Response{Success: true, Notices: s.Inbox.Drain()})
}

// Notices handles GET /api/notices
func (h *Handlers) Notices(c *gin.Context) {
	s := session(c)
	c.JSON(http.StatusOK, Response{Success: true, Data: s.Inbox.Drain()})
}

// requireSession resolves the X-Session-ID header to a live session
func (h *Handlers) requireSession(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	s, found := h.backend.Session(id)
	if id == "" || !found {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "session expired or missing"})
		return
	}
	c.Set(sessionKey, s.ID)
	c.Set(sessionContextKey, s)
	c.Next()
}

func session(c *gin.Context) *container.Session {
	return c.MustGet(sessionContextKey).(*container.Session)
}

// respond writes data along with the session's pending notices
func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Notices: session(c).Inbox.Drain()})
}

// badRequest reports a malformed body or parameter
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg, Notices: session(c).Inbox.Drain()})
}

// fail maps a controller error onto an HTTP status
func (h *Handlers) fail(c *gin.Context, err error) {
	kind, _ := apperr.KindOf(err)
	resp := Response{
		Success: false,
		Error:   apperr.UserMessage(err),
		Kind:    kind,
		Notices: session(c).Inbox.Drain(),
	}

	var formErr *crud.FormError
	if errors.As(err, &formErr) {
		resp.Fields = formErr.Fields
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Screen operation failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, resp)
}

func statusFor(err error) int {
	var formErr *crud.FormError
	switch {
	case errors.As(err, &formErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrPrecondition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrDataLoad), errors.Is(err, apperr.ErrMutation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// confirmation turns the confirm query parameter into a confirmer and
// remembers the prompt it was asked
type confirmation struct {
	confirmed bool
	prompt    string
}

func newConfirmation(c *gin.Context) *confirmation {
	return &confirmation{confirmed: c.Query("confirm") == "true"}
}

func (cf *confirmation) confirmer() crud.ConfirmFunc {
	return func(_ context.Context, prompt string) bool {
		cf.prompt = prompt
		return cf.confirmed
	}
}

// ConfirmationResponse asks the caller to repeat the request with
// confirm=true
type ConfirmationResponse struct {
	Confirmed bool   `json:"confirmed"`
	Prompt    string `json:"prompt,omitempty"`
}
