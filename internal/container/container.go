package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/attendance"
	"github.com/garyjia/expense-admin/internal/config"
	"github.com/garyjia/expense-admin/internal/crud"
	"github.com/garyjia/expense-admin/internal/domain/event"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
	"github.com/garyjia/expense-admin/internal/expense"
	"github.com/garyjia/expense-admin/internal/export"
	"github.com/garyjia/expense-admin/internal/registry"
	"github.com/garyjia/expense-admin/internal/users"
)

// Container holds the shared dependencies and the live sessions. Each
// session gets its own controllers so screen state never leaks between
// users.
type Container struct {
	config *config.Config
	logger *zap.Logger

	registry *registry.Registry
	client   *apiclient.Client
	exporter *export.ExcelWriter

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   atomic.Bool
	now      func() time.Time
}

// Handler names a session subscribes on its dispatcher
const (
	activityLogName = "activity-log"
	inboxName       = "inbox"
)

// Session is one signed-in user's set of screen controllers
type Session struct {
	ID        string
	Actor     workflow.Actor
	CreatedAt time.Time

	Dispatcher *dispatcher.Dispatcher
	Inbox      *dispatcher.Inbox

	LOV        *crud.Engine
	Expense    *expense.Viewer
	History    *expense.History
	Users      *users.Manager
	Attendance *attendance.Report

	lastSeen atomic.Int64
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer builds the registry, API client and exporter from configuration
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	reg, err := registry.LoadFile(cfg.Registry.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resource registry: %w", err)
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		RequestIDHeader: cfg.API.RequestIDHeader,
	}, apiclient.StaticToken(cfg.API.Token), NewLogger(logger.Named("api")))
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	logger.Info("Container initialized",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Int("resources", len(reg.Menu())))

	return &Container{
		config:   cfg,
		logger:   logger,
		registry: reg,
		client:   client,
		exporter: export.NewExcelWriter(cfg.Export.OutputDir, logger.Named("export")),
		sessions: make(map[string]*Session),
		now:      time.Now,
	}, nil
}

// NewSession creates controllers for an actor authenticated with token. An
// empty token falls back to the configured operator token, which only the
// command-line tools rely on.
func (c *Container) NewSession(token string, actor workflow.Actor) (*Session, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("container has been closed")
	}

	client := c.client
	if token != "" {
		client = c.client.WithToken(apiclient.StaticToken(token))
	}

	id := uuid.NewString()
	sessionLogger := c.logger.With(zap.String("session_id", id), zap.String("profile_id", actor.ProfileID))
	kv := NewLogger(sessionLogger)

	d := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	d.Subscribe("", activityLogName, activityLogger(sessionLogger))

	s := &Session{
		ID:         id,
		Actor:      actor,
		CreatedAt:  c.now(),
		Dispatcher: d,
		Inbox:      dispatcher.NewInbox(d, inboxName),
		LOV:        crud.NewEngine(client, c.registry, crud.WithPublisher(d), crud.WithLogger(kv)),
		Expense:    expense.NewViewer(client, actor, expense.WithPublisher(d), expense.WithLogger(kv)),
		History:    expense.NewHistory(client, actor, expense.WithPublisher(d), expense.WithLogger(kv)),
		Users:      users.NewManager(client, users.WithPublisher(d), users.WithLogger(kv)),
		Attendance: attendance.NewReport(client, d, kv),
	}
	s.touch(c.now())

	c.mu.Lock()
	c.sessions[id] = s
	c.mu.Unlock()

	sessionLogger.Info("Session opened", zap.String("position", string(actor.Position)))
	return s, nil
}

// Session returns a live session and marks it as used
func (c *Container) Session(id string) (*Session, bool) {
	c.mu.RLock()
	s, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if ttl := c.config.Server.SessionTTL; ttl > 0 && c.now().Sub(s.LastSeen()) > ttl {
		c.CloseSession(id)
		return nil, false
	}
	s.touch(c.now())
	return s, true
}

// CloseSession forgets a session
func (c *Container) CloseSession(id string) {
	c.mu.Lock()
	s, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()

	if ok {
		s.detach()
		c.logger.Info("Session closed", zap.String("session_id", id))
	}
}

// SweepExpired closes sessions idle for longer than the configured TTL and
// returns how many were closed
func (c *Container) SweepExpired() int {
	ttl := c.config.Server.SessionTTL
	if ttl <= 0 {
		return 0
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, s := range c.sessions {
		if now.Sub(s.LastSeen()) > ttl {
			delete(c.sessions, id)
			s.detach()
			n++
		}
	}
	if n > 0 {
		c.logger.Info("Expired sessions swept", zap.Int("count", n))
	}
	return n
}

// RunSweeper sweeps expired sessions every interval until ctx is done
func (c *Container) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepExpired()
		}
	}
}

// Close drops every session. A closed container refuses new sessions.
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("container already closed")
	}

	c.mu.Lock()
	n := len(c.sessions)
	for _, s := range c.sessions {
		s.detach()
	}
	c.sessions = make(map[string]*Session)
	c.mu.Unlock()

	c.logger.Info("Container closed", zap.Int("sessions_dropped", n))
	return nil
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if err := c.registry.Validate(); err != nil {
		status.Components["registry"] = ComponentHealth{Healthy: false, Message: err.Error()}
		status.Overall = false
	} else {
		status.Components["registry"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("resources: %d", len(c.registry.Menu())),
		}
	}

	c.mu.RLock()
	n := len(c.sessions)
	c.mu.RUnlock()
	status.Components["sessions"] = ComponentHealth{
		Healthy: !c.closed.Load(),
		Message: fmt.Sprintf("active: %d", n),
	}
	if c.closed.Load() {
		status.Overall = false
	}

	return status
}

// Registry returns the resource registry.
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// Client returns the API client authenticated with the configured token.
func (c *Container) Client() *apiclient.Client {
	return c.client
}

// Exporter returns the xlsx writer.
func (c *Container) Exporter() *export.ExcelWriter {
	return c.exporter
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(t time.Time) {
	s.lastSeen.Store(t.UnixNano())
}

// detach drops the session's subscriptions so late events from requests
// still in flight go nowhere
func (s *Session) detach() {
	s.Dispatcher.Unsubscribe("", activityLogName)
	s.Dispatcher.Unsubscribe(event.TypeNotice, inboxName)
}

// activityLogger records every non-notice event a session's controllers
// publish
func activityLogger(logger *zap.Logger) dispatcher.Handler {
	return func(_ context.Context, evt *event.Event) error {
		if evt.IsNotice() {
			return nil
		}
		logger.Info("Screen event",
			zap.String("event_type", evt.Type.String()),
			zap.String("source", evt.Source),
			zap.Any("payload", evt.Payload))
		return nil
	}
}
