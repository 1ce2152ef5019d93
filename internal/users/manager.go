// Package users implements the admin user management screen: reference
// dropdowns, the paginated profile search and account registration/update.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/event"
)

const source = "users"

// DefaultPageSize is the profile search page size
const DefaultPageSize = 10

const (
	governorateDropdown = "/api/Governorate/dropdown"
	rolesEndpoint       = "/api/profile/all-roles"
	searchEndpoint      = "/api/profile/search"
	registerEndpoint    = "/api/account/register"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Transport issues API requests
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (*apiclient.Response, error)
}

// Page is one page of profiles
type Page struct {
	Items    []entity.Profile `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// State is a snapshot of the screen
type State struct {
	Governorates []entity.Option      `json:"governorates"`
	Roles        []string             `json:"roles"`
	Ready        bool                 `json:"ready"`
	Filter       entity.ProfileFilter `json:"filter"`
	Page         Page                 `json:"page"`
	Loading      bool                 `json:"loading"`
	Saving       bool                 `json:"saving"`
}

// Manager drives the user management screen
type Manager struct {
	transport Transport
	publisher dispatcher.Publisher
	logger    Logger
	validate  *validator.Validate

	mu           sync.Mutex
	governorates []entity.Option
	roles        []string
	ready        bool
	filter       entity.ProfileFilter
	page         Page
	loading      bool
	saving       bool
}

// Option configures the manager
type Option func(*Manager)

// WithPublisher sets where notices and user events go
func WithPublisher(p dispatcher.Publisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithLogger sets a logger
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates the user management screen
func NewManager(transport Transport, opts ...Option) *Manager {
	m := &Manager{
		transport:    transport,
		validate:     validator.New(),
		governorates: []entity.Option{},
		roles:        []string{},
		filter:       entity.ProfileFilter{Roles: []string{}},
		page:         Page{Items: []entity.Profile{}, Page: 1, PageSize: DefaultPageSize},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadReferenceData fetches governorates and roles concurrently. The screen
// is ready only when both arrive.
func (m *Manager) LoadReferenceData(ctx context.Context) error {
	const op = "users.LoadReferenceData"

	var (
		govs  []entity.Governorate
		roles []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := m.transport.Do(gctx, http.MethodGet, governorateDropdown, nil)
		if err != nil {
			return err
		}
		return resp.Decode(&govs)
	})
	g.Go(func() error {
		resp, err := m.transport.Do(gctx, http.MethodGet, rolesEndpoint, nil)
		if err != nil {
			return err
		}
		return resp.Decode(&roles)
	})
	if err := g.Wait(); err != nil {
		derr := apperr.DataLoad(op, err)
		derr.Message = "failed to load dropdown data"
		m.fail(ctx, derr)
		return derr
	}

	m.mu.Lock()
	m.governorates = entity.GovernorateOptions(govs)
	m.roles = roles
	m.ready = true
	m.mu.Unlock()
	return nil
}

// OfficesOf returns the offices of a governorate
func (m *Manager) OfficesOf(ctx context.Context, governorateID int64) ([]entity.Office, error) {
	const op = "users.OfficesOf"

	path := governorateDropdown + "/" + url.PathEscape(strconv.FormatInt(governorateID, 10))
	resp, err := m.transport.Do(ctx, http.MethodGet, path, nil)
	var govs []entity.Governorate
	if err == nil {
		err = resp.Decode(&govs)
	}
	if err != nil {
		derr := apperr.DataLoad(op, err)
		derr.Message = "failed to load offices"
		m.fail(ctx, derr)
		return nil, derr
	}

	if len(govs) == 0 || govs[0].Offices == nil {
		return []entity.Office{}, nil
	}
	return govs[0].Offices, nil
}

// Search runs the profile search with filter. pageSize <= 0 uses the default.
func (m *Manager) Search(ctx context.Context, filter entity.ProfileFilter, page, pageSize int) (Page, error) {
	const op = "users.Search"

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if filter.Roles == nil {
		filter.Roles = []string{}
	}
	filter.FullName = strings.TrimSpace(filter.FullName)

	m.mu.Lock()
	m.filter = filter
	m.loading = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	req := entity.ProfileSearchRequest{ProfileFilter: filter}
	req.PaginationParams.PageNumber = page
	req.PaginationParams.PageSize = pageSize

	resp, err := m.transport.Do(ctx, http.MethodPost, searchEndpoint, req)
	var result apiclient.Page[entity.Profile]
	if err == nil {
		result, err = apiclient.DecodePage[entity.Profile](resp)
	}
	if err != nil {
		derr := apperr.DataLoad(op, err)
		m.fail(ctx, derr)
		return Page{}, derr
	}

	out := Page{Items: result.Items, Total: result.Total, Page: page, PageSize: pageSize}
	m.mu.Lock()
	m.page = out
	m.mu.Unlock()
	return out, nil
}

// ResetFilter clears the filter and returns to the first page
func (m *Manager) ResetFilter(ctx context.Context) (Page, error) {
	m.mu.Lock()
	size := m.page.PageSize
	m.mu.Unlock()
	return m.Search(ctx, entity.ProfileFilter{}, 1, size)
}

// Register creates an account and refreshes the current page
func (m *Manager) Register(ctx context.Context, req entity.RegisterRequest) error {
	const op = "users.Register"

	req.UserName = strings.TrimSpace(req.UserName)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := m.check(ctx, op, req); err != nil {
		return err
	}

	if err := m.begin(ctx, op); err != nil {
		return err
	}
	defer m.end()

	if _, err := m.transport.Do(ctx, http.MethodPost, registerEndpoint, req); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to add the user"
		m.fail(ctx, merr)
		return merr
	}

	m.publish(ctx, event.Success(source, "user added"))
	m.publish(ctx, event.NewEvent(event.TypeUserRegistered, source, map[string]any{"username": req.UserName}))
	m.refresh(ctx)
	return nil
}

// Update saves an account and refreshes the current page. An empty new
// password leaves the password unchanged.
func (m *Manager) Update(ctx context.Context, req entity.UpdateAccountRequest) error {
	const op = "users.Update"

	req.FullName = strings.TrimSpace(req.FullName)
	if err := m.check(ctx, op, req); err != nil {
		return err
	}

	if err := m.begin(ctx, op); err != nil {
		return err
	}
	defer m.end()

	path := "/api/account/" + url.PathEscape(req.UserID.String())
	if _, err := m.transport.Do(ctx, http.MethodPut, path, req); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to update the user"
		m.fail(ctx, merr)
		return merr
	}

	m.publish(ctx, event.Success(source, "user updated"))
	m.publish(ctx, event.NewEvent(event.TypeUserUpdated, source, map[string]any{"user_id": req.UserID.String()}))
	m.refresh(ctx)
	return nil
}

// State returns a snapshot of the screen
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{
		Governorates: append([]entity.Option{}, m.governorates...),
		Roles:        append([]string{}, m.roles...),
		Ready:        m.ready,
		Filter:       m.filter,
		Page:         Page{Items: append([]entity.Profile{}, m.page.Items...), Total: m.page.Total, Page: m.page.Page, PageSize: m.page.PageSize},
		Loading:      m.loading,
		Saving:       m.saving,
	}
}

// check validates a request body, reporting one message per failed field
func (m *Manager) check(ctx context.Context, op string, req any) error {
	err := m.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		perr := apperr.Precondition(op, "invalid request")
		perr.Err = err
		m.fail(ctx, perr)
		return perr
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	perr := apperr.Precondition(op, strings.Join(msgs, "; "))
	perr.Err = err
	m.fail(ctx, perr)
	return perr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s characters or items", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func (m *Manager) begin(ctx context.Context, op string) error {
	m.mu.Lock()
	busy := m.saving
	if !busy {
		m.saving = true
	}
	m.mu.Unlock()

	if busy {
		err := apperr.Precondition(op, "another request is in progress")
		m.fail(ctx, err)
		return err
	}
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	m.saving = false
	m.mu.Unlock()
}

func (m *Manager) refresh(ctx context.Context) {
	m.mu.Lock()
	filter, page, size := m.filter, m.page.Page, m.page.PageSize
	m.mu.Unlock()
	_, _ = m.Search(ctx, filter, page, size)
}

func (m *Manager) fail(ctx context.Context, err error) {
	if m.logger != nil {
		m.logger.Error("User management operation failed", "error", err)
	}
	m.publish(ctx, event.Failure(source, apperr.UserMessage(err)))
}

func (m *Manager) publish(ctx context.Context, evt *event.Event) {
	if m.publisher != nil {
		m.publisher.Publish(ctx, evt)
	}
}
