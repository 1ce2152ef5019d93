package expense

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/event"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
)

// HistoryPageSize is the number of expenses per history page
const HistoryPageSize = 10

const (
	searchEndpoint      = "/api/Expense/search"
	governorateDropdown = "/api/Governorate/dropdown"
	officeDropdown      = "/api/Office/dropdown"
	historyFirstPage    = 1
)

// Filter narrows the history search. Nil fields are not filtered on.
type Filter struct {
	GovernorateID *int64           `json:"governorateId"`
	OfficeID      *int64           `json:"officeId"`
	Status        *workflow.Status `json:"status"`
	StartDate     *time.Time       `json:"startDate"`
	EndDate       *time.Time       `json:"endDate"`
}

// Page is one page of history results
type Page struct {
	Items    []entity.MonthlyExpense `json:"items"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
}

// HistoryState is a snapshot of the history screen
type HistoryState struct {
	Filter       Filter            `json:"filter"`
	Page         Page              `json:"page"`
	Loading      bool              `json:"loading"`
	Governorates []entity.Option   `json:"governorates"`
	Offices      []entity.Option   `json:"offices"`
	Statuses     []workflow.Status `json:"statuses"`
	FilterLocked bool              `json:"filterLocked"`
}

// History lists monthly expenses the actor may see
type History struct {
	transport Transport
	actor     workflow.Actor
	publisher dispatcher.Publisher
	logger    Logger

	mu           sync.Mutex
	filter       Filter
	page         Page
	loading      bool
	governorates []entity.Option
	offices      []entity.Option
	generation   uint64
}

// NewHistory creates the history screen with the actor's default filter
func NewHistory(transport Transport, actor workflow.Actor, opts ...Option) *History {
	o := applyOptions(opts)
	h := &History{
		transport:    transport,
		actor:        actor,
		publisher:    o.publisher,
		logger:       o.logger,
		page:         Page{Items: []entity.MonthlyExpense{}, Page: historyFirstPage, PageSize: HistoryPageSize},
		governorates: []entity.Option{},
		offices:      []entity.Option{},
	}
	h.filter = h.defaultFilter()
	return h
}

// defaultFilter pins supervisors to their own office and preselects the
// first visible status for restricted positions
func (h *History) defaultFilter() Filter {
	var f Filter
	if h.actor.IsSupervisor() {
		f.GovernorateID = h.actor.GovernorateID
		f.OfficeID = h.actor.OfficeID
	}
	if !h.actor.Unrestricted() {
		if visible := workflow.VisibleStatuses(h.actor); len(visible) > 0 {
			s := visible[0]
			f.Status = &s
		}
	}
	return f
}

// LoadDropdowns fetches governorates and offices concurrently
func (h *History) LoadDropdowns(ctx context.Context) error {
	const op = "expense.LoadDropdowns"

	var (
		govs    []entity.Governorate
		offices []entity.Office
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := h.transport.Do(gctx, http.MethodGet, governorateDropdown, nil)
		if err != nil {
			return err
		}
		return resp.Decode(&govs)
	})
	g.Go(func() error {
		resp, err := h.transport.Do(gctx, http.MethodGet, officeDropdown, nil)
		if err != nil {
			return err
		}
		return resp.Decode(&offices)
	})
	if err := g.Wait(); err != nil {
		derr := apperr.DataLoad(op, err)
		h.fail(ctx, derr)
		return derr
	}

	h.mu.Lock()
	h.governorates = entity.GovernorateOptions(govs)
	h.offices = entity.OfficeOptions(offices)
	h.mu.Unlock()
	return nil
}

// SetFilter replaces the filter. Supervisors stay pinned to their office and
// a status outside the actor's visibility is rejected.
func (h *History) SetFilter(ctx context.Context, f Filter) error {
	const op = "expense.SetFilter"

	if f.Status != nil && !workflow.CanView(h.actor, *f.Status) {
		return h.precondition(ctx, op, "status is not visible to your position")
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return h.precondition(ctx, op, "end date is before start date")
	}
	if h.actor.IsSupervisor() {
		f.GovernorateID = h.actor.GovernorateID
		f.OfficeID = h.actor.OfficeID
	}

	h.mu.Lock()
	h.filter = f
	h.mu.Unlock()
	return nil
}

// ResetFilter restores the actor's default filter
func (h *History) ResetFilter() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filter = h.defaultFilter()
}

// Search fetches page pageNumber (1-based) with the current filter. Rows
// outside the actor's visibility are dropped.
func (h *History) Search(ctx context.Context, pageNumber int) (Page, error) {
	const op = "expense.Search"

	if pageNumber < 1 {
		pageNumber = historyFirstPage
	}

	h.mu.Lock()
	h.generation++
	gen := h.generation
	filter := h.filter
	h.loading = true
	h.mu.Unlock()

	visible := workflow.VisibleStatuses(h.actor)
	if len(visible) == 0 {
		page := Page{Items: []entity.MonthlyExpense{}, Page: pageNumber, PageSize: HistoryPageSize}
		h.store(gen, page)
		return page, nil
	}

	req := entity.ExpenseSearchRequest{
		OfficeID:         filter.OfficeID,
		GovernorateID:    filter.GovernorateID,
		ProfileID:        entity.ID(h.actor.ProfileID),
		Status:           filter.Status,
		StartDate:        filter.StartDate,
		EndDate:          filter.EndDate,
		PaginationParams: entity.PaginationParams{PageNumber: pageNumber, PageSize: HistoryPageSize},
	}
	if filter.Status == nil && !h.actor.Unrestricted() {
		req.AllowedStatuses = visible
	}

	resp, err := h.transport.Do(ctx, http.MethodPost, searchEndpoint, req)
	var result apiclient.Page[entity.MonthlyExpense]
	if err == nil {
		result, err = apiclient.DecodePage[entity.MonthlyExpense](resp)
	}
	if err != nil {
		h.mu.Lock()
		if h.generation == gen {
			h.loading = false
		}
		h.mu.Unlock()

		derr := apperr.DataLoad(op, err)
		h.fail(ctx, derr)
		return Page{}, derr
	}

	items := make([]entity.MonthlyExpense, 0, len(result.Items))
	for _, m := range result.Items {
		if workflow.CanView(h.actor, m.Status) {
			items = append(items, m)
		}
	}

	page := Page{Items: items, Total: len(items), Page: pageNumber, PageSize: HistoryPageSize}
	if result.FromHeader && len(items) == len(result.Items) {
		page.Total = result.Total
	}
	h.store(gen, page)
	return page, nil
}

func (h *History) store(gen uint64, page Page) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generation != gen {
		return
	}
	h.page = page
	h.loading = false
}

// State returns a snapshot of the history screen
func (h *History) State() HistoryState {
	h.mu.Lock()
	defer h.mu.Unlock()

	return HistoryState{
		Filter:       h.filter,
		Page:         Page{Items: append([]entity.MonthlyExpense{}, h.page.Items...), Total: h.page.Total, Page: h.page.Page, PageSize: h.page.PageSize},
		Loading:      h.loading,
		Governorates: append([]entity.Option{}, h.governorates...),
		Offices:      append([]entity.Option{}, h.offices...),
		Statuses:     workflow.VisibleStatuses(h.actor),
		FilterLocked: h.actor.IsSupervisor(),
	}
}

func (h *History) precondition(ctx context.Context, op, msg string) error {
	err := apperr.Precondition(op, msg)
	h.fail(ctx, err)
	return err
}

func (h *History) fail(ctx context.Context, err error) {
	if h.logger != nil {
		h.logger.Error("Expense history operation failed", "error", err)
	}
	if h.publisher != nil {
		h.publisher.Publish(ctx, event.Failure(source, apperr.UserMessage(err)))
	}
}
