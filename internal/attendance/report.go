// Package attendance implements the unavailable-offices report: which offices
// submitted no attendance for a day and shift.
package attendance

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/event"
)

const (
	source              = "attendance"
	unavailableEndpoint = "/api/Attendance/statistics/unavailable"
	governorateDropdown = "/api/Governorate/dropdown"
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

// Query selects the report. A nil Date blocks the query; zero WorkingHours
// means the whole day; a nil GovernorateID covers every governorate.
type Query struct {
	Date          *time.Time          `json:"date"`
	WorkingHours  entity.WorkingHours `json:"workingHours"`
	GovernorateID *int64              `json:"governorateId"`
}

// State is a snapshot of the report screen
type State struct {
	Governorates []entity.Option `json:"governorates"`
	Offices      []string        `json:"offices"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
}

// Report drives the unavailable-offices screen
type Report struct {
	transport Transport
	publisher dispatcher.Publisher
	logger    Logger

	mu           sync.Mutex
	governorates []entity.Option
	offices      []string
	loading      bool
	lastErr      string
}

// NewReport creates the report screen
func NewReport(transport Transport, publisher dispatcher.Publisher, logger Logger) *Report {
	return &Report{
		transport:    transport,
		publisher:    publisher,
		logger:       logger,
		governorates: []entity.Option{},
		offices:      []string{},
	}
}

// LoadGovernorates fills the governorate filter; its first option is "All"
// with a nil value
func (r *Report) LoadGovernorates(ctx context.Context) error {
	var govs []entity.Governorate
	resp, err := r.transport.Do(ctx, http.MethodGet, governorateDropdown, nil)
	if err == nil {
		err = resp.Decode(&govs)
	}
	if err != nil {
		derr := apperr.DataLoad("attendance.LoadGovernorates", err)
		r.fail(ctx, derr)
		return derr
	}

	options := append([]entity.Option{{Value: nil, Label: "All"}}, entity.GovernorateOptions(govs)...)
	r.mu.Lock()
	r.governorates = options
	r.mu.Unlock()
	return nil
}

// Unavailable runs the report. The previous result is cleared before the
// request goes out.
func (r *Report) Unavailable(ctx context.Context, q Query) ([]string, error) {
	const op = "attendance.Unavailable"

	if q.Date == nil || q.Date.IsZero() {
		err := apperr.Precondition(op, "please choose a date")
		r.fail(ctx, err)
		return nil, err
	}
	if q.WorkingHours == 0 {
		q.WorkingHours = entity.WorkingHoursAll
	}
	if !q.WorkingHours.IsValid() {
		err := apperr.Precondition(op, "working hours must be morning, evening or all")
		r.fail(ctx, err)
		return nil, err
	}

	r.mu.Lock()
	r.loading = true
	r.offices = []string{}
	r.lastErr = ""
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.loading = false
		r.mu.Unlock()
	}()

	req := entity.NewUnavailableRequest(*q.Date, q.WorkingHours, q.GovernorateID)
	resp, err := r.transport.Do(ctx, http.MethodPost, unavailableEndpoint, req)
	var offices []string
	if err == nil {
		err = resp.Decode(&offices)
	}
	if err != nil {
		derr := apperr.DataLoad(op, err)
		r.fail(ctx, derr)
		return nil, derr
	}
	if offices == nil {
		offices = []string{}
	}

	r.mu.Lock()
	r.offices = offices
	r.mu.Unlock()
	return offices, nil
}

// State returns a snapshot of the report
func (r *Report) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{
		Governorates: append([]entity.Option{}, r.governorates...),
		Offices:      append([]string{}, r.offices...),
		Loading:      r.loading,
		Error:        r.lastErr,
	}
}

func (r *Report) fail(ctx context.Context, err error) {
	msg := apperr.UserMessage(err)
	r.mu.Lock()
	r.lastErr = msg
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Error("Attendance report failed", "error", err)
	}
	if r.publisher != nil {
		r.publisher.Publish(ctx, event.Failure(source, msg))
	}
}
