// Package expense implements the supervisor's monthly expense screens: the
// approval viewer for one aggregate and the searchable history list.
package expense

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/event"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
	"github.com/garyjia/expense-admin/pkg/utils"
)

const source = "expense"

// ActionsEndpoint receives the audit trail entry of a send
const ActionsEndpoint = "/api/Actions"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Transport issues API requests
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (*apiclient.Response, error)
}

// Confirmer asks the user to approve an irreversible action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Outcome tells the caller what to do after a successful transition
type Outcome struct {
	NavigateBack bool            `json:"navigateBack"`
	NewStatus    workflow.Status `json:"newStatus"`
}

// ViewState is a snapshot of the viewer
type ViewState struct {
	Expense   *entity.MonthlyExpense `json:"expense"`
	Items     []entity.DailyExpense  `json:"items"`
	Loading   bool                   `json:"loading"`
	Acting    bool                   `json:"acting"`
	Note      string                 `json:"note"`
	Action    *workflow.Action       `json:"action"`
	StatusTag string                 `json:"statusTag,omitempty"`
}

// Viewer shows one monthly expense with its line items and offers the single
// workflow transition the actor may take
type Viewer struct {
	transport Transport
	actor     workflow.Actor
	publisher dispatcher.Publisher
	logger    Logger

	mu      sync.Mutex
	id      string
	expense *entity.MonthlyExpense
	items   []entity.DailyExpense
	loading bool
	acting  bool
	note    string

	// generation advances on every Load; responses for an older
	// generation are dropped
	generation uint64
}

// Option configures a viewer or history
type Option func(*options)

type options struct {
	publisher dispatcher.Publisher
	logger    Logger
}

// WithPublisher sets where notices and workflow events go
func WithPublisher(p dispatcher.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithLogger sets a logger
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewViewer creates a viewer acting on behalf of actor
func NewViewer(transport Transport, actor workflow.Actor, opts ...Option) *Viewer {
	o := applyOptions(opts)
	return &Viewer{
		transport: transport,
		actor:     actor,
		publisher: o.publisher,
		logger:    o.logger,
		items:     []entity.DailyExpense{},
	}
}

// Load fetches the aggregate and its line items concurrently. Both must
// arrive for the view to update, and only the most recent Load may update it.
func (v *Viewer) Load(ctx context.Context, id string) error {
	const op = "expense.Load"

	id = strings.TrimSpace(id)
	if id == "" {
		return v.precondition(ctx, op, "expense identifier is missing")
	}

	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.loading = true
	v.mu.Unlock()

	base := "/api/Expense/" + url.PathEscape(id)
	var (
		monthly entity.MonthlyExpense
		wire    []entity.DailyExpenseWire
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := v.transport.Do(gctx, http.MethodGet, base, nil)
		if err != nil {
			return err
		}
		return resp.Decode(&monthly)
	})
	g.Go(func() error {
		resp, err := v.transport.Do(gctx, http.MethodGet, base+"/daily-expenses", nil)
		if err != nil {
			return err
		}
		return resp.Decode(&wire)
	})
	err := g.Wait()

	v.mu.Lock()
	if v.generation != gen {
		v.mu.Unlock()
		if v.logger != nil {
			v.logger.Info("Discarding stale expense response", "expense_id", id)
		}
		return nil
	}
	v.loading = false
	if err != nil {
		v.mu.Unlock()
		derr := apperr.DataLoad(op, err)
		v.fail(ctx, derr)
		return derr
	}

	items := make([]entity.DailyExpense, 0, len(wire))
	for _, w := range wire {
		items = append(items, w.ToDailyExpense())
	}
	if monthly.ID.IsZero() {
		monthly.ID = entity.ID(id)
	}
	v.id = id
	v.expense = &monthly
	v.items = items
	v.note = ""
	v.mu.Unlock()
	return nil
}

// AvailableAction returns the transition offered for the loaded expense, or
// nil when nothing is loaded or nothing is offered
func (v *Viewer) AvailableAction() *workflow.Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.actionLocked()
}

func (v *Viewer) actionLocked() *workflow.Action {
	if v.expense == nil {
		return nil
	}
	return workflow.Transition(v.expense.Status, v.actor)
}

// SetNote stores the text of the send dialog
func (v *Viewer) SetNote(note string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.note = note
}

// Send moves the expense to SentToProjectCoordinator and records an
// Approval action tagged with the actor. An empty note falls back to the
// stored dialog text, then to the backend defaults.
func (v *Viewer) Send(ctx context.Context, notes string) (Outcome, error) {
	const op = "expense.Send"

	id, target, err := v.begin(ctx, op, workflow.TriggerSend)
	if err != nil {
		return Outcome{}, err
	}
	defer v.end()

	v.mu.Lock()
	if strings.TrimSpace(notes) == "" {
		notes = v.note
	}
	v.mu.Unlock()

	notes = utils.SanitizeNote(notes)
	if err := utils.ValidateNote(notes); err != nil {
		perr := apperr.Precondition(op, err.Error())
		v.fail(ctx, perr)
		return Outcome{}, perr
	}
	if strings.TrimSpace(v.actor.ProfileID) == "" {
		return Outcome{}, v.precondition(ctx, op, "signed-in profile is unknown")
	}

	if err := v.postStatus(ctx, id, target, utils.NoteOrDefault(notes, workflow.DefaultSendStatusNote)); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to send the expense"
		v.fail(ctx, merr)
		return Outcome{}, merr
	}

	action := entity.ActionRequest{
		ActionType:        workflow.ActionTypeApproval,
		Notes:             utils.NoteOrDefault(notes, workflow.DefaultSendActionNote),
		ProfileID:         entity.ID(v.actor.ProfileID),
		MonthlyExpensesID: entity.ID(id),
	}
	if _, err := v.transport.Do(ctx, http.MethodPost, ActionsEndpoint, action); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "status was changed but the approval could not be recorded"
		v.fail(ctx, merr)
		return Outcome{}, merr
	}

	v.publish(ctx, event.NewEvent(event.TypeActionRecorded, source, map[string]any{
		"expense_id": id,
		"profile_id": v.actor.ProfileID,
	}))
	v.publish(ctx, event.Success(source, "expense sent"))
	return Outcome{NavigateBack: true, NewStatus: target}, nil
}

// Complete marks the expense Completed after the confirmer agrees. A
// refusal issues nothing and returns a zero Outcome.
func (v *Viewer) Complete(ctx context.Context, confirmer Confirmer) (Outcome, error) {
	const op = "expense.Complete"

	if confirmer == nil {
		return Outcome{}, v.precondition(ctx, op, "completion must be confirmed")
	}

	id, target, err := v.begin(ctx, op, workflow.TriggerComplete)
	if err != nil {
		return Outcome{}, err
	}
	defer v.end()

	if !confirmer.Confirm(ctx, "Are you sure you want to complete this expense?") {
		return Outcome{}, nil
	}

	if err := v.postStatus(ctx, id, target, workflow.CompleteStatusNote); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to complete the expense"
		v.fail(ctx, merr)
		return Outcome{}, merr
	}

	v.publish(ctx, event.Success(source, "expense completed"))
	return Outcome{NavigateBack: true, NewStatus: target}, nil
}

// State returns a snapshot of the viewer
func (v *Viewer) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := ViewState{
		Items:   append([]entity.DailyExpense{}, v.items...),
		Loading: v.loading,
		Acting:  v.acting,
		Note:    v.note,
		Action:  v.actionLocked(),
	}
	if v.expense != nil {
		cp := *v.expense
		st.Expense = &cp
		st.StatusTag = StatusTag(cp.Status)
	}
	return st
}

// StatusTag is the highlight class a status is rendered with; most statuses
// have none
func StatusTag(s workflow.Status) string {
	switch s {
	case workflow.StatusReturnedToSupervisor:
		return "returned"
	case workflow.StatusRecievedBySupervisor:
		return "received"
	case workflow.StatusCompleted:
		return "completed"
	default:
		return ""
	}
}

// begin runs trigger through the approval machine for the loaded status and
// claims the action slot. It returns the expense id and the target status.
func (v *Viewer) begin(ctx context.Context, op string, trigger workflow.Trigger) (string, workflow.Status, error) {
	v.mu.Lock()
	var (
		blocked string
		target  workflow.Status
	)
	switch {
	case v.loading:
		blocked = "the expense is still loading"
	case v.expense == nil || v.id == "":
		blocked = "no expense is loaded"
	case v.acting:
		blocked = "another action is in progress"
	default:
		machine := workflow.NewApprovalMachine(v.expense.Status)
		to, err := machine.Fire(trigger, v.actor)
		if err != nil {
			blocked = fmt.Sprintf("%s is not available for status %s", strings.ToLower(trigger.String()), machine.State())
			break
		}
		target = to
		v.acting = true
	}
	id := v.id
	v.mu.Unlock()

	if blocked != "" {
		return "", 0, v.precondition(ctx, op, blocked)
	}
	return id, target, nil
}

func (v *Viewer) end() {
	v.mu.Lock()
	v.acting = false
	v.mu.Unlock()
}

func (v *Viewer) postStatus(ctx context.Context, id string, status workflow.Status, notes string) error {
	req := entity.StatusChangeRequest{
		MonthlyExpensesID: entity.ID(id),
		NewStatus:         status,
		Notes:             notes,
	}
	if _, err := v.transport.Do(ctx, http.MethodPost, "/api/Expense/"+url.PathEscape(id)+"/status", req); err != nil {
		return err
	}
	v.publish(ctx, event.NewEvent(event.TypeStatusChanged, source, map[string]any{
		"expense_id": id,
		"status":     int(status),
	}))
	return nil
}

func (v *Viewer) precondition(ctx context.Context, op, msg string) error {
	err := apperr.Precondition(op, msg)
	v.fail(ctx, err)
	return err
}

func (v *Viewer) fail(ctx context.Context, err error) {
	if v.logger != nil {
		v.logger.Error("Expense operation failed", "error", err, "profile_id", v.actor.ProfileID)
	}
	v.publish(ctx, event.Failure(source, apperr.UserMessage(err)))
}

func (v *Viewer) publish(ctx context.Context, evt *event.Event) {
	if v.publisher != nil {
		v.publisher.Publish(ctx, evt)
	}
}
