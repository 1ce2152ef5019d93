// Package crud implements the list-of-values screen: one engine that lists,
// creates, updates and deletes any entity the registry describes.
package crud

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/event"
	"github.com/garyjia/expense-admin/internal/registry"
)

// source tags events published by the engine
const source = "lov"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Transport issues API requests
type Transport interface {
	Do(ctx context.Context, method, path string, body any) (*apiclient.Response, error)
}

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// ModalMode is the state of the add/edit dialog
type ModalMode string

const (
	ModalClosed ModalMode = "closed"
	ModalAdd    ModalMode = "add"
	ModalEdit   ModalMode = "edit"
)

// Modal is the add/edit dialog. EditID is set only in edit mode.
type Modal struct {
	Mode   ModalMode      `json:"mode"`
	EditID string         `json:"editId,omitempty"`
	Values map[string]any `json:"values,omitempty"`
}

// State is a snapshot of the engine for rendering
type State struct {
	Path    string               `json:"path"`
	Label   string               `json:"label"`
	Fields  []registry.FormField `json:"fields"`
	Rows    []entity.Record      `json:"rows"`
	Loading bool                 `json:"loading"`
	Modal   Modal                `json:"modal"`
}

// Engine drives one list-of-values screen. It is safe for concurrent use:
// reads may overlap, mutations are serialized.
type Engine struct {
	transport Transport
	registry  *registry.Registry
	publisher dispatcher.Publisher
	logger    Logger
	validate  *validator.Validate

	mu       sync.Mutex
	config   *registry.ResourceConfig
	fields   []registry.FormField
	rows     []entity.Record
	pending  int
	mutating bool
	modal    Modal
	// generation advances on every selection; list responses for an older
	// generation are dropped
	generation uint64
}

// Option configures the engine
type Option func(*Engine)

// WithPublisher sets where notices and record events go
func WithPublisher(p dispatcher.Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithLogger sets a logger for the engine
func WithLogger(logger Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine over the registry's entities
func NewEngine(transport Transport, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		registry:  reg,
		validate:  validator.New(),
		rows:      []entity.Record{},
		modal:     Modal{Mode: ModalClosed},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Menu returns the selectable entities
func (e *Engine) Menu() []registry.MenuItem {
	return e.registry.Menu()
}

// SelectEntity makes path the active entity and lists it. An unknown path
// leaves the state untouched.
func (e *Engine) SelectEntity(ctx context.Context, path string) error {
	const op = "crud.SelectEntity"

	cfg, ok := e.registry.Lookup(path)
	if !ok {
		err := apperr.ConfigNotFound(op, path)
		e.fail(ctx, err)
		return err
	}

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.config = cfg
	e.fields = append([]registry.FormField{}, cfg.FormFields...)
	e.rows = []entity.Record{}
	e.modal = Modal{Mode: ModalClosed}
	e.mu.Unlock()

	e.publish(ctx, event.NewEvent(event.TypeEntitySelected, source, map[string]any{"path": path}))

	e.loadOptions(ctx, gen, cfg)
	return e.List(ctx)
}

// List fetches the active entity's rows. On failure the rows are cleared.
func (e *Engine) List(ctx context.Context) error {
	const op = "crud.List"

	e.mu.Lock()
	cfg := e.config
	gen := e.generation
	if cfg == nil {
		e.mu.Unlock()
		return e.precondition(ctx, op, "select an entity first")
	}
	e.pending++
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.pending--
		e.mu.Unlock()
	}()

	return e.fetch(ctx, op, gen, cfg)
}

// Create posts values to the active entity and re-lists
func (e *Engine) Create(ctx context.Context, values map[string]any) error {
	const op = "crud.Create"

	cfg, gen, err := e.beginMutation(ctx, op)
	if err != nil {
		return err
	}
	defer e.endMutation()

	payload, err := e.checkForm(ctx, op, values)
	if err != nil {
		return err
	}

	if _, err := e.transport.Do(ctx, http.MethodPost, cfg.PostEndpoint, payload); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to add the record"
		e.fail(ctx, merr)
		return merr
	}

	e.mu.Lock()
	if e.generation == gen {
		e.modal = Modal{Mode: ModalClosed}
	}
	e.mu.Unlock()

	e.publish(ctx, event.Success(source, "record added"))
	e.publish(ctx, event.NewEvent(event.TypeRecordCreated, source, map[string]any{"path": cfg.Path}))

	e.refresh(ctx, gen, cfg)
	return nil
}

// Update sends values for the record id. Only 200 and 204 count as success.
func (e *Engine) Update(ctx context.Context, id string, values map[string]any) error {
	const op = "crud.Update"

	id = strings.TrimSpace(id)
	if id == "" {
		return e.precondition(ctx, op, "update data is incomplete")
	}
	if e.isFallbackKey(id) {
		return e.precondition(ctx, op, "this record has no identifier and cannot be edited")
	}

	cfg, gen, err := e.beginMutation(ctx, op)
	if err != nil {
		return err
	}
	defer e.endMutation()

	payload, err := e.checkForm(ctx, op, values)
	if err != nil {
		return err
	}

	req, err := registry.BuildUpdate(cfg, id, payload)
	if err != nil {
		perr := apperr.Precondition(op, "update data is invalid")
		perr.Err = err
		e.fail(ctx, perr)
		return perr
	}

	if err := e.send(ctx, http.MethodPut, req.Endpoint, req.Payload); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to update the record"
		e.fail(ctx, merr)
		return merr
	}

	e.mu.Lock()
	if e.generation == gen {
		e.modal = Modal{Mode: ModalClosed}
	}
	e.mu.Unlock()

	e.publish(ctx, event.Success(source, "record updated"))
	e.publish(ctx, event.NewEvent(event.TypeRecordUpdated, source, map[string]any{"path": cfg.Path, "id": id}))

	e.refresh(ctx, gen, cfg)
	return nil
}

// Remove deletes the record id after the confirmer agrees. A refusal issues
// no request and returns nil.
func (e *Engine) Remove(ctx context.Context, id string, confirmer Confirmer) error {
	const op = "crud.Remove"

	id = strings.TrimSpace(id)
	if id == "" {
		return e.precondition(ctx, op, "record identifier is missing")
	}
	if e.isFallbackKey(id) {
		return e.precondition(ctx, op, "this record has no identifier and cannot be deleted")
	}
	if confirmer == nil {
		return e.precondition(ctx, op, "deletion must be confirmed")
	}

	cfg, gen, err := e.beginMutation(ctx, op)
	if err != nil {
		return err
	}
	defer e.endMutation()

	if !confirmer.Confirm(ctx, "Are you sure you want to delete this record?") {
		return nil
	}

	if err := e.send(ctx, http.MethodDelete, cfg.DeleteURL(id), nil); err != nil {
		merr := apperr.Mutation(op, err)
		merr.Message = "failed to delete the record"
		e.fail(ctx, merr)
		return merr
	}

	e.publish(ctx, event.Success(source, "record deleted"))
	e.publish(ctx, event.NewEvent(event.TypeRecordDeleted, source, map[string]any{"path": cfg.Path, "id": id}))

	e.refresh(ctx, gen, cfg)
	return nil
}

// OpenAdd opens an empty add dialog
func (e *Engine) OpenAdd(ctx context.Context) error {
	e.mu.Lock()
	selected := e.config != nil
	if selected {
		e.modal = Modal{Mode: ModalAdd, Values: map[string]any{}}
	}
	e.mu.Unlock()

	if !selected {
		return e.precondition(ctx, "crud.OpenAdd", "select an entity first")
	}
	return nil
}

// OpenEdit opens the edit dialog prefilled from record. Records without a
// server identifier cannot be edited.
func (e *Engine) OpenEdit(ctx context.Context, record entity.Record) error {
	const op = "crud.OpenEdit"

	id, ok := record.ID()
	if !ok {
		return e.precondition(ctx, op, "record identifier is missing")
	}

	e.mu.Lock()
	selected := e.config != nil
	if selected {
		values := make(map[string]any, len(e.fields))
		for _, f := range e.fields {
			if v, ok := record.Fields[f.Name]; ok {
				values[f.Name] = v
			}
		}
		e.modal = Modal{Mode: ModalEdit, EditID: id, Values: values}
	}
	e.mu.Unlock()

	if !selected {
		return e.precondition(ctx, op, "select an entity first")
	}
	return nil
}

// CloseModal closes the dialog and forgets the edit target
func (e *Engine) CloseModal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modal = Modal{Mode: ModalClosed}
}

// Submit creates or updates depending on the dialog mode
func (e *Engine) Submit(ctx context.Context, values map[string]any) error {
	e.mu.Lock()
	modal := e.modal
	e.mu.Unlock()

	switch modal.Mode {
	case ModalAdd:
		return e.Create(ctx, values)
	case ModalEdit:
		return e.Update(ctx, modal.EditID, values)
	default:
		return e.precondition(ctx, "crud.Submit", "no form is open")
	}
}

// Record returns the listed row with the given key
func (e *Engine) Record(key string) (entity.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rows {
		if r.Key == key {
			return r, true
		}
	}
	return entity.Record{}, false
}

// Loading reports whether a list or a mutation is in flight
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadingLocked()
}

// Snapshot returns the current state
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Fields:  append([]registry.FormField{}, e.fields...),
		Rows:    append([]entity.Record{}, e.rows...),
		Loading: e.loadingLocked(),
		Modal:   e.modal,
	}
	if e.config != nil {
		st.Path = e.config.Path
		st.Label = e.config.Label
	}
	return st
}

// isFallbackKey reports whether id is the synthesized key of a listed row
func (e *Engine) isFallbackKey(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rows {
		if r.Key == id && r.HasFallbackKey() {
			return true
		}
	}
	return false
}

func (e *Engine) loadingLocked() bool {
	return e.pending > 0 || e.mutating
}

// beginMutation claims the single mutation slot
func (e *Engine) beginMutation(ctx context.Context, op string) (*registry.ResourceConfig, uint64, error) {
	e.mu.Lock()
	cfg, gen := e.config, e.generation
	var blocked string
	switch {
	case cfg == nil:
		blocked = "select an entity first"
	case e.loadingLocked():
		blocked = "another request is in progress"
	default:
		e.mutating = true
	}
	e.mu.Unlock()

	if blocked != "" {
		return nil, 0, e.precondition(ctx, op, blocked)
	}
	return cfg, gen, nil
}

func (e *Engine) endMutation() {
	e.mu.Lock()
	e.mutating = false
	e.mu.Unlock()
}

func (e *Engine) checkForm(ctx context.Context, op string, values map[string]any) (map[string]any, error) {
	e.mu.Lock()
	fields := e.fields
	e.mu.Unlock()

	payload, ferr := normalizeForm(e.validate, fields, values)
	if ferr != nil {
		perr := apperr.Precondition(op, ferr.Error())
		perr.Err = ferr
		e.fail(ctx, perr)
		return nil, perr
	}
	return payload, nil
}

// send issues a write and enforces the 200/204 success rule
func (e *Engine) send(ctx context.Context, method, path string, body any) error {
	resp, err := e.transport.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &apiclient.StatusError{Method: method, Path: path, Status: resp.StatusCode}
	}
	return nil
}

func (e *Engine) fetch(ctx context.Context, op string, gen uint64, cfg *registry.ResourceConfig) error {
	resp, err := e.transport.Do(ctx, http.MethodGet, cfg.GetEndpoint, nil)
	var page apiclient.Page[map[string]any]
	if err == nil {
		page, err = apiclient.DecodePage[map[string]any](resp)
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		e.logInfo("Discarding stale list response", "path", cfg.Path)
		return nil
	}
	if err != nil {
		e.rows = []entity.Record{}
		e.mu.Unlock()

		derr := apperr.DataLoad(op, err)
		e.fail(ctx, derr)
		return derr
	}

	rows := make([]entity.Record, 0, len(page.Items))
	for _, item := range page.Items {
		rows = append(rows, entity.NewRecord(item, cfg.IdentifierField()))
	}
	e.rows = rows
	e.mu.Unlock()

	e.publish(ctx, event.NewEvent(event.TypeRecordsLoaded, source, map[string]any{
		"path":  cfg.Path,
		"count": len(rows),
		"total": page.Total,
	}))
	return nil
}

// refresh re-lists after a mutation; its failure is reported, not returned
func (e *Engine) refresh(ctx context.Context, gen uint64, cfg *registry.ResourceConfig) {
	_ = e.fetch(ctx, "crud.List", gen, cfg)
}

type optionItem struct {
	ID   entity.FlexString `json:"id"`
	Name string            `json:"name"`
}

// loadOptions fills dropdowns backed by an options endpoint. A failed
// dropdown is reported and left empty.
func (e *Engine) loadOptions(ctx context.Context, gen uint64, cfg *registry.ResourceConfig) {
	for i, f := range cfg.FormFields {
		if f.EffectiveType() != registry.FieldDropdown || f.OptionsEndpoint == "" {
			continue
		}

		resp, err := e.transport.Do(ctx, http.MethodGet, f.OptionsEndpoint, nil)
		var items []optionItem
		if err == nil {
			err = resp.Decode(&items)
		}
		if err != nil {
			e.fail(ctx, apperr.DataLoad("crud.loadOptions", fmt.Errorf("%s: %w", f.Name, err)))
			continue
		}

		options := make([]entity.Option, 0, len(items))
		for _, it := range items {
			options = append(options, entity.Option{Value: it.ID, Label: it.Name})
		}

		e.mu.Lock()
		if e.generation == gen && i < len(e.fields) {
			e.fields[i].Options = options
		}
		e.mu.Unlock()
	}
}

func (e *Engine) precondition(ctx context.Context, op, msg string) error {
	err := apperr.Precondition(op, msg)
	e.fail(ctx, err)
	return err
}

func (e *Engine) fail(ctx context.Context, err error) {
	if e.logger != nil {
		e.logger.Error("List of values operation failed", "error", err)
	}
	e.publish(ctx, event.Failure(source, apperr.UserMessage(err)))
}

func (e *Engine) publish(ctx context.Context, evt *event.Event) {
	if e.publisher != nil {
		e.publisher.Publish(ctx, evt)
	}
}

func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, keysAndValues...)
	}
}
