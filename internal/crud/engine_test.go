package crud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/application/dispatcher"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/event"
	"github.com/garyjia/expense-admin/internal/registry"
)

const testRegistry = `
version: 1
menu:
  - {path: /admin/types, label: Types, icon: t}
  - {path: /admin/colours, label: Colours, icon: c}
resources:
  /admin/types:
    label: Types
    getEndpoint: /api/Type
    postEndpoint: /api/Type
    putEndpoint: /api/Type/{id}
    deleteEndpoint: /api/Type/{id}
    columns:
      - {title: Name, dataIndex: name, key: name}
      - {title: Limit, dataIndex: limit, key: limit, render: amount}
    formFields:
      - {name: name, label: Name, type: text}
      - {name: limit, label: Limit, type: number}
      - {name: governorateId, label: Governorate, type: dropdown, optionsEndpoint: /api/Governorate/dropdown}
  /admin/colours:
    label: Colours
    getEndpoint: /api/Colour
    postEndpoint: /api/Colour
    putEndpoint: /api/Colour/{id}
    deleteEndpoint: /api/Colour/{id}
    columns:
      - {title: Name, dataIndex: name, key: name}
    formFields:
      - {name: name, label: Name}
`

// fakeAPI records requests and answers from per-route handlers
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
	routes   map[string]http.HandlerFunc
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		bodies: make(map[string][]byte),
		routes: make(map[string]http.HandlerFunc),
	}
}

func (f *fakeAPI) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeAPI) json(method, path string, status int, body string) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.bodies[key] = body
	h, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.requests {
		if k == key {
			n++
		}
	}
	return n
}

func (f *fakeAPI) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out map[string]any
	_ = json.Unmarshal(f.bodies[key], &out)
	return out
}

type fixture struct {
	api    *fakeAPI
	engine *Engine
	inbox  *dispatcher.Inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api := newFakeAPI()
	api.json(http.MethodGet, "/api/Governorate/dropdown", 200, `[{"id":1,"name":"Baghdad"},{"id":2,"name":"Basra"}]`)
	api.json(http.MethodGet, "/api/Type", 200, `[{"id":1,"name":"Fuel","limit":1500000},{"name":"Orphan"}]`)
	api.json(http.MethodGet, "/api/Colour", 200, `[{"id":"c1","name":"Red"}]`)

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, apiclient.StaticToken("t"), nil)
	require.NoError(t, err)

	reg, err := registry.Parse([]byte(testRegistry))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	d := dispatcher.NewDispatcher()
	return &fixture{
		api:    api,
		engine: NewEngine(client, reg, WithPublisher(d)),
		inbox:  dispatcher.NewInbox(d, "test"),
	}
}

func validValues() map[string]any {
	return map[string]any{"name": "Fuel", "limit": "2500", "governorateId": "2"}
}

func TestSelectEntity_ListsAndKeysRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	st := f.engine.Snapshot()
	assert.Equal(t, "/admin/types", st.Path)
	require.Len(t, st.Rows, 2)
	assert.Equal(t, "1", st.Rows[0].Key)
	assert.False(t, st.Rows[0].HasFallbackKey())
	assert.NotEmpty(t, st.Rows[1].Key)
	assert.True(t, st.Rows[1].HasFallbackKey())
	assert.False(t, st.Loading)
	assert.Equal(t, ModalClosed, st.Modal.Mode)

	field := st.Fields[2]
	require.Len(t, field.Options, 2)
	assert.Equal(t, "Basra", field.Options[1].Label)
}

func TestSelectEntity_UnknownPathLeavesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))
	before := f.engine.Snapshot()
	f.inbox.Drain()

	err := f.engine.SelectEntity(ctx, "/admin/nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConfigNotFound)

	after := f.engine.Snapshot()
	assert.Equal(t, before.Path, after.Path)
	assert.Equal(t, before.Rows, after.Rows)

	notices := f.inbox.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, event.LevelError, notices[0].Level)
}

func TestList_FailureClearsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	f.api.json(http.MethodGet, "/api/Type", 500, `boom`)
	err := f.engine.List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDataLoad)
	assert.Empty(t, f.engine.Snapshot().Rows)
}

func TestList_RequiresSelection(t *testing.T) {
	f := newFixture(t)
	err := f.engine.List(context.Background())
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestCreate_PostsAndRelists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.api.json(http.MethodPost, "/api/Type", 201, `{"id":3}`)
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))
	require.NoError(t, f.engine.OpenAdd(ctx))
	f.inbox.Drain()

	require.NoError(t, f.engine.Submit(ctx, validValues()))

	assert.Equal(t, 1, f.api.count("POST /api/Type"))
	assert.Equal(t, 2, f.api.count("GET /api/Type"))

	body := f.api.body("POST /api/Type")
	assert.Equal(t, "Fuel", body["name"])
	assert.Equal(t, float64(2500), body["limit"])
	assert.Equal(t, float64(2), body["governorateId"])

	assert.Equal(t, ModalClosed, f.engine.Snapshot().Modal.Mode)
	notices := f.inbox.Drain()
	require.NotEmpty(t, notices)
	assert.Equal(t, event.LevelSuccess, notices[0].Level)
}

func TestCreate_FailureKeepsModal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.api.json(http.MethodPost, "/api/Type", 400, `invalid`)
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))
	require.NoError(t, f.engine.OpenAdd(ctx))

	err := f.engine.Create(ctx, validValues())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrMutation)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, ModalAdd, f.engine.Snapshot().Modal.Mode)
	assert.Equal(t, 1, f.api.count("GET /api/Type"))
}

func TestCreate_FormErrorsBlockRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	err := f.engine.Create(ctx, map[string]any{"name": "  ", "limit": "lots", "governorateId": "9"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	var ferr *FormError
	require.ErrorAs(t, err, &ferr)
	assert.Len(t, ferr.Fields, 3)
	assert.Equal(t, "please enter Name", ferr.Fields["name"])
	assert.Equal(t, 0, f.api.count("POST /api/Type"))
}

func TestCreate_WithoutSelection(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Create(context.Background(), validValues())
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestUpdate_WithoutIDIssuesNoRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	err := f.engine.Update(ctx, "", validValues())
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	for _, r := range f.api.requests {
		assert.NotContains(t, r, "PUT")
	}
}

func TestUpdate_SuccessOnlyFor200And204(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: 200},
		{name: "no content", status: 204},
		{name: "created is not an update", status: 201, wantErr: true},
		{name: "server error", status: 500, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.api.json(http.MethodPut, "/api/Type/1", tt.status, ``)
			require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

			rec, ok := f.engine.Record("1")
			require.True(t, ok)
			require.NoError(t, f.engine.OpenEdit(ctx, rec))

			err := f.engine.Submit(ctx, validValues())
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrMutation)
				st := f.engine.Snapshot()
				assert.Equal(t, ModalEdit, st.Modal.Mode)
				assert.Equal(t, "1", st.Modal.EditID)
				return
			}

			require.NoError(t, err)
			st := f.engine.Snapshot()
			assert.Equal(t, ModalClosed, st.Modal.Mode)
			assert.Empty(t, st.Modal.EditID)
			assert.Equal(t, 2, f.api.count("GET /api/Type"))

			body := f.api.body("PUT /api/Type/1")
			assert.Equal(t, float64(1), body["id"])
			assert.Equal(t, "Fuel", body["name"])
		})
	}
}

func TestOpenEdit_PrefillsAndRejectsFallbackKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	rows := f.engine.Snapshot().Rows
	require.NoError(t, f.engine.OpenEdit(ctx, rows[0]))
	modal := f.engine.Snapshot().Modal
	assert.Equal(t, "Fuel", modal.Values["name"])
	assert.NotContains(t, modal.Values, "id")

	f.engine.CloseModal()
	err := f.engine.OpenEdit(ctx, rows[1])
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Equal(t, ModalClosed, f.engine.Snapshot().Modal.Mode)
}

func TestSubmit_WithClosedModal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	err := f.engine.Submit(ctx, validValues())
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
}

func TestRemove_OnlyAfterConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.api.json(http.MethodDelete, "/api/Type/1", 204, ``)
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	var prompts []string
	refuse := ConfirmFunc(func(ctx context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	})
	require.NoError(t, f.engine.Remove(ctx, "1", refuse))
	assert.Len(t, prompts, 1)
	assert.Equal(t, 0, f.api.count("DELETE /api/Type/1"))
	assert.False(t, f.engine.Loading())

	accept := ConfirmFunc(func(ctx context.Context, prompt string) bool { return true })
	require.NoError(t, f.engine.Remove(ctx, "1", accept))
	assert.Equal(t, 1, f.api.count("DELETE /api/Type/1"))
	assert.Equal(t, 2, f.api.count("GET /api/Type"))
}

func TestRemove_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accept := ConfirmFunc(func(ctx context.Context, prompt string) bool { return true })

	assert.ErrorIs(t, f.engine.Remove(ctx, "1", accept), apperr.ErrPrecondition)

	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))
	assert.ErrorIs(t, f.engine.Remove(ctx, " ", accept), apperr.ErrPrecondition)
	assert.ErrorIs(t, f.engine.Remove(ctx, "1", nil), apperr.ErrPrecondition)
}

func TestFallbackKeysNeverTargetMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	orphan := f.engine.Snapshot().Rows[1]
	require.True(t, orphan.HasFallbackKey())

	accept := ConfirmFunc(func(ctx context.Context, prompt string) bool { return true })
	assert.ErrorIs(t, f.engine.Remove(ctx, orphan.Key, accept), apperr.ErrPrecondition)
	assert.ErrorIs(t, f.engine.Update(ctx, orphan.Key, validValues()), apperr.ErrPrecondition)

	assert.Equal(t, 0, f.api.count("DELETE /api/Type/"+orphan.Key))
	assert.Equal(t, 0, f.api.count("PUT /api/Type/"+orphan.Key))
	assert.False(t, f.engine.Loading())
}

func TestRemove_UnexpectedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.api.json(http.MethodDelete, "/api/Type/1", 202, ``)
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	accept := ConfirmFunc(func(ctx context.Context, prompt string) bool { return true })
	err := f.engine.Remove(ctx, "1", accept)
	assert.ErrorIs(t, err, apperr.ErrMutation)
	assert.Equal(t, 1, f.api.count("GET /api/Type"))
}

func TestStaleListResponseIsDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.handle(http.MethodGet, "/api/Type", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_, _ = w.Write([]byte(`[{"id":1,"name":"Late"}]`))
	})

	done := make(chan error, 1)
	go func() {
		done <- f.engine.SelectEntity(ctx, "/admin/types")
	}()
	<-started

	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/colours"))
	close(release)
	require.NoError(t, <-done)

	st := f.engine.Snapshot()
	assert.Equal(t, "/admin/colours", st.Path)
	require.Len(t, st.Rows, 1)
	assert.Equal(t, "c1", st.Rows[0].Key)
}

func TestMutationsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.handle(http.MethodPost, "/api/Type", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
	})

	done := make(chan error, 1)
	go func() {
		done <- f.engine.Create(ctx, validValues())
	}()
	<-started

	assert.True(t, f.engine.Loading())
	table := f.engine.Table()
	require.NotEmpty(t, table.Rows)
	assert.True(t, table.Rows[0].Actions[0].Disabled)

	err := f.engine.Update(ctx, "1", validValues())
	assert.ErrorIs(t, err, apperr.ErrPrecondition)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.engine.Loading())
	assert.Equal(t, 0, f.api.count("PUT /api/Type/1"))
}

func TestTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.Empty(t, f.engine.Table().Columns)

	require.NoError(t, f.engine.SelectEntity(ctx, "/admin/types"))
	table := f.engine.Table()

	require.Len(t, table.Columns, 3)
	assert.Equal(t, ActionsColumnKey, table.Columns[2].Key)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1,500,000", table.Rows[0].Cells["limit"])
	assert.False(t, table.Rows[0].Actions[0].Disabled)
	assert.False(t, table.Rows[0].Actions[1].Disabled)
	assert.True(t, table.Rows[1].Actions[0].Disabled)
}
