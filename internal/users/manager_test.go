package users

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
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

type backend struct {
	mu        sync.Mutex
	requests  []recorded
	failRoles bool
	failWrite bool
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recorded{Method: r.Method, Path: r.URL.Path}
	_ = json.Unmarshal(raw, &rec.Body)

	b.mu.Lock()
	b.requests = append(b.requests, rec)
	failRoles, failWrite := b.failRoles, b.failWrite
	b.mu.Unlock()

	switch {
	case r.URL.Path == "/api/Governorate/dropdown":
		_, _ = w.Write([]byte(`[{"id":1,"name":"Baghdad"},{"id":2,"name":"Basra"}]`))
	case r.URL.Path == "/api/Governorate/dropdown/2":
		_, _ = w.Write([]byte(`[{"id":2,"name":"Basra","offices":[{"id":20,"name":"Zubair"},{"id":21,"name":"Faw"}]}]`))
	case r.URL.Path == "/api/Governorate/dropdown/3":
		_, _ = w.Write([]byte(`[]`))
	case r.URL.Path == "/api/profile/all-roles":
		if failRoles {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`["Admin","Supervisor","User"]`))
	case r.URL.Path == "/api/profile/search":
		w.Header().Set("Pagination", `{"currentPage":1,"itemsPerPage":10,"totalItems":31,"totalPages":4}`)
		_, _ = w.Write([]byte(`[{"userId":"u1","profileId":5,"username":"ali","fullName":"Ali","position":3,"roles":["User"]}]`))
	case r.Method == http.MethodPost && r.URL.Path == "/api/account/register",
		r.Method == http.MethodPut && r.URL.Path == "/api/account/u1":
		if failWrite {
			http.Error(w, "conflict", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) find(method, path string) []recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recorded
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func newManager(t *testing.T) (*Manager, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, apiclient.StaticToken("t"), nil)
	require.NoError(t, err)
	return NewManager(client), b
}

func validRegistration() entity.RegisterRequest {
	return entity.RegisterRequest{
		UserName:      "sara",
		Password:      "secret1",
		Roles:         []string{"User"},
		FullName:      "Sara",
		Position:      2,
		OfficeID:      20,
		GovernorateID: 2,
	}
}

func TestLoadReferenceData(t *testing.T) {
	m, _ := newManager(t)
	require.NoError(t, m.LoadReferenceData(context.Background()))

	st := m.State()
	assert.True(t, st.Ready)
	assert.Equal(t, []string{"Admin", "Supervisor", "User"}, st.Roles)
	require.Len(t, st.Governorates, 2)
	assert.Equal(t, "Basra", st.Governorates[1].Label)
}

func TestLoadReferenceData_NotReadyUntilBothArrive(t *testing.T) {
	m, b := newManager(t)
	b.mu.Lock()
	b.failRoles = true
	b.mu.Unlock()

	err := m.LoadReferenceData(context.Background())
	assert.ErrorIs(t, err, apperr.ErrDataLoad)

	st := m.State()
	assert.False(t, st.Ready)
	assert.Empty(t, st.Governorates)
}

func TestOfficesOf(t *testing.T) {
	m, _ := newManager(t)

	offices, err := m.OfficesOf(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, offices, 2)
	assert.Equal(t, "Faw", offices[1].Name)

	offices, err = m.OfficesOf(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, offices)

	_, err = m.OfficesOf(context.Background(), 9)
	assert.ErrorIs(t, err, apperr.ErrDataLoad)
}

func TestSearch_UsesHeaderTotal(t *testing.T) {
	m, b := newManager(t)
	gov := int64(2)

	page, err := m.Search(context.Background(), entity.ProfileFilter{FullName: " Ali ", GovernorateID: &gov}, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 31, page.Total)
	assert.Equal(t, entity.FlexString("3"), page.Items[0].Position)
	assert.Equal(t, "User", page.Items[0].RolesLabel())

	reqs := b.find(http.MethodPost, "/api/profile/search")
	require.Len(t, reqs, 1)
	body := reqs[0].Body
	assert.Equal(t, "Ali", body["fullName"])
	assert.Equal(t, float64(2), body["governorateId"])
	assert.Equal(t, []any{}, body["roles"])
	assert.Equal(t, map[string]any{"pageNumber": float64(1), "pageSize": float64(10)}, body["paginationParams"])
}

func TestRegister(t *testing.T) {
	m, b := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.Register(ctx, validRegistration()))

	reqs := b.find(http.MethodPost, "/api/account/register")
	require.Len(t, reqs, 1)
	assert.Equal(t, "sara", reqs[0].Body["userName"])
	assert.Equal(t, float64(2), reqs[0].Body["position"])
	assert.Len(t, b.find(http.MethodPost, "/api/profile/search"), 1)
	assert.False(t, m.State().Saving)
}

func TestRegister_ValidationBlocksRequest(t *testing.T) {
	m, b := newManager(t)
	req := validRegistration()
	req.Password = "123"
	req.Roles = nil

	err := m.Register(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Contains(t, err.Error(), "Password must have at least 6")
	assert.Contains(t, err.Error(), "Roles is required")
	assert.Empty(t, b.find(http.MethodPost, "/api/account/register"))
}

func TestRegister_ServerRejects(t *testing.T) {
	m, b := newManager(t)
	b.mu.Lock()
	b.failWrite = true
	b.mu.Unlock()

	err := m.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, apperr.ErrMutation)
	assert.Empty(t, b.find(http.MethodPost, "/api/profile/search"))
}

func TestUpdate(t *testing.T) {
	m, b := newManager(t)

	err := m.Update(context.Background(), entity.UpdateAccountRequest{
		UserID:        "u1",
		UserName:      "ali",
		FullName:      "Ali Hassan",
		Position:      "3",
		OfficeID:      20,
		GovernorateID: 2,
		Roles:         []string{"User"},
	})
	require.NoError(t, err)

	reqs := b.find(http.MethodPut, "/api/account/u1")
	require.Len(t, reqs, 1)
	assert.Equal(t, "Ali Hassan", reqs[0].Body["fullName"])
	assert.NotContains(t, reqs[0].Body, "newPassword")
}

func TestUpdate_ShortNewPassword(t *testing.T) {
	m, b := newManager(t)

	err := m.Update(context.Background(), entity.UpdateAccountRequest{
		UserID:        "u1",
		UserName:      "ali",
		FullName:      "Ali",
		OfficeID:      20,
		GovernorateID: 2,
		Roles:         []string{"User"},
		NewPassword:   "abc",
	})
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Empty(t, b.find(http.MethodPut, "/api/account/u1"))
}
