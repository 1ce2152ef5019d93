package attendance

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-admin/internal/apiclient"
	"github.com/garyjia/expense-admin/internal/domain/apperr"
	"github.com/garyjia/expense-admin/internal/domain/entity"
)

type mockTransport struct {
	calls  int
	last   map[string]any
	DoFunc func(ctx context.Context, method, path string, body any) (*apiclient.Response, error)
}

func (m *mockTransport) Do(ctx context.Context, method, path string, body any) (*apiclient.Response, error) {
	m.calls++
	m.last = nil
	if body != nil {
		raw, _ := json.Marshal(body)
		_ = json.Unmarshal(raw, &m.last)
	}
	return m.DoFunc(ctx, method, path, body)
}

func reply(body string) (*apiclient.Response, error) {
	return &apiclient.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(body)}, nil
}

func TestUnavailable_RequiresDate(t *testing.T) {
	tr := &mockTransport{}
	r := NewReport(tr, nil, nil)

	_, err := r.Unavailable(context.Background(), Query{})
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Equal(t, 0, tr.calls)
	assert.Equal(t, "please choose a date", r.State().Error)
}

func TestUnavailable_DefaultsToWholeDay(t *testing.T) {
	tr := &mockTransport{DoFunc: func(ctx context.Context, method, path string, body any) (*apiclient.Response, error) {
		assert.Equal(t, unavailableEndpoint, path)
		return reply(`["Karkh","Rusafa"]`)
	}}
	r := NewReport(tr, nil, nil)
	day := time.Date(2024, 5, 9, 17, 45, 0, 0, time.UTC)

	offices, err := r.Unavailable(context.Background(), Query{Date: &day})
	require.NoError(t, err)
	assert.Equal(t, []string{"Karkh", "Rusafa"}, offices)

	assert.Equal(t, "2024-05-09T00:00:00Z", tr.last["date"])
	assert.Equal(t, float64(3), tr.last["workingHours"])
	assert.Nil(t, tr.last["governorateId"])
	assert.Equal(t, offices, r.State().Offices)
}

func TestUnavailable_RejectsUnknownShift(t *testing.T) {
	tr := &mockTransport{}
	r := NewReport(tr, nil, nil)
	day := time.Now()

	_, err := r.Unavailable(context.Background(), Query{Date: &day, WorkingHours: 7})
	assert.ErrorIs(t, err, apperr.ErrPrecondition)
	assert.Equal(t, 0, tr.calls)
}

func TestUnavailable_FailureClearsResult(t *testing.T) {
	fail := false
	tr := &mockTransport{DoFunc: func(ctx context.Context, method, path string, body any) (*apiclient.Response, error) {
		if fail {
			return nil, &apiclient.StatusError{Method: method, Path: path, Status: http.StatusInternalServerError}
		}
		return reply(`["Karkh"]`)
	}}
	r := NewReport(tr, nil, nil)
	day := time.Now()
	gov := int64(4)

	_, err := r.Unavailable(context.Background(), Query{Date: &day, WorkingHours: entity.WorkingHoursMorning, GovernorateID: &gov})
	require.NoError(t, err)
	assert.Equal(t, float64(4), tr.last["governorateId"])
	assert.Equal(t, float64(1), tr.last["workingHours"])

	fail = true
	_, err = r.Unavailable(context.Background(), Query{Date: &day})
	assert.ErrorIs(t, err, apperr.ErrDataLoad)
	assert.Empty(t, r.State().Offices)
	assert.NotEmpty(t, r.State().Error)
}

func TestLoadGovernorates_PrependsAll(t *testing.T) {
	tr := &mockTransport{DoFunc: func(ctx context.Context, method, path string, body any) (*apiclient.Response, error) {
		return reply(`[{"id":1,"name":"Baghdad"}]`)
	}}
	r := NewReport(tr, nil, nil)

	require.NoError(t, r.LoadGovernorates(context.Background()))
	govs := r.State().Governorates
	require.Len(t, govs, 2)
	assert.Nil(t, govs[0].Value)
	assert.Equal(t, "Baghdad", govs[1].Label)
}
