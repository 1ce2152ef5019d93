package crud

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/registry"
)

func TestNormalizeForm(t *testing.T) {
	fields := []registry.FormField{
		{Name: "name", Label: "Name"},
		{Name: "count", Label: "Count", Type: registry.FieldNumber},
		{Name: "since", Label: "Since", Type: registry.FieldDate},
		{Name: "kind", Label: "Kind", Type: registry.FieldDropdown, Options: []entity.Option{
			{Value: 1, Label: "One"},
			{Value: "two", Label: "Two"},
		}},
	}
	v := validator.New()

	t.Run("valid values are normalized", func(t *testing.T) {
		payload, ferr := normalizeForm(v, fields, map[string]any{
			"name":  " Desk ",
			"count": "+12",
			"since": "2024-02-29",
			"kind":  json.Number("1"),
			"extra": "dropped",
		})
		require.Nil(t, ferr)
		assert.Equal(t, "Desk", payload["name"])
		assert.Equal(t, json.Number("12"), payload["count"])
		assert.Equal(t, "2024-02-29", payload["since"])
		assert.Equal(t, 1, payload["kind"])
		assert.NotContains(t, payload, "extra")
	})

	t.Run("one message per field", func(t *testing.T) {
		_, ferr := normalizeForm(v, fields, map[string]any{
			"count": "12a",
			"since": "29/02/2024",
			"kind":  "three",
		})
		require.NotNil(t, ferr)
		assert.Equal(t, map[string]string{
			"name":  "please enter Name",
			"count": "Count must be a number",
			"since": "Since must be a date (YYYY-MM-DD)",
			"kind":  "Kind must be one of the listed options",
		}, ferr.Fields)
		assert.Contains(t, ferr.Error(), "please enter Name")
	})
}

func TestRenderCell(t *testing.T) {
	tests := []struct {
		kind  registry.RenderKind
		value any
		want  string
	}{
		{registry.RenderNone, "plain", "plain"},
		{registry.RenderNone, nil, ""},
		{registry.RenderDate, "2024-03-01T08:30:00", "2024-03-01"},
		{registry.RenderDate, "not a date", "not a date"},
		{registry.RenderStatus, json.Number("8"), "Received by supervisor"},
		{registry.RenderStatus, "SentToManager", "Sent to manager"},
		{registry.RenderAmount, json.Number("1234567.456"), "1,234,567.46"},
		{registry.RenderAmount, "-950", "-950"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RenderCell(tt.kind, tt.value))
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(decimal.Zero))
	assert.Equal(t, "100", FormatAmount(decimal.NewFromInt(100)))
	assert.Equal(t, "1,000", FormatAmount(decimal.NewFromInt(1000)))
	assert.Equal(t, "-12,345.5", FormatAmount(decimal.RequireFromString("-12345.5")))
}
