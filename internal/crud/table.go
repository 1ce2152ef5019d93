package crud

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
	"github.com/garyjia/expense-admin/internal/registry"
)

// ActionsColumnKey is the key of the trailing edit/delete column
const ActionsColumnKey = "actions"

// RowAction is a per-row button
type RowAction struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Row is one rendered table row
type Row struct {
	Key     string            `json:"key"`
	Cells   map[string]string `json:"cells"`
	Actions []RowAction       `json:"actions"`
}

// Table is the rendered list: the config columns, a trailing actions column
// and one row per record
type Table struct {
	Columns []registry.Column `json:"columns"`
	Rows    []Row             `json:"rows"`
	Loading bool              `json:"loading"`
}

// Table renders the current rows. Row actions are disabled while loading and
// for records without a server identifier.
func (e *Engine) Table() Table {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := Table{
		Columns: []registry.Column{},
		Rows:    make([]Row, 0, len(e.rows)),
		Loading: e.loadingLocked(),
	}
	if e.config == nil {
		return t
	}

	t.Columns = append(t.Columns, e.config.Columns...)
	t.Columns = append(t.Columns, registry.Column{Title: "Actions", Key: ActionsColumnKey})

	for _, rec := range e.rows {
		_, hasID := rec.ID()
		disabled := t.Loading || !hasID

		cells := make(map[string]string, len(e.config.Columns))
		for _, col := range e.config.Columns {
			cells[col.Key] = RenderCell(col.Render, rec.Get(col.DataIndex))
		}

		t.Rows = append(t.Rows, Row{
			Key:   rec.Key,
			Cells: cells,
			Actions: []RowAction{
				{Name: "edit", Label: "Edit", Disabled: disabled},
				{Name: "delete", Label: "Delete", Disabled: disabled},
			},
		})
	}
	return t
}

// RenderCell formats a field value for display
func RenderCell(kind registry.RenderKind, value any) string {
	raw := entity.ScalarString(value)
	switch kind {
	case registry.RenderDate:
		if ts, err := entity.ParseTimestamp(raw); err == nil {
			return ts.Format(entity.DateLayout)
		}
	case registry.RenderStatus:
		if s, err := workflow.ParseStatus(raw); err == nil {
			return s.Label()
		}
	case registry.RenderAmount:
		if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			return FormatAmount(d)
		}
	}
	return raw
}

// FormatAmount renders d with thousands separators and at most two decimals
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(2).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
