package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-admin/internal/crud"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
	"github.com/garyjia/expense-admin/internal/registry"
)

func fixedWriter(t *testing.T) *ExcelWriter {
	t.Helper()
	w := NewExcelWriter(filepath.Join(t.TempDir(), "out"), zap.NewNop())
	w.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return w
}

func TestWrite_TableSheet(t *testing.T) {
	w := fixedWriter(t)
	table := crud.Table{
		Columns: []registry.Column{
			{Title: "Name", DataIndex: "name", Key: "name"},
			{Title: "Code", DataIndex: "code", Key: "code"},
			{Title: "Actions", Key: crud.ActionsColumnKey},
		},
		Rows: []crud.Row{
			{Key: "1", Cells: map[string]string{"name": "Karkh", "code": "301"}},
			{Key: "2", Cells: map[string]string{"name": "Rusafa", "code": "302"}},
		},
	}

	path, err := w.Write("Offices", TableSheet("Offices", table))
	require.NoError(t, err)
	assert.Equal(t, "offices-20240301-090000.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Offices")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Name", "Code"},
		{"Karkh", "301"},
		{"Rusafa", "302"},
	}, rows)
}

func TestWrite_ExpenseSheets(t *testing.T) {
	w := fixedWriter(t)
	m := entity.MonthlyExpense{
		ID:          "12",
		TotalAmount: decimal.NewFromInt(12500),
		Status:      workflow.StatusRecievedBySupervisor,
		OfficeName:  "Karkh",
	}
	items := []entity.DailyExpense{
		{Date: "2024-03-02", ExpenseTypeName: "Fuel", Price: decimal.NewFromInt(2500), Quantity: decimal.NewFromInt(4), TotalAmount: decimal.NewFromInt(10000)},
		{Date: "2024-03-03", ExpenseTypeName: "Paper", Price: decimal.NewFromInt(500), Quantity: decimal.NewFromInt(5), TotalAmount: decimal.NewFromInt(2500)},
	}

	path, err := w.Write("expense 12", ExpenseSheets(m, items)...)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Items"}, f.GetSheetList())

	status, err := f.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "Received by supervisor", status)

	total, err := f.GetCellValue("Items", "E4")
	require.NoError(t, err)
	assert.Equal(t, "12500", total)
}

func TestWrite_NothingToExport(t *testing.T) {
	_, err := fixedWriter(t).Write("empty")
	assert.Error(t, err)
}

func TestSheetTitle(t *testing.T) {
	assert.Equal(t, "Sheet3", sheetTitle("  ", 2))
	assert.Equal(t, "a b", sheetTitle("a/b", 0))
	assert.Len(t, []rune(sheetTitle("an extremely long worksheet name that overflows", 0)), 31)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "device-types", slug("Device types"))
	assert.Equal(t, "export", slug("!!!"))
}

func TestOfficesSheet(t *testing.T) {
	s := OfficesSheet(time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), []string{"Karkh"})
	assert.Equal(t, "Unavailable 2024-05-09", s.Name)
	assert.Equal(t, [][]any{{"Karkh"}}, s.Rows)
}
