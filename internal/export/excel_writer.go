// Package export writes screen tables to xlsx workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/expense-admin/internal/crud"
	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/expense"
)

// Sheet is one worksheet: a header row followed by data rows
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// ExcelWriter writes sheets into workbooks under an output directory
type ExcelWriter struct {
	outputDir string
	logger    *zap.Logger
	now       func() time.Time
}

// NewExcelWriter creates a writer; the directory is created on first write
func NewExcelWriter(outputDir string, logger *zap.Logger) *ExcelWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &ExcelWriter{outputDir: outputDir, logger: logger, now: time.Now}
}

// Write saves sheets as <name>-<timestamp>.xlsx and returns the file path
func (w *ExcelWriter) Write(name string, sheets ...Sheet) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		sheetName := sheetTitle(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
				return "", fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheetName); err != nil {
			return "", fmt.Errorf("failed to add sheet: %w", err)
		}

		if err := w.fill(f, sheetName, sheet, header); err != nil {
			return "", err
		}
	}

	path := filepath.Join(w.outputDir, fmt.Sprintf("%s-%s.xlsx", slug(name), w.now().Format("20060102-150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	w.logger.Info("Export written",
		zap.String("output_path", path),
		zap.Int("sheets", len(sheets)))
	return path, nil
}

func (w *ExcelWriter) fill(f *excelize.File, sheetName string, sheet Sheet, headerStyle int) error {
	if len(sheet.Headers) > 0 {
		if err := f.SetSheetRow(sheetName, "A1", &sheet.Headers); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			w.logger.Warn("Failed to style header", zap.String("sheet", sheetName), zap.Error(err))
		}
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return nil
}

// cellValue converts amounts to floats so spreadsheets can sum them
func cellValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case entity.FlexString:
		return t.String()
	default:
		return v
	}
}

// TableSheet converts a rendered list-of-values table, without its actions
// column
func TableSheet(name string, t crud.Table) Sheet {
	s := Sheet{Name: name}
	var keys []string
	for _, c := range t.Columns {
		if c.Key == crud.ActionsColumnKey {
			continue
		}
		s.Headers = append(s.Headers, c.Title)
		keys = append(keys, c.Key)
	}
	for _, r := range t.Rows {
		row := make([]any, len(keys))
		for i, k := range keys {
			row[i] = r.Cells[k]
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// ExpenseSheets converts a monthly expense into a summary sheet and a line
// item sheet
func ExpenseSheets(m entity.MonthlyExpense, items []entity.DailyExpense) []Sheet {
	summary := Sheet{
		Name:    "Summary",
		Headers: []string{"Field", "Value"},
		Rows: [][]any{
			{"ID", m.ID.String()},
			{"Supervisor", m.ProfileFullName},
			{"Office", m.OfficeName},
			{"Governorate", m.GovernorateName},
			{"Threshold", m.ThresholdName},
			{"Status", m.Status.Label()},
			{"Created", m.DateCreated.Format(entity.DateLayout)},
			{"Total", m.TotalAmount},
			{"Notes", m.Notes},
		},
	}

	lines := Sheet{
		Name:    "Items",
		Headers: []string{"Date", "Type", "Price", "Quantity", "Amount", "Notes"},
	}
	total := decimal.Zero
	for _, it := range items {
		lines.Rows = append(lines.Rows, []any{it.Date, it.ExpenseTypeName, it.Price, it.Quantity, it.TotalAmount, it.Notes})
		total = total.Add(it.TotalAmount)
	}
	lines.Rows = append(lines.Rows, []any{"", "Total", "", "", total, ""})

	return []Sheet{summary, lines}
}

// HistorySheet converts a page of the expense history
func HistorySheet(p expense.Page) Sheet {
	s := Sheet{
		Name:    "History",
		Headers: []string{"ID", "Supervisor", "Office", "Governorate", "Status", "Created", "Total"},
	}
	for _, m := range p.Items {
		s.Rows = append(s.Rows, []any{
			m.ID.String(),
			m.ProfileFullName,
			m.OfficeName,
			m.GovernorateName,
			m.Status.Label(),
			m.DateCreated.Format(entity.DateLayout),
			m.TotalAmount,
		})
	}
	return s
}

// OfficesSheet converts the unavailable-offices report
func OfficesSheet(day time.Time, offices []string) Sheet {
	s := Sheet{Name: "Unavailable " + day.Format(entity.DateLayout), Headers: []string{"Office"}}
	for _, o := range offices {
		s.Rows = append(s.Rows, []any{o})
	}
	return s
}

var (
	nonSlug      = regexp.MustCompile(`[^a-z0-9]+`)
	invalidSheet = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "export"
	}
	return s
}

// sheetTitle makes a legal worksheet name: no reserved characters and at
// most 31 characters
func sheetTitle(name string, index int) string {
	s := strings.TrimSpace(invalidSheet.Replace(name))
	if s == "" {
		s = fmt.Sprintf("Sheet%d", index+1)
	}
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}
