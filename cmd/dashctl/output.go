package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/garyjia/expense-admin/internal/crud"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable prints a rendered list without its actions column
func writeTable(w io.Writer, t crud.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	var keys, titles []string
	for _, c := range t.Columns {
		if c.Key == crud.ActionsColumnKey {
			continue
		}
		keys = append(keys, c.Key)
		titles = append(titles, strings.ToUpper(c.Title))
	}
	fmt.Fprintln(tw, "ID\t"+strings.Join(titles, "\t"))

	for _, r := range t.Rows {
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = r.Cells[k]
		}
		fmt.Fprintln(tw, r.Key+"\t"+strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// parseAssignments turns repeated --set name=value flags into form values
func parseAssignments(sets []string) (map[string]any, error) {
	values := make(map[string]any, len(sets))
	for _, s := range sets {
		name, value, found := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", s)
		}
		values[name] = value
	}
	return values, nil
}
