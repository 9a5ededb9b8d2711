// Package export renders dashboard tables for terminals and spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"shale-dashboard/internal/ranking"
)

// WriteText renders t as an aligned text table preceded by its title.
func WriteText(w io.Writer, t *ranking.Table) error {
	if _, err := fmt.Fprintf(w, "%s\n", t.Title); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(t.Columns)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatCell(v)
		}
		table.Append(cells)
	}
	table.Render()
	return nil
}

// WriteAllText renders every table, separated by a blank line.
func WriteAllText(w io.Writer, tables []*ranking.Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := WriteText(w, t); err != nil {
			return fmt.Errorf("render %q: %w", t.Title, err)
		}
	}
	return nil
}

// FormatCell renders one table value; nil is an empty cell.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		return x.Format(time.DateOnly)
	default:
		return fmt.Sprint(x)
	}
}
