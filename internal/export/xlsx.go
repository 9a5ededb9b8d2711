package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"shale-dashboard/internal/ranking"
)

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// SheetName derives a valid, unique-by-position worksheet name for the i-th table.
func SheetName(i int, title string) string {
	name := fmt.Sprintf("%02d %s", i+1, sheetNameReplacer.Replace(title))
	runes := []rune(name)
	if len(runes) > maxSheetName {
		runes = runes[:maxSheetName]
	}
	return strings.TrimSpace(string(runes))
}

// NewWorkbook builds a workbook with one sheet per table: the title in A1,
// the header in row 2 and the data below.
func NewWorkbook(tables []*ranking.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	for i, t := range tables {
		sheet := SheetName(i, t.Title)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, err
		}

		if err := writeSheet(f, sheet, t); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}

	if len(tables) > 0 {
		f.SetActiveSheet(0)
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, t *ranking.Table) error {
	if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
		return err
	}

	head := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A2", &head); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for c, v := range row {
			if v == nil {
				cells[c] = ""
				continue
			}
			cells[c] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	if len(t.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(t.Columns))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return err
		}
	}
	return nil
}

// WriteWorkbook streams the workbook for tables to w.
func WriteWorkbook(w io.Writer, tables []*ranking.Table) error {
	f, err := NewWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

// SaveWorkbook writes the workbook for tables to path.
func SaveWorkbook(path string, tables []*ranking.Table) error {
	f, err := NewWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.SaveAs(path)
}
