package ranking

// BandBlank replaces a repeated group label in a banded table.
const BandBlank = " "

// Table is a flat, ordered view ready for display: chart axes and table
// headers bind to Columns by name.
type Table struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable creates an empty table.
func NewTable(title string, columns ...string) *Table {
	return &Table{Title: title, Columns: columns, Rows: [][]any{}}
}

// Append adds one row.
func (t *Table) Append(values ...any) {
	t.Rows = append(t.Rows, values)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Banded returns a copy of t where the first column carries a label only on
// the first row of each run of equal values; later rows show BandBlank.
func (t *Table) Banded() *Table {
	out := &Table{Title: t.Title, Columns: t.Columns, Rows: make([][]any, len(t.Rows))}
	var prev any
	for i, row := range t.Rows {
		cp := append([]any(nil), row...)
		if len(cp) > 0 {
			if i > 0 && cp[0] == prev {
				cp[0] = BandBlank
			} else {
				prev = cp[0]
			}
		}
		out.Rows[i] = cp
	}
	return out
}
