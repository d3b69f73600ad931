package core

import "fmt"

// Row is one table row, aligned with the table's column order.
type Row []Value

// ColumnHeader describes a column in preview output.
type ColumnHeader struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// PreviewResult is a page of rows with the header needed to display it.
type PreviewResult struct {
	Columns   []ColumnHeader `json:"columns"`
	Rows      []Row          `json:"-"`
	TotalRows int            `json:"totalRows"`
}

// Empty reports whether there is nothing to display.
func (p *PreviewResult) Empty() bool { return len(p.Rows) == 0 }

// Select returns a new table holding only the requested columns, in the
// requested order. The source table is not modified.
func Select(t *Table, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumnsSelected
	}

	out := &Table{columns: make([]*Column, 0, len(columns)), rows: t.rows}
	for _, name := range columns {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if out.HasColumn(name) {
			continue
		}
		out.columns = append(out.columns, col.clone())
	}
	return out, nil
}

// Preview returns the first min(n, NumRows) rows in table order.
// An empty table yields an empty slice, not an error.
func Preview(t *Table, n int) ([]Row, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d (must be at least 1)", ErrInvalidRowCount, n)
	}
	if t.NumColumns() == 0 {
		return []Row{}, nil
	}

	n = min(n, t.NumRows())
	rows := make([]Row, n)
	for r := 0; r < n; r++ {
		row := make(Row, len(t.columns))
		for c, col := range t.columns {
			row[c] = col.Values[r]
		}
		rows[r] = row
	}
	return rows, nil
}

// PreviewTable wraps Preview with column headers.
func PreviewTable(t *Table, n int) (*PreviewResult, error) {
	rows, err := Preview(t, n)
	if err != nil {
		return nil, err
	}
	headers := make([]ColumnHeader, len(t.columns))
	for i, c := range t.columns {
		headers[i] = ColumnHeader{Name: c.Name, Kind: c.Kind}
	}
	return &PreviewResult{Columns: headers, Rows: rows, TotalRows: t.NumRows()}, nil
}
