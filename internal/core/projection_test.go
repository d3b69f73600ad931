package core

import (
	"errors"
	"slices"
	"testing"
)

func TestSelect(t *testing.T) {
	tbl := sampleTable(t)
	before := tbl.Clone()

	out, err := Select(tbl, []string{"note", "price", "note"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if got, want := out.ColumnNames(), []string{"note", "price"}; !slices.Equal(got, want) {
		t.Errorf("ColumnNames() = %v, want %v", got, want)
	}
	if out.NumRows() != tbl.NumRows() {
		t.Errorf("NumRows() = %d, want %d", out.NumRows(), tbl.NumRows())
	}

	// The result is a deep copy
	c, _ := out.Column("price")
	c.Values[0] = TextValue("changed")
	if !tbl.Equal(before) {
		t.Error("modifying the selection changed the source table")
	}
}

func TestSelect_Errors(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		wantErr error
	}{
		{"empty", []string{}, ErrNoColumnsSelected},
		{"nil", nil, ErrNoColumnsSelected},
		{"unknown", []string{"price", "missing"}, ErrColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := sampleTable(t)
			before := tbl.Clone()

			if _, err := Select(tbl, tt.columns); !errors.Is(err, tt.wantErr) {
				t.Errorf("Select() error = %v, want %v", err, tt.wantErr)
			}
			if !tbl.Equal(before) {
				t.Error("Select() modified the table")
			}
		})
	}
}

func TestPreview(t *testing.T) {
	tbl := sampleTable(t)

	tests := []struct {
		n        int
		wantRows int
	}{
		{1, 1},
		{2, 2},
		{3, 3},
		{10, 3}, // overshoot returns every row
	}

	for _, tt := range tests {
		rows, err := Preview(tbl, tt.n)
		if err != nil {
			t.Fatalf("Preview(%d) error = %v", tt.n, err)
		}
		if len(rows) != tt.wantRows {
			t.Errorf("Preview(%d) returned %d rows, want %d", tt.n, len(rows), tt.wantRows)
		}
	}

	rows, _ := Preview(tbl, 1)
	if s, _ := FormatValue(rows[0][0]); s != "$10.00" {
		t.Errorf("first cell = %q, want $10.00", s)
	}
}

func TestPreview_InvalidCount(t *testing.T) {
	tbl := sampleTable(t)
	for _, n := range []int{0, -1} {
		if _, err := Preview(tbl, n); !errors.Is(err, ErrInvalidRowCount) {
			t.Errorf("Preview(%d) error = %v, want ErrInvalidRowCount", n, err)
		}
	}
}

func TestPreview_EmptyTable(t *testing.T) {
	tests := []struct {
		name string
		tbl  *Table
	}{
		{"no rows", mustTable(t, textColumn("a"))},
		{"no columns", mustTable(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := PreviewTable(tt.tbl, 5)
			if err != nil {
				t.Fatalf("PreviewTable() error = %v", err)
			}
			if !res.Empty() {
				t.Errorf("PreviewTable() returned %d rows, want none", len(res.Rows))
			}
		})
	}
}

func TestPreview_AfterDroppingEveryColumn(t *testing.T) {
	tbl := sampleTable(t)
	if err := Drop(tbl, tbl.ColumnNames()); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	res, err := PreviewTable(tbl, 5)
	if err != nil {
		t.Fatalf("PreviewTable() error = %v", err)
	}
	if !res.Empty() {
		t.Errorf("rows = %d, want 0", len(res.Rows))
	}
	if res.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", res.TotalRows)
	}
}
