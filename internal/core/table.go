package core

import (
	"fmt"
	"strings"
)

// Kind is the declared type shared by every cell of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
	KindTimestamp
	KindCurrency
)

var kindNames = [...]string{
	KindText:      "text",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindTimestamp: "timestamp",
	KindCurrency:  "currency",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText lets kinds appear by name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", b)
}

// Column is a named, typed sequence of cells.
// Values holds one Value per row; every element matches Kind (see value.go).
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// NonNull returns the number of cells that are not null.
func (c *Column) NonNull() int {
	n := 0
	for _, v := range c.Values {
		if !IsNull(v) {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	values := make([]Value, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Table is an ordered set of uniquely named columns of equal length.
//
// A Table is not safe for concurrent use. The Service serializes all
// operations on a session's table.
type Table struct {
	columns []*Column
	rows    int
}

// NewTable builds a table from columns, enforcing equal lengths and unique names.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{columns: make([]*Column, 0, len(columns))}
	seen := make(map[string]struct{}, len(columns))

	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrNameCollision, c.Name)
		}
		seen[c.Name] = struct{}{}

		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), t.rows)
		}
		t.columns = append(t.columns, c)
	}

	return t, nil
}

// NumRows returns the row count. Dropping every column keeps it.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t.NumRows() == 0 || t.NumColumns() == 0
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in table order. Callers must not modify them.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, error) {
	i := t.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return t.columns[i], nil
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	return t.indexOf(name) >= 0
}

func (t *Table) indexOf(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := &Table{columns: make([]*Column, len(t.columns)), rows: t.rows}
	for i, c := range t.columns {
		out.columns[i] = c.clone()
	}
	return out
}

// Equal reports whether both tables have the same columns, kinds and cells.
func (t *Table) Equal(other *Table) bool {
	if other == nil || t.NumColumns() != other.NumColumns() || t.NumRows() != other.NumRows() {
		return false
	}
	for i, c := range t.columns {
		o := other.columns[i]
		if c.Name != o.Name || c.Kind != o.Kind {
			return false
		}
		for r := range c.Values {
			if !equalValues(c.Values[r], o.Values[r]) {
				return false
			}
		}
	}
	return true
}

// String returns a short description such as "Table(3 rows × 2 columns: price, qty)".
func (t *Table) String() string {
	return fmt.Sprintf("Table(%d rows × %d columns: %s)",
		t.NumRows(), t.NumColumns(), strings.Join(t.ColumnNames(), ", "))
}
