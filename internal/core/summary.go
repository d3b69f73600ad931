package core

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/olekukonko/tablewriter"
)

// ColumnSummary describes one column of a Summary.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	NonNull int    `json:"nonNull"`
}

// Summary is a read-only report of a table's shape.
type Summary struct {
	Rows        int             `json:"rows"`
	Columns     int             `json:"columns"`
	Fields      []ColumnSummary `json:"fields"`
	MemoryBytes uint64          `json:"memoryBytes"`
}

// Summarize reports row and column counts plus per-column name, kind and
// non-null count. It does not modify t.
func Summarize(t *Table) Summary {
	s := Summary{
		Rows:    t.NumRows(),
		Columns: t.NumColumns(),
		Fields:  make([]ColumnSummary, len(t.columns)),
	}
	for i, c := range t.columns {
		s.Fields[i] = ColumnSummary{Name: c.Name, Kind: c.Kind, NonNull: c.NonNull()}
		s.MemoryBytes += columnBytes(c)
	}
	return s
}

// cellBytes is the size of one interface value holding a cell.
const cellBytes = 16

// columnBytes approximates the memory held by a column's cells.
func columnBytes(c *Column) uint64 {
	n := uint64(len(c.Values)) * cellBytes
	for _, v := range c.Values {
		if s, ok := v.(pgtype.Text); ok {
			n += uint64(len(s.String))
		}
	}
	return n
}

// KindCounts returns "kind(count)" entries sorted by kind name.
func (s Summary) KindCounts() string {
	counts := make(map[string]int)
	for _, f := range s.Fields {
		counts[f.Kind.String()]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s(%d)", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

// WriteInfo renders the summary as the "File Information" text report.
func WriteInfo(w io.Writer, s Summary) error {
	var b strings.Builder

	b.WriteString("<Table>\n")
	if s.Rows == 0 {
		b.WriteString("Index: 0 entries\n")
	} else {
		fmt.Fprintf(&b, "RangeIndex: %d entries, 0 to %d\n", s.Rows, s.Rows-1)
	}
	fmt.Fprintf(&b, "Data columns (total %d columns):\n", s.Columns)

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"#", "Column", "Non-Null Count", "Kind"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, f := range s.Fields {
		table.Append([]string{
			strconv.Itoa(i),
			f.Name,
			fmt.Sprintf("%d non-null", f.NonNull),
			f.Kind.String(),
		})
	}
	table.Render()

	if kc := s.KindCounts(); kc != "" {
		fmt.Fprintf(&b, "kinds: %s\n", kc)
	}
	fmt.Fprintf(&b, "memory usage: %s\n", humanize.Bytes(s.MemoryBytes))

	_, err := io.WriteString(w, b.String())
	return err
}
