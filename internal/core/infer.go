package core

// infer.go types the columns of a freshly parsed file.
//
// Every cell arrives as literal text. A column is typed once, from all of its
// cells: integer if every non-missing cell is a base-10 integer, float if
// every non-missing cell is a float, text otherwise. There is no sampling and
// no narrowing to smaller widths.

import (
	"strconv"
	"strings"
)

// missingMarkers are cell texts read as "no value", matching what common
// spreadsheet and CSV exports write for blanks.
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isMissing(s string) bool {
	_, ok := missingMarkers[strings.TrimSpace(s)]
	return ok
}

// headerNames fills blank header cells with "Unnamed: <i>" and suffixes
// repeated names with ".1", ".2", ... so every column name is unique.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	used := make(map[string]int, len(raw))

	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if _, dup := used[name]; dup {
			base := name
			for n := used[base]; ; n++ {
				candidate := base + "." + strconv.Itoa(n)
				if _, taken := used[candidate]; !taken {
					used[base] = n + 1
					name = candidate
					break
				}
			}
		}
		if _, ok := used[name]; !ok {
			used[name] = 1
		}
		names[i] = name
	}
	return names
}

// buildTable assembles typed columns from a header and data records.
// Records shorter than the header are padded with missing cells.
func buildTable(header []string, records [][]string) (*Table, error) {
	names := headerNames(header)
	columns := make([]*Column, len(names))

	for c, name := range names {
		cells := make([]string, len(records))
		for r, rec := range records {
			if c < len(rec) {
				cells[r] = rec[c]
			}
		}
		columns[c] = inferColumn(name, cells)
	}

	t, err := NewTable(columns...)
	if err != nil {
		return nil, err
	}
	t.rows = len(records)
	return t, nil
}

// inferColumn picks the narrowest kind that fits every non-missing cell.
func inferColumn(name string, cells []string) *Column {
	allInt, allFloat := true, true
	present := 0

	for _, s := range cells {
		if isMissing(s) {
			continue
		}
		present++
		s = strings.TrimSpace(s)
		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allFloat = false
			}
		}
		if !allInt && !allFloat {
			break
		}
	}

	kind := KindText
	switch {
	case present == 0:
	case allInt:
		kind = KindInteger
	case allFloat:
		kind = KindFloat
	}

	col := &Column{Name: name, Kind: kind, Values: make([]Value, len(cells))}
	for i, s := range cells {
		if isMissing(s) {
			col.Values[i] = NullOf(kind)
			continue
		}
		switch kind {
		case KindInteger:
			n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			col.Values[i] = IntValue(n)
		case KindFloat:
			f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
			col.Values[i] = FloatValue(f)
		default:
			col.Values[i] = TextValue(s)
		}
	}
	return col
}
