package core

// edit.go implements the column editor: drop and rename.
//
// Both operations validate the whole request before touching the table, so a
// failed call leaves the table exactly as it was.

import (
	"fmt"
	"strings"
)

// Drop removes the named columns. The remaining columns keep their order and
// the row count is unchanged. If any name is unknown nothing is removed.
func Drop(t *Table, columns []string) error {
	if len(columns) == 0 {
		return ErrNoColumnsSelected
	}

	remove := make(map[string]struct{}, len(columns))
	var missing []string
	for _, name := range columns {
		if !t.HasColumn(name) {
			missing = append(missing, name)
			continue
		}
		remove[name] = struct{}{}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, quoteAll(missing))
	}

	kept := make([]*Column, 0, len(t.columns)-len(remove))
	for _, c := range t.columns {
		if _, drop := remove[c.Name]; !drop {
			kept = append(kept, c)
		}
	}
	t.columns = kept
	return nil
}

// Rename changes a column's name in place; its position and values stay.
// The new name must not already exist (exact, case-sensitive match).
func Rename(t *Table, column, newName string) error {
	if column == "" || newName == "" {
		return ErrMissingArgument
	}
	if t.HasColumn(newName) {
		return fmt.Errorf("%w: %q", ErrNameCollision, newName)
	}

	col, err := t.Column(column)
	if err != nil {
		return err
	}
	col.Name = newName
	return nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
