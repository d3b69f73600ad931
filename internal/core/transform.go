package core

import "fmt"

// Transform converts every cell of column under coercion c.
//
// The conversion is all-or-nothing: the new values are built in a separate
// slice and only swapped in once every cell converted. On failure the column
// keeps its previous values and kind, and the returned *CoercionError names
// the first offending row.
func Transform(t *Table, column string, c Coercion) error {
	col, err := t.Column(column)
	if err != nil {
		return err
	}

	convert := c.converter()
	out := make([]Value, len(col.Values))

	for i, v := range col.Values {
		nv, err := convert(v)
		if err != nil {
			raw, _ := FormatValue(v)
			return &CoercionError{
				Column:   column,
				Coercion: c,
				Row:      i,
				Value:    raw,
				Err:      err,
			}
		}
		out[i] = nv
	}

	col.Values = out
	col.Kind = c.Kind()
	return nil
}

// TransformUsage is Transform with the coercion given by its wire name.
// Unknown names fail with ErrInvalidTransformationType before the table is
// looked at.
func TransformUsage(t *Table, column, usage string) (Coercion, error) {
	c, err := ParseCoercion(usage)
	if err != nil {
		return 0, err
	}
	if err := Transform(t, column, c); err != nil {
		return c, fmt.Errorf("transform %q: %w", column, err)
	}
	return c, nil
}
