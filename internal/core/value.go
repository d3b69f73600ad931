package core

// value.go defines the cell representation shared by the loader, the
// transformer and the projection code.
//
// Cells reuse the pgtype nullable scalars so that "missing" is explicit:
//
//	text      -> pgtype.Text
//	integer   -> pgtype.Int8
//	float     -> pgtype.Float8
//	currency  -> pgtype.Float8
//	timestamp -> pgtype.Timestamp
//
// A value with Valid=false is the null marker. It is never replaced by a
// zero value.

import (
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Value is a single cell: one of pgtype.Text, pgtype.Int8, pgtype.Float8 or
// pgtype.Timestamp.
type Value any

// TimestampLayout is the textual form of timestamp cells.
const TimestampLayout = "2006-01-02 15:04:05.999999999"

// NullOf returns the null marker for a column kind.
func NullOf(k Kind) Value {
	switch k {
	case KindInteger:
		return pgtype.Int8{}
	case KindFloat, KindCurrency:
		return pgtype.Float8{}
	case KindTimestamp:
		return pgtype.Timestamp{}
	default:
		return pgtype.Text{}
	}
}

// TextValue wraps s as a non-null text cell.
func TextValue(s string) Value { return pgtype.Text{String: s, Valid: true} }

// IntValue wraps i as a non-null integer cell.
func IntValue(i int64) Value { return pgtype.Int8{Int64: i, Valid: true} }

// FloatValue wraps f as a non-null float or currency cell.
func FloatValue(f float64) Value { return pgtype.Float8{Float64: f, Valid: true} }

// TimeValue wraps t as a non-null timestamp cell.
func TimeValue(t time.Time) Value {
	return pgtype.Timestamp{Time: t, InfinityModifier: pgtype.Finite, Valid: true}
}

// IsNull reports whether v is a null cell.
func IsNull(v Value) bool {
	switch x := v.(type) {
	case pgtype.Text:
		return !x.Valid
	case pgtype.Int8:
		return !x.Valid
	case pgtype.Float8:
		return !x.Valid
	case pgtype.Timestamp:
		return !x.Valid
	default:
		return v == nil
	}
}

// FormatValue renders a cell as text. ok is false for null cells.
func FormatValue(v Value) (s string, ok bool) {
	switch x := v.(type) {
	case pgtype.Text:
		return x.String, x.Valid
	case pgtype.Int8:
		if !x.Valid {
			return "", false
		}
		return strconv.FormatInt(x.Int64, 10), true
	case pgtype.Float8:
		if !x.Valid {
			return "", false
		}
		return formatFloat(x.Float64), true
	case pgtype.Timestamp:
		if !x.Valid {
			return "", false
		}
		return x.Time.Format(TimestampLayout), true
	default:
		return "", false
	}
}

// Native converts a cell to a plain Go value for encoding: string, int64,
// float64, time.Time, or nil for null. Non-finite floats become nil since
// JSON cannot carry them.
func Native(v Value) any {
	switch x := v.(type) {
	case pgtype.Text:
		if x.Valid {
			return x.String
		}
	case pgtype.Int8:
		if x.Valid {
			return x.Int64
		}
	case pgtype.Float8:
		if x.Valid && !math.IsNaN(x.Float64) && !math.IsInf(x.Float64, 0) {
			return x.Float64
		}
	case pgtype.Timestamp:
		if x.Valid {
			return x.Time
		}
	}
	return nil
}

// formatFloat keeps a trailing ".0" on whole numbers so floats stay
// recognisable as floats once rendered as text.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		s += ".0"
	}
	return s
}

func equalValues(a, b Value) bool {
	switch x := a.(type) {
	case pgtype.Float8:
		y, ok := b.(pgtype.Float8)
		if !ok || x.Valid != y.Valid {
			return false
		}
		if math.IsNaN(x.Float64) && math.IsNaN(y.Float64) {
			return true
		}
		return !x.Valid || x.Float64 == y.Float64
	case pgtype.Timestamp:
		y, ok := b.(pgtype.Timestamp)
		if !ok || x.Valid != y.Valid {
			return false
		}
		return !x.Valid || x.Time.Equal(y.Time)
	default:
		return a == b
	}
}
