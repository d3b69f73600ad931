package core

// convert.go holds the per-cell coercion rules behind Transform.
//
// Each rule is a pure function from one cell to one cell of the target kind.
// Rules never look at neighbouring cells and never mutate their input, which
// is what lets Transform build the whole converted column before swapping it
// in.
//
// The messy-input handling follows what users paste from spreadsheets:
//   - currency symbols and thousands separators ("$1,234.50")
//   - surrounding whitespace
//   - many date layouts (ISO, US, textual months, unix seconds)

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jackc/pgx/v5/pgtype"
)

// Coercion is the closed set of column conversions a user can request.
type Coercion int

const (
	CoerceCurrency Coercion = iota
	CoerceText
	CoerceNumber
	CoerceDateTime
	CoerceFloat
)

// Wire names, as shown to and sent by the UI.
const (
	UsageCurrency = "Currency"
	UsageText     = "General Text"
	UsageNumber   = "Number"
	UsageDateTime = "DateTime"
	UsageFloat    = "Non Currency (Floating)"
)

var coercionNames = [...]string{
	CoerceCurrency: UsageCurrency,
	CoerceText:     UsageText,
	CoerceNumber:   UsageNumber,
	CoerceDateTime: UsageDateTime,
	CoerceFloat:    UsageFloat,
}

func (c Coercion) String() string {
	if c < 0 || int(c) >= len(coercionNames) {
		return fmt.Sprintf("coercion(%d)", int(c))
	}
	return coercionNames[c]
}

// Coercions lists every supported coercion in display order.
func Coercions() []Coercion {
	return []Coercion{CoerceCurrency, CoerceText, CoerceNumber, CoerceDateTime, CoerceFloat}
}

// ParseCoercion maps a wire name to its Coercion. Matching is exact.
func ParseCoercion(s string) (Coercion, error) {
	for i, name := range coercionNames {
		if name == s {
			return Coercion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTransformationType, s)
}

// Kind returns the column kind produced by the coercion.
func (c Coercion) Kind() Kind {
	switch c {
	case CoerceCurrency:
		return KindCurrency
	case CoerceText:
		return KindText
	case CoerceNumber:
		return KindInteger
	case CoerceDateTime:
		return KindTimestamp
	case CoerceFloat:
		return KindFloat
	}
	panic(fmt.Sprintf("core: unknown coercion %d", int(c)))
}

// cellConverter converts one cell under a coercion rule.
type cellConverter func(Value) (Value, error)

func (c Coercion) converter() cellConverter {
	switch c {
	case CoerceCurrency:
		return ToCurrency
	case CoerceText:
		return ToText
	case CoerceNumber:
		return ToNumber
	case CoerceDateTime:
		return ToDateTime
	case CoerceFloat:
		return ToFloat
	}
	panic(fmt.Sprintf("core: unknown coercion %d", int(c)))
}

var (
	errMissingInteger = errors.New("cannot convert missing value to integer")
	errNonFinite      = errors.New("cannot convert non-finite value to integer")
	errOutOfRange     = errors.New("value out of integer range")
)

// ToCurrency strips "$" and "," from the cell's text, trims it and parses a
// float64. A cell that is empty after cleanup becomes null, not zero.
func ToCurrency(v Value) (Value, error) {
	s, ok := FormatValue(v)
	if !ok {
		return pgtype.Float8{}, nil
	}

	cleaned := strings.ReplaceAll(s, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return pgtype.Float8{}, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("could not convert string to float: %q", s)
	}
	return FloatValue(f), nil
}

// ToText renders the cell as text. It never fails; null stays null.
func ToText(v Value) (Value, error) {
	s, ok := FormatValue(v)
	if !ok {
		return pgtype.Text{}, nil
	}
	return TextValue(s), nil
}

// ToNumber parses the cell as a number and truncates it toward zero.
// Missing and non-finite values cannot be represented and fail.
func ToNumber(v Value) (Value, error) {
	switch x := v.(type) {
	case pgtype.Int8:
		if !x.Valid {
			return nil, errMissingInteger
		}
		return x, nil
	case pgtype.Float8:
		if !x.Valid {
			return nil, errMissingInteger
		}
		return truncateFloat(x.Float64)
	case pgtype.Timestamp:
		if !x.Valid {
			return nil, errMissingInteger
		}
		return IntValue(x.Time.UnixNano()), nil
	}

	s, ok := FormatValue(v)
	if !ok {
		return nil, errMissingInteger
	}
	s = strings.TrimSpace(s)

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("unable to parse string %q", s)
	}
	return truncateFloat(f)
}

func truncateFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errNonFinite
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, errOutOfRange
	}
	return IntValue(int64(f)), nil
}

// ToFloat parses the cell as a float64. Null stays null.
func ToFloat(v Value) (Value, error) {
	switch x := v.(type) {
	case pgtype.Float8:
		return x, nil
	case pgtype.Int8:
		if !x.Valid {
			return pgtype.Float8{}, nil
		}
		return FloatValue(float64(x.Int64)), nil
	case pgtype.Timestamp:
		if !x.Valid {
			return pgtype.Float8{}, nil
		}
		return FloatValue(float64(x.Time.UnixNano())), nil
	}

	s, ok := FormatValue(v)
	if !ok {
		return pgtype.Float8{}, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("unable to parse string %q", s)
	}
	return FloatValue(f), nil
}

// ToDateTime parses the cell as a calendar date/time. Layouts are detected
// per cell; values without a zone are read as UTC. Null stays null.
func ToDateTime(v Value) (Value, error) {
	if ts, ok := v.(pgtype.Timestamp); ok {
		return ts, nil
	}

	s, ok := FormatValue(v)
	if !ok {
		return pgtype.Timestamp{}, nil
	}
	t, err := parseDateTime(s)
	if err != nil {
		return nil, err
	}
	return TimeValue(t), nil
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid date: empty string")
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}
