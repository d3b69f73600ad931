package core

import (
	"errors"
	"fmt"
)

// Error kinds returned by engine operations. Every failure is wrapped around
// one of these so callers can branch with errors.Is; none of them is fatal to
// a session.
var (
	ErrUnsupportedFormat         = errors.New("unsupported file type")
	ErrColumnNotFound            = errors.New("column not found")
	ErrNoColumnsSelected         = errors.New("no columns selected")
	ErrNameCollision             = errors.New("column already exists")
	ErrMissingArgument           = errors.New("missing column or new name")
	ErrInvalidTransformationType = errors.New("invalid transformation type")
	ErrCoercionFailure           = errors.New("conversion failed")

	ErrNoData          = errors.New("no data loaded")
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrInvalidRowCount = errors.New("invalid row count")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("empty file")
	ErrInvalidCSV      = errors.New("invalid csv")
	ErrInvalidSheet    = errors.New("invalid spreadsheet")
	ErrNoFile          = errors.New("no file provided")
)

// CoercionError reports the first cell that could not be converted.
// It matches ErrCoercionFailure with errors.Is and unwraps to the parse error.
type CoercionError struct {
	Column   string
	Coercion Coercion
	Row      int    // 0-based row index
	Value    string // textual form of the offending cell
	Err      error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("conversion failed: %s to %s at row %d: %v", e.Column, e.Coercion, e.Row, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCoercionFailure) true for any CoercionError.
func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercionFailure
}
