// Package core provides the business logic for dataset cleaning sessions.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Every engine failure is one of the sentinel errors in errors.go;
// MapError turns it into a message, an action and a code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller chunks
//	FILE002 - Invalid file: File could not be parsed as CSV or XLSX
//	          Action: Ensure the file is comma-separated with consistent columns
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV or XLSX file
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a file with a header row
//	FILE006 - Unsupported file type
//	          Action: Upload a .csv or .xlsx file
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found
//	COL002 - No columns selected
//	COL003 - Column name already exists
//	COL004 - Missing column or new name
//
// # Transformation Errors (TRN001-TRN099)
//
//	TRN001 - Invalid transformation type
//	TRN002 - Conversion failed (detail carries the parse error)
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found
//	SES002 - No data loaded
//	SES003 - Invalid row count
//	SES004 - Too many sessions
//
// # Load and Request Errors
//
//	UPL002 - Too many files being loaded
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//	REQ001 - Malformed request body
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check the application
// logs for the original technical error when users report ERR000.
//
// # Matching
//
// Sentinel errors are matched with errors.Is first. Errors that only exist as
// text (for example from net/http) fall back to case-insensitive substring
// patterns. The first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Detail  string // Technical detail safe to show, e.g. a parse error
}

// errorMapping ties an error (by identity or by text) to a user message.
type errorMapping struct {
	target  error
	pattern string
	msg     UserMessage
}

var errorMappings = []errorMapping{
	// =========================================================================
	// File Errors
	// =========================================================================
	{target: ErrFileTooLarge, pattern: "file too large", msg: UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{target: ErrInvalidCSV, msg: UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with consistent columns",
		Code:    "FILE002",
	}},
	{target: ErrInvalidSheet, msg: UserMessage{
		Message: "File is not a readable spreadsheet",
		Action:  "Save the workbook as .xlsx and try again",
		Code:    "FILE002",
	}},
	{target: ErrNoFile, pattern: "no file provided", msg: UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV or XLSX file",
		Code:    "FILE004",
	}},
	{target: ErrEmptyFile, msg: UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with a header row",
		Code:    "FILE005",
	}},
	{target: ErrUnsupportedFormat, msg: UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE006",
	}},

	// =========================================================================
	// Column Errors
	// =========================================================================
	{target: ErrColumnNotFound, msg: UserMessage{
		Message: "Column not found",
		Action:  "Refresh the column list and pick an existing column",
		Code:    "COL001",
	}},
	{target: ErrNoColumnsSelected, msg: UserMessage{
		Message: "No columns selected",
		Action:  "Select at least one column",
		Code:    "COL002",
	}},
	{target: ErrNameCollision, msg: UserMessage{
		Message: "A column with that name already exists",
		Action:  "Choose a different name",
		Code:    "COL003",
	}},
	{target: ErrMissingArgument, msg: UserMessage{
		Message: "Missing column or new name",
		Action:  "Pick a column and enter a new name",
		Code:    "COL004",
	}},

	// =========================================================================
	// Transformation Errors
	// =========================================================================
	{target: ErrInvalidTransformationType, msg: UserMessage{
		Message: "Invalid transformation type",
		Action:  "Choose one of the listed usages",
		Code:    "TRN001",
	}},
	{target: ErrCoercionFailure, msg: UserMessage{
		Message: "Conversion failed",
		Action:  "Clean the offending values or pick a different usage",
		Code:    "TRN002",
	}},

	// =========================================================================
	// Session Errors
	// =========================================================================
	{target: ErrSessionNotFound, msg: UserMessage{
		Message: "Session not found",
		Action:  "The session may have expired. Start a new session",
		Code:    "SES001",
	}},
	{target: ErrNoData, msg: UserMessage{
		Message: "No data loaded",
		Action:  "Load a file first",
		Code:    "SES002",
	}},
	{target: ErrInvalidRowCount, msg: UserMessage{
		Message: "Rows to display must be at least 1",
		Action:  "Enter a positive number of rows",
		Code:    "SES003",
	}},
	{target: ErrTooManySessions, msg: UserMessage{
		Message: "Too many open sessions",
		Action:  "Close an unused session or try again later",
		Code:    "SES004",
	}},

	// =========================================================================
	// Load and Request Errors
	// =========================================================================
	{target: ErrTooManyLoads, msg: UserMessage{
		Message: "System is busy loading other files",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{target: context.Canceled, msg: UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{target: context.DeadlineExceeded, msg: UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
	{pattern: "request body too large", msg: UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{pattern: "invalid json body", msg: UserMessage{
		Message: "The request could not be read",
		Action:  "Send a JSON body with the expected fields",
		Code:    "REQ001",
	}},
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when no mapping matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Conversion failures carry the underlying parse error in Detail.
//
// Example:
//
//	msg := MapError(fmt.Errorf("drop: %w", ErrColumnNotFound))
//	// msg.Code == "COL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, m := range errorMappings {
		matched := m.target != nil && errors.Is(err, m.target)
		if !matched && m.pattern != "" {
			matched = strings.Contains(errStr, m.pattern)
		}
		if !matched {
			continue
		}

		msg := m.msg
		var ce *CoercionError
		if errors.As(err, &ce) {
			msg.Detail = fmt.Sprintf("%s (row %d, value %q): %v", ce.Column, ce.Row+1, ce.Value, ce.Err)
		}
		return msg
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action" with ": detail" after the
// message when present.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Detail != "" {
		return fmt.Sprintf("%s: %s (Code: %s). %s", msg.Message, msg.Detail, msg.Code, msg.Action)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
