// Package core provides the business logic for interactive table cleaning.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Table: an ordered set of named, uniformly typed columns of equal length.
//   - Loader: parses CSV or XLSX bytes into a Table and caches the result.
//   - Coercions: the five column conversions a user can request.
//   - Service: owns sessions, each with at most one active Table.
//
// # Loading
//
// The media type decides the parser. "text/csv" is read as CSV; any type
// ending in "sheet" is read as a spreadsheet and only the first sheet is
// used. Column kinds are inferred per column: integer, then float, then text.
//
//	summary, err := svc.Load(ctx, sessionID, core.File{
//	    Name:      "sales.csv",
//	    MediaType: core.MediaTypeCSV,
//	    Data:      data,
//	})
//
// # Transforming
//
// [Transform] converts a whole column or nothing. If any cell fails, the
// column keeps its old values and kind and a [*CoercionError] names the first
// offending row.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, format, empty)
//   - COL001-COL004: Column errors (not found, collisions, missing names)
//   - TRN001-TRN002: Transformation errors
//   - SES001-SES003: Session errors
//   - UPL002-UPL005: Load capacity and cancellation
package core
