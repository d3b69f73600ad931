// Package views holds the HTML fragments swapped in by HTMX.
//
// Components live in views.templ; views_templ.go is generated from it with
// `templ generate` and committed.
package views

import "github.com/JonMunkholm/dataprep/internal/core"

// nullText is shown in place of a missing cell.
const nullText = "NaN"

func cellText(v core.Value) string {
	s, ok := core.FormatValue(v)
	if !ok {
		return nullText
	}
	return s
}
