package views

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dataprep/internal/core"
)

func TestTablePreview(t *testing.T) {
	p := &core.PreviewResult{
		Columns: []core.ColumnHeader{
			{Name: "<name>", Kind: core.KindText},
			{Name: "qty", Kind: core.KindInteger},
		},
		Rows: []core.Row{
			{pgtype.Text{String: "a&b", Valid: true}, pgtype.Int8{Int64: 7, Valid: true}},
			{pgtype.Text{}, pgtype.Int8{}},
		},
		TotalRows: 5,
	}

	var sb strings.Builder
	require.NoError(t, TablePreview(p).Render(t.Context(), &sb))
	html := sb.String()

	assert.Contains(t, html, `<th title="text">&lt;name&gt;</th>`)
	assert.Contains(t, html, `<th title="integer">qty</th>`)
	assert.Contains(t, html, `<td>a&amp;b</td><td>7</td>`)
	assert.Contains(t, html, `<td>NaN</td><td>NaN</td>`)
	assert.Contains(t, html, `<p class="row-count">Showing 2 of 5 rows</p>`)
}

func TestTablePreview_Empty(t *testing.T) {
	for _, p := range []*core.PreviewResult{nil, {TotalRows: 0}} {
		var sb strings.Builder
		require.NoError(t, TablePreview(p).Render(t.Context(), &sb))
		assert.Equal(t, `<p class="empty">No data to display</p>`, sb.String())
	}
}

func TestErrorAlert(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, ErrorAlert("Column not found", "", "COL001").Render(t.Context(), &sb))
	assert.Equal(t,
		`<div class="alert alert-error" role="alert"><p class="alert-message">Column not found</p><p class="alert-code">Code: COL001</p></div>`,
		sb.String())

	sb.Reset()
	require.NoError(t, ErrorAlert("Busy", "Retry <soon>", "UPL002").Render(t.Context(), &sb))
	assert.Contains(t, sb.String(), `<p class="alert-action">Retry &lt;soon&gt;</p>`)
}

func TestResult(t *testing.T) {
	var sb strings.Builder
	o := core.Outcome{Success: false, Message: "Conversion failed", Detail: `price (row 3, value "free")`}
	require.NoError(t, Result(o, nil).Render(t.Context(), &sb))
	assert.Equal(t,
		`<div class="toast toast-error" role="status"><span>Conversion failed</span><small>price (row 3, value &#34;free&#34;)</small></div>`,
		sb.String())

	sb.Reset()
	require.NoError(t, Result(core.Succeeded("done"), &core.PreviewResult{}).Render(t.Context(), &sb))
	assert.True(t, strings.HasPrefix(sb.String(), `<div class="toast toast-success" role="status"><span>done</span></div>`))
	assert.Contains(t, sb.String(), "No data to display")
}

func TestInfoReport(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, InfoReport("a < b").Render(t.Context(), &sb))
	assert.Equal(t, `<pre class="info">a &lt; b</pre>`, sb.String())
}
