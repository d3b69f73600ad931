package core

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

func newTestLoader(t *testing.T, cfg LoaderConfig) *Loader {
	t.Helper()
	l := NewLoader(cfg)
	t.Cleanup(func() { l.Close() })
	return l
}

func csvFile(data string) File {
	return File{Name: "test.csv", MediaType: MediaTypeCSV, Data: []byte(data)}
}

// ----------------------------------------------------------------------------
// Format detection
// ----------------------------------------------------------------------------

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		mediaType string
		want      Format
		wantErr   bool
	}{
		{"text/csv", FormatCSV, false},
		{"text/csv; charset=utf-8", FormatCSV, false},
		{"TEXT/CSV", FormatCSV, false},
		{MediaTypeXLSX, FormatSpreadsheet, false},
		{"application/vnd.oasis.opendocument.spreadsheet", FormatSpreadsheet, false},
		{"application/json", 0, true},
		{"text/plain", 0, true},
		{"application/vnd.ms-excel", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			got, err := DetectFormat(tt.mediaType)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupportedFormat", tt.mediaType, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("DetectFormat(%q) = (%v, %v), want %v", tt.mediaType, got, err, tt.want)
			}
		})
	}
}

func TestMediaTypeFor(t *testing.T) {
	tests := []struct {
		name, declared, want string
	}{
		{"a.csv", "text/csv", "text/csv"},
		{"a.csv", "", MediaTypeCSV},
		{"a.CSV", "application/octet-stream", MediaTypeCSV},
		{"a.xlsx", "", MediaTypeXLSX},
		{"a.xlsx", "application/json", "application/json"},
		{"a.txt", "", ""},
	}

	for _, tt := range tests {
		if got := MediaTypeFor(tt.name, tt.declared); got != tt.want {
			t.Errorf("MediaTypeFor(%q, %q) = %q, want %q", tt.name, tt.declared, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// CSV loading
// ----------------------------------------------------------------------------

func TestLoad_CSV(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{})

	tbl, err := l.Load(context.Background(), csvFile("price,qty\n$10.00,1\n$20.50,2\nfree,3\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if tbl.NumRows() != 3 || tbl.NumColumns() != 2 {
		t.Fatalf("table = %s, want 3 rows x 2 columns", tbl)
	}
	price, _ := tbl.Column("price")
	if price.Kind != KindText {
		t.Errorf("price.Kind = %v, want text", price.Kind)
	}
	qty, _ := tbl.Column("qty")
	if qty.Kind != KindInteger {
		t.Errorf("qty.Kind = %v, want integer", qty.Kind)
	}

	// qty converts; price has an unparsable cell
	if err := Transform(tbl, "qty", CoerceNumber); err != nil {
		t.Errorf("Transform(qty) error = %v", err)
	}
	if err := Transform(tbl, "price", CoerceCurrency); !errors.Is(err, ErrCoercionFailure) {
		t.Errorf("Transform(price) error = %v, want ErrCoercionFailure", err)
	}
}

func TestLoad_CSVInference(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		column      string
		wantKind    Kind
		wantNonNull int
	}{
		{"integers", "n\n1\n2\n", "n", KindInteger, 2},
		{"mixed ints and floats", "n\n1\n2.5\n", "n", KindFloat, 2},
		{"text wins", "n\n1\nabc\n", "n", KindText, 2},
		{"missing markers are null", "n\n1\nNA\n\nnull\n", "n", KindInteger, 1},
		{"all missing is text", "n,m\n1,\n2,N/A\n", "m", KindText, 0},
		{"short rows are padded", "a,b\n1,2\n3\n", "b", KindInteger, 1},
		{"leading BOM dropped", "\xEF\xBB\xBFid\n7\n", "id", KindInteger, 1},
		{"blank header named", "a,\n1,2\n", "Unnamed: 1", KindInteger, 1},
		{"duplicate header suffixed", "a,a\n1,2\n", "a.1", KindInteger, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(t, LoaderConfig{})
			tbl, err := l.Load(context.Background(), csvFile(tt.data))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			c, err := tbl.Column(tt.column)
			if err != nil {
				t.Fatalf("Column(%q) error = %v (columns %v)", tt.column, err, tbl.ColumnNames())
			}
			if c.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", c.Kind, tt.wantKind)
			}
			if got := c.NonNull(); got != tt.wantNonNull {
				t.Errorf("NonNull() = %d, want %d", got, tt.wantNonNull)
			}
		})
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{})
	tbl, err := l.Load(context.Background(), csvFile("a,b\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.NumRows() != 0 || tbl.NumColumns() != 2 {
		t.Errorf("table = %s, want 0 rows x 2 columns", tbl)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoaderConfig
		file    File
		wantErr error
	}{
		{
			name:    "unsupported media type",
			file:    File{Name: "a.json", MediaType: "application/json", Data: []byte("{}")},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "empty file",
			file:    csvFile(""),
			wantErr: ErrEmptyFile,
		},
		{
			name:    "too large",
			cfg:     LoaderConfig{MaxFileSize: 4},
			file:    csvFile("a,b\n1,2\n"),
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "row wider than header",
			file:    csvFile("a\n1,2\n"),
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "not a workbook",
			file:    File{Name: "a.xlsx", MediaType: MediaTypeXLSX, Data: []byte("not a zip")},
			wantErr: ErrInvalidSheet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLoader(t, tt.cfg)
			_, err := l.Load(context.Background(), tt.file)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, csvFile("a\n1\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_CacheReturnsIndependentCopies(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{CacheSize: 4})
	f := csvFile("a,b\nx,1\ny,2\n")

	first, err := l.Load(context.Background(), f)
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if err := Rename(first, "a", "renamed"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	second, err := l.Load(context.Background(), f)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if got := second.ColumnNames(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("cached load saw earlier edits: columns = %v", got)
	}

	third, _ := l.Load(context.Background(), f)
	if !second.Equal(third) {
		t.Error("loading identical content twice gave different tables")
	}
}

// countParses wraps the loader's parse function and counts calls.
func countParses(l *Loader) *atomic.Int32 {
	var calls atomic.Int32
	next := l.parse
	l.parse = func(ctx context.Context, format Format, data []byte) (*Table, error) {
		calls.Add(1)
		return next(ctx, format, data)
	}
	return &calls
}

func TestLoad_RepeatLoadSkipsParse(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{CacheSize: 4})
	calls := countParses(l)
	f := csvFile("a,b\nx,1\ny,2\n")

	first, err := l.Load(context.Background(), f)
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if _, err := l.cache.Get(cacheKey(FormatCSV, f.Data)); err != nil {
		t.Fatalf("parsed table not cached: %v", err)
	}

	second, err := l.Load(context.Background(), f)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("parse calls = %d, want 1", got)
	}
	if !first.Equal(second) {
		t.Error("repeat load returned a different table")
	}

	// Same bytes under another format are a different entry.
	other := File{Name: "a.xlsx", MediaType: MediaTypeXLSX, Data: f.Data}
	if _, err := l.Load(context.Background(), other); !errors.Is(err, ErrInvalidSheet) {
		t.Errorf("Load(xlsx) error = %v, want ErrInvalidSheet", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("parse calls = %d, want 2", got)
	}
}

func TestLoad_FailedParseIsNotCached(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{CacheSize: 4})
	calls := countParses(l)
	f := csvFile("a\n1,2\n")

	for i := 0; i < 2; i++ {
		if _, err := l.Load(context.Background(), f); !errors.Is(err, ErrInvalidCSV) {
			t.Fatalf("Load() error = %v, want ErrInvalidCSV", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("parse calls = %d, want 2", got)
	}
}

func TestLoad_CancelDoesNotFailSharedLoad(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{})
	calls := countParses(l)

	started := make(chan struct{})
	release := make(chan struct{})
	next := l.parse
	l.parse = func(ctx context.Context, format Format, data []byte) (*Table, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return next(ctx, format, data)
	}

	f := csvFile("a,b\nx,1\n")
	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := l.Load(ctxA, f)
		errA <- err
	}()
	<-started

	type result struct {
		tbl *Table
		err error
	}
	resB := make(chan result, 1)
	go func() {
		tbl, err := l.Load(context.Background(), f)
		resB <- result{tbl, err}
	}()
	// Let the second caller join the in-flight parse.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled caller error = %v, want context.Canceled", err)
	}
	close(release)

	select {
	case res := <-resB:
		if res.err != nil {
			t.Fatalf("live caller error = %v", res.err)
		}
		if res.tbl.NumRows() != 1 || res.tbl.NumColumns() != 2 {
			t.Errorf("table = %s, want 1 row x 2 columns", res.tbl)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("live caller did not return")
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("parse calls = %d, want 1", got)
	}
}

func TestLoad_ParseTimeout(t *testing.T) {
	l := newTestLoader(t, LoaderConfig{ParseTimeout: 20 * time.Millisecond})
	l.parse = func(ctx context.Context, format Format, data []byte) (*Table, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := l.Load(context.Background(), csvFile("a\n1\n"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Load() error = %v, want context.DeadlineExceeded", err)
	}
}

// ----------------------------------------------------------------------------
// XLSX loading
// ----------------------------------------------------------------------------

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName() error = %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("SetCellValue(%s) error = %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

func TestLoad_XLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"name", "amount", "count"},
		{"alpha", "$1,234.50", 1},
		{"beta", "$20.00", 2},
		{"gamma", nil, 3},
	})

	l := newTestLoader(t, LoaderConfig{})
	tbl, err := l.Load(context.Background(), File{Name: "book.xlsx", MediaType: MediaTypeXLSX, Data: data})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got, want := tbl.ColumnNames(), []string{"name", "amount", "count"}; !slices.Equal(got, want) {
		t.Fatalf("ColumnNames() = %v, want %v", got, want)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("NumRows() = %d, want 3", tbl.NumRows())
	}

	count, _ := tbl.Column("count")
	if count.Kind != KindInteger {
		t.Errorf("count.Kind = %v, want integer", count.Kind)
	}

	if err := Transform(tbl, "amount", CoerceCurrency); err != nil {
		t.Fatalf("Transform(amount) error = %v", err)
	}
	amount, _ := tbl.Column("amount")
	if v := amount.Values[0].(pgtype.Float8); !v.Valid || v.Float64 != 1234.5 {
		t.Errorf("amount[0] = %+v, want 1234.5", v)
	}
	if !IsNull(amount.Values[2]) {
		t.Errorf("amount[2] = %#v, want null", amount.Values[2])
	}
}

func TestLoad_XLSXStoredValues(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	set := func(cell string, v any) {
		t.Helper()
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			t.Fatalf("SetCellValue(%s) error = %v", cell, err)
		}
	}
	style := func(cell string, s *excelize.Style) {
		t.Helper()
		id, err := f.NewStyle(s)
		if err != nil {
			t.Fatalf("NewStyle() error = %v", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
			t.Fatalf("SetCellStyle(%s) error = %v", cell, err)
		}
	}

	set("A1", "amount")
	set("B1", "when")
	set("C1", "day")
	set("D1", "flag")

	set("A2", 1.23456)
	style("A2", &excelize.Style{NumFmt: 2}) // 0.00
	set("A3", 1234567.891)
	style("A3", &excelize.Style{NumFmt: 4}) // #,##0.00

	set("B2", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC))
	set("B3", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))

	dayFmt := "yyyy-mm-dd"
	set("C2", 45292) // 2024-01-01
	style("C2", &excelize.Style{CustomNumFmt: &dayFmt})

	set("D2", true)
	set("D3", false)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	l := newTestLoader(t, LoaderConfig{})
	tbl, err := l.Load(context.Background(), File{Name: "styled.xlsx", MediaType: MediaTypeXLSX, Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	amount, _ := tbl.Column("amount")
	if amount.Kind != KindFloat {
		t.Fatalf("amount.Kind = %v, want float", amount.Kind)
	}
	for i, want := range []float64{1.23456, 1234567.891} {
		if v := amount.Values[i].(pgtype.Float8); !v.Valid || v.Float64 != want {
			t.Errorf("amount[%d] = %+v, want %v", i, v, want)
		}
	}

	when, _ := tbl.Column("when")
	for i, want := range []string{"2024-03-05 14:30:00", "1999-12-31 00:00:00"} {
		if got, _ := FormatValue(when.Values[i]); got != want {
			t.Errorf("when[%d] = %q, want %q", i, got, want)
		}
	}
	if err := Transform(tbl, "when", CoerceDateTime); err != nil {
		t.Errorf("Transform(when) error = %v", err)
	}

	day, _ := tbl.Column("day")
	if got, _ := FormatValue(day.Values[0]); got != "2024-01-01 00:00:00" {
		t.Errorf("day[0] = %q, want 2024-01-01 00:00:00", got)
	}

	flag, _ := tbl.Column("flag")
	if flag.Kind != KindText {
		t.Errorf("flag.Kind = %v, want text", flag.Kind)
	}
	for i, want := range []string{"TRUE", "FALSE"} {
		if got, _ := FormatValue(flag.Values[i]); got != want {
			t.Errorf("flag[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"h:mm AM/PM", true},
		{"[h]:mm:ss", true},
		{"dd/mm/yyyy;@", true},
		{"0.00", false},
		{"#,##0.00", false},
		{`"$"#,##0.00`, false},
		{"[Red]0.00", false},
		{"[$-409]#,##0", false},
		{`0.0" days"`, false},
		{"0.00E+00", false},
		{"General", false},
	}

	for _, tt := range tests {
		if got := isDateFormatCode(tt.code); got != tt.want {
			t.Errorf("isDateFormatCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"a", "", "a", " b ", "a"})
	want := []string{"a", "Unnamed: 1", "a.1", "b", "a.2"}
	if !slices.Equal(got, want) {
		t.Errorf("headerNames() = %v, want %v", got, want)
	}
}
