package core

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// parseSpreadsheet reads the first worksheet of an XLSX workbook.
//
// Cells are read as their stored values, not their display text, so a
// number format never truncates a value or turns a numeric column into
// text. Two cell kinds are rewritten after reading:
//   - numbers under a date or time format become "2006-01-02 15:04:05" text
//   - booleans become TRUE / FALSE
func parseSpreadsheet(ctx context.Context, data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidSheet, sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}

	rd := newSheetReader(f, sheet)
	for r, row := range rows {
		if r%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		for c, raw := range row {
			row[c], err = rd.cellText(c+1, r+1, raw)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: sheet %q: %v", ErrInvalidSheet, sheet, err)
			}
		}
	}

	// Trailing empty cells are trimmed per row, so the widest row decides
	// how many columns the sheet has.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, rows[0])

	return header, rows[1:], nil
}

// sheetReader resolves the cells whose raw value is not their literal form.
type sheetReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool // style ID -> has a date or time number format
}

func newSheetReader(f *excelize.File, sheet string) *sheetReader {
	rd := &sheetReader{f: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		rd.date1904 = *props.Date1904
	}
	return rd
}

func (rd *sheetReader) cellText(col, row int, raw string) (string, error) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return raw, nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}

	if raw == "0" || raw == "1" {
		typ, err := rd.f.GetCellType(rd.sheet, cell)
		if err != nil {
			return "", err
		}
		if typ == excelize.CellTypeBool {
			if raw == "1" {
				return "TRUE", nil
			}
			return "FALSE", nil
		}
	}

	styleID, err := rd.f.GetCellStyle(rd.sheet, cell)
	if err != nil {
		return "", err
	}
	date, ok := rd.isDate[styleID]
	if !ok {
		date = rd.dateStyle(styleID)
		rd.isDate[styleID] = date
	}
	if !date {
		return raw, nil
	}

	t, err := excelize.ExcelDateToTime(serial, rd.date1904)
	if err != nil {
		// Negative serials have no date; keep the number.
		return raw, nil
	}
	return t.Round(time.Millisecond).Format(TimestampLayout), nil
}

func (rd *sheetReader) dateStyle(styleID int) bool {
	if styleID == 0 {
		return false
	}
	style, err := rd.f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return isBuiltinDateFormat(style.NumFmt)
}

// isBuiltinDateFormat reports whether a built-in number format ID shows a
// date or time. 27-36 and 50-58 are the East Asian date formats.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains date or
// time tokens outside of quoted text, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	// Only the first section decides; the rest cover negatives and text.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}

	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			// [h], [mm] and [ss] are elapsed time; colours and locales are not.
			if end := strings.IndexByte(code[i:], ']'); end > 0 {
				switch strings.ToLower(code[i+1 : i+end]) {
				case "h", "hh", "m", "mm", "s", "ss":
					return true
				}
			}
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			switch ch | 0x20 {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}
