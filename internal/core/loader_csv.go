package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// parseCSV reads the header row and all data records.
//
// Input is decoded as UTF-8: a leading BOM is dropped (UTF-16 input with a
// BOM is transcoded) and invalid bytes become U+FFFD. Short records are kept
// and padded later; a record wider than the header is an error.
func parseCSV(ctx context.Context, data []byte) ([]string, [][]string, error) {
	decoded := transform.NewReader(bytes.NewReader(data),
		unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrInvalidCSV, err)
	}

	var records [][]string
	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				ErrInvalidCSV, line, len(rec), len(header))
		}
		records = append(records, rec)
	}

	return header, records, nil
}
