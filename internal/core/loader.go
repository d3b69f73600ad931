package core

// loader.go turns an uploaded file into a Table.
//
// Two formats are recognised, by declared media type only:
//   - "text/csv"                      -> comma-separated text
//   - any media type ending in "sheet" -> first worksheet of an XLSX workbook
//
// Parsed tables are memoized by content hash. The cache keeps a pristine copy
// and every caller receives its own clone, so edits made to a session's table
// never leak into later loads of the same bytes.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Velocidex/ttlcache/v2"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

// Media types the loader accepts.
const (
	MediaTypeCSV  = "text/csv"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ContextCheckInterval is how often (in rows) parsing checks for cancellation.
var ContextCheckInterval = 1000

// File is an uploaded file with its declared media type.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Format identifies a supported file format.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatSpreadsheet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatSpreadsheet:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

// DetectFormat maps a declared media type to a Format.
// Parameters such as "; charset=utf-8" are ignored.
func DetectFormat(mediaType string) (Format, error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch {
	case mt == MediaTypeCSV:
		return FormatCSV, nil
	case strings.HasSuffix(mt, "sheet"):
		return FormatSpreadsheet, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
}

// MediaTypeFor returns the declared media type, falling back to one derived
// from the file extension when the declared type is empty or generic.
func MediaTypeFor(name, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return MediaTypeCSV
	case ".xlsx":
		return MediaTypeXLSX
	}
	return declared
}

// LoaderConfig controls file limits and the parse cache.
type LoaderConfig struct {
	MaxFileSize int64         // bytes; <= 0 means unlimited
	CacheTTL    time.Duration // 0 keeps entries until evicted by size
	CacheSize   int           // max cached tables; <= 0 means unbounded

	// ParseTimeout bounds a parse once started. 0 means no bound.
	ParseTimeout time.Duration
}

// Loader parses files into tables and memoizes the result.
type Loader struct {
	maxSize      int64
	parseTimeout time.Duration
	cache        *ttlcache.Cache
	group        singleflight.Group

	parse func(ctx context.Context, format Format, data []byte) (*Table, error)
}

// NewLoader creates a Loader. Call Close to stop the cache's janitor.
func NewLoader(cfg LoaderConfig) *Loader {
	cache := ttlcache.NewCache()
	if cfg.CacheTTL > 0 {
		_ = cache.SetTTL(cfg.CacheTTL)
	}
	if cfg.CacheSize > 0 {
		cache.SetCacheSizeLimit(cfg.CacheSize)
	}
	cache.SkipTTLExtensionOnHit(true)

	return &Loader{
		maxSize:      cfg.MaxFileSize,
		parseTimeout: cfg.ParseTimeout,
		cache:        cache,
		parse:        parse,
	}
}

// Load parses f into a new Table. Loading identical content twice returns
// equal tables without parsing again.
func (l *Loader) Load(ctx context.Context, f File) (*Table, error) {
	format, err := DetectFormat(f.MediaType)
	if err != nil {
		return nil, err
	}
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, f.Name)
	}
	if l.maxSize > 0 && int64(len(f.Data)) > l.maxSize {
		return nil, fmt.Errorf("%w: %s is %s (limit %s)", ErrFileTooLarge,
			f.Name, humanize.Bytes(uint64(len(f.Data))), humanize.Bytes(uint64(l.maxSize)))
	}

	key := cacheKey(format, f.Data)
	if cached, err := l.cache.Get(key); err == nil {
		if t, ok := cached.(*Table); ok {
			slog.Debug("load cache hit", "file", f.Name, "format", format)
			return t.Clone(), nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Name, err)
	}

	// Concurrent loads of the same bytes share one parse. It runs detached
	// from the caller that started it, so that caller giving up does not fail
	// the others; each caller stops waiting on its own ctx.
	ch := l.group.DoChan(key, func() (any, error) {
		pctx := context.WithoutCancel(ctx)
		if l.parseTimeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(pctx, l.parseTimeout)
			defer cancel()
		}

		start := time.Now()
		t, err := l.parse(pctx, format, f.Data)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(key, t)
		slog.Debug("file parsed",
			"file", f.Name,
			"format", format,
			"rows", t.NumRows(),
			"columns", t.NumColumns(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load %s: %w", f.Name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load %s: %w", f.Name, res.Err)
		}
		if res.Shared {
			slog.Debug("load shared with concurrent caller", "file", f.Name)
		}
		return res.Val.(*Table).Clone(), nil
	}
}

// Close releases the cache.
func (l *Loader) Close() error {
	return l.cache.Close()
}

func parse(ctx context.Context, format Format, data []byte) (*Table, error) {
	var (
		header  []string
		records [][]string
		err     error
	)

	switch format {
	case FormatCSV:
		header, records, err = parseCSV(ctx, data)
	case FormatSpreadsheet:
		header, records, err = parseSpreadsheet(ctx, data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return buildTable(header, records)
}

func cacheKey(format Format, data []byte) string {
	sum := sha256.Sum256(data)
	return format.String() + ":" + hex.EncodeToString(sum[:])
}
