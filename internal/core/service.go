package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Velocidex/ttlcache/v2"
	"github.com/google/uuid"
)

// ServiceConfig holds the limits a Service runs with.
type ServiceConfig struct {
	MaxFileSize        int64
	MaxConcurrentLoads int
	MaxLoadWait        time.Duration
	LoadTimeout        time.Duration

	SessionIdleTTL time.Duration
	MaxSessions    int

	CacheTTL  time.Duration
	CacheSize int

	PreviewRows    int
	MaxPreviewRows int
}

// DefaultServiceConfig returns the limits used when nothing is configured.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxFileSize:        100 << 20,
		MaxConcurrentLoads: DefaultMaxConcurrentLoads,
		MaxLoadWait:        DefaultMaxLoadWait,
		LoadTimeout:        2 * time.Minute,
		SessionIdleTTL:     2 * time.Hour,
		MaxSessions:        1000,
		CacheTTL:           30 * time.Minute,
		CacheSize:          32,
		PreviewRows:        10,
		MaxPreviewRows:     10000,
	}
}

// Service holds every session and runs table operations on their behalf.
type Service struct {
	loader   *Loader
	limiter  *LoadLimiter
	sessions *ttlcache.Cache

	createMu    sync.Mutex
	maxSessions int

	loadTimeout    time.Duration
	previewRows    int
	maxPreviewRows int
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	sessions := ttlcache.NewCache()
	if cfg.SessionIdleTTL > 0 {
		if err := sessions.SetTTL(cfg.SessionIdleTTL); err != nil {
			return nil, fmt.Errorf("session ttl: %w", err)
		}
	}
	sessions.SetExpirationCallback(func(key string, _ interface{}) error {
		slog.Info("session expired", "session_id", key)
		return nil
	})

	if cfg.PreviewRows < 1 {
		cfg.PreviewRows = 10
	}
	if cfg.MaxPreviewRows < cfg.PreviewRows {
		cfg.MaxPreviewRows = cfg.PreviewRows
	}

	return &Service{
		loader: NewLoader(LoaderConfig{
			MaxFileSize:  cfg.MaxFileSize,
			CacheTTL:     cfg.CacheTTL,
			CacheSize:    cfg.CacheSize,
			ParseTimeout: cfg.LoadTimeout,
		}),
		limiter:        NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.MaxLoadWait),
		sessions:       sessions,
		maxSessions:    cfg.MaxSessions,
		loadTimeout:    cfg.LoadTimeout,
		previewRows:    cfg.PreviewRows,
		maxPreviewRows: cfg.MaxPreviewRows,
	}, nil
}

// CreateSession starts an empty session and returns its ID. Live sessions
// are never evicted to make room; past MaxSessions it fails with
// ErrTooManySessions until one is closed or expires.
func (s *Service) CreateSession() (string, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if s.maxSessions > 0 && s.sessions.Count() >= s.maxSessions {
		return "", fmt.Errorf("%w: limit %d", ErrTooManySessions, s.maxSessions)
	}

	id := uuid.NewString()
	if err := s.sessions.Set(id, newSession(id)); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	slog.Debug("session created", "session_id", id)
	return id, nil
}

// CloseSession discards a session and its table.
func (s *Service) CloseSession(id string) error {
	if _, err := s.session(id); err != nil {
		return err
	}
	if err := s.sessions.Remove(id); err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	slog.Debug("session closed", "session_id", id)
	return nil
}

// SessionInfo returns a snapshot of the session.
func (s *Service) SessionInfo(id string) (SessionInfo, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.info(), nil
}

func (s *Service) session(id string) (*Session, error) {
	v, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess, ok := v.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Load parses f and makes it the session's active table, replacing any
// previous one. On failure the previous table stays active.
func (s *Service) Load(ctx context.Context, id string, f File) (Summary, error) {
	sess, err := s.session(id)
	if err != nil {
		return Summary{}, err
	}

	if s.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.loadTimeout)
		defer cancel()
	}

	meta := RequestMetaFromContext(ctx)

	if !s.limiter.TryAcquire() {
		slog.Debug("load waiting for a slot",
			"session_id", id,
			"file", f.Name,
			"active", s.limiter.Status().Active,
		)
		if err := s.limiter.Acquire(ctx); err != nil {
			slog.Warn("load rejected",
				"session_id", id,
				"file", f.Name,
				"ip", meta.IP,
				"user_agent", meta.UserAgent,
				"error", err,
			)
			return Summary{}, err
		}
	}
	defer s.limiter.Release()

	start := time.Now()

	t, err := s.loader.Load(ctx, f)
	if err != nil {
		slog.Warn("load failed",
			"session_id", id,
			"file", f.Name,
			"ip", meta.IP,
			"user_agent", meta.UserAgent,
			"error", err,
		)
		return Summary{}, err
	}

	sess.replace(t, f.Name)
	summary := Summarize(t)

	slog.Info("file loaded",
		"session_id", id,
		"file", f.Name,
		"rows", summary.Rows,
		"columns", summary.Columns,
		"ip", meta.IP,
		"user_agent", meta.UserAgent,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return summary, nil
}

// Transform converts a column in place. usage is one of the wire names
// returned by Coercions.
func (s *Service) Transform(id, column, usage string) (Coercion, error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, err
	}

	var c Coercion
	err = sess.withTable(func(t *Table) error {
		var err error
		c, err = TransformUsage(t, column, usage)
		return err
	})
	if err != nil {
		slog.Debug("transform failed", "session_id", id, "column", column, "usage", usage, "error", err)
		return c, err
	}

	slog.Info("column transformed", "session_id", id, "column", column, "kind", c.Kind())
	return c, nil
}

// Drop removes columns from the active table.
func (s *Service) Drop(id string, columns []string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	if err := sess.withTable(func(t *Table) error { return Drop(t, columns) }); err != nil {
		return err
	}
	slog.Info("columns dropped", "session_id", id, "columns", columns)
	return nil
}

// Rename renames a column of the active table.
func (s *Service) Rename(id, column, newName string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	if err := sess.withTable(func(t *Table) error { return Rename(t, column, newName) }); err != nil {
		return err
	}
	slog.Info("column renamed", "session_id", id, "from", column, "to", newName)
	return nil
}

// Select returns a copy of the named columns. The active table is unchanged.
func (s *Service) Select(id string, columns []string) (*Table, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	var out *Table
	err = sess.withTable(func(t *Table) error {
		var err error
		out, err = Select(t, columns)
		return err
	})
	return out, err
}

// Preview returns the first n rows of the active table. n == 0 means the
// configured default; larger requests are capped at the configured maximum.
func (s *Service) Preview(id string, n int) (*PreviewResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	n = s.RowCount(n)

	var out *PreviewResult
	err = sess.withTable(func(t *Table) error {
		var err error
		out, err = PreviewTable(t, n)
		return err
	})
	return out, err
}

// RowCount resolves a requested preview size: 0 means the configured default
// and anything above the configured maximum is capped.
func (s *Service) RowCount(n int) int {
	if n == 0 {
		return s.previewRows
	}
	return min(n, s.maxPreviewRows)
}

// Summarize reports the shape of the active table.
func (s *Service) Summarize(id string) (Summary, error) {
	sess, err := s.session(id)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	err = sess.withTable(func(t *Table) error {
		out = Summarize(t)
		return nil
	})
	return out, err
}

// Info writes the text report for the active table to w.
func (s *Service) Info(id string, w io.Writer) error {
	summary, err := s.Summarize(id)
	if err != nil {
		return err
	}
	return WriteInfo(w, summary)
}

// LoadLimiterStatus returns the current state of the load limiter.
func (s *Service) LoadLimiterStatus() LoadLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx ends.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close releases every session and the load cache.
func (s *Service) Close() error {
	s.sessions.SetExpirationCallback(nil)
	if err := s.sessions.Close(); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}
	return s.loader.Close()
}
