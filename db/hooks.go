package db

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Hook
// ─────────────────────────────────────────────────────────────────────────────

// Hook is called before and after every statement. Implementations must be
// goroutine-safe and should not block; panics are recovered and logged.
type Hook interface {
	BeforeQuery(ctx context.Context, query string, args []any)

	// AfterQuery receives the wall-clock driver time and the already mapped
	// error (nil on success).
	AfterQuery(ctx context.Context, query string, args []any, duration time.Duration, err error)
}

type hookChain struct {
	hooks []Hook
}

func newHookChain(hooks []Hook) hookChain {
	filtered := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return hookChain{hooks: filtered}
}

func (c hookChain) Before(ctx context.Context, query string, args []any) {
	for _, h := range c.hooks {
		func() {
			defer recoverHook("BeforeQuery")
			h.BeforeQuery(ctx, query, args)
		}()
	}
}

func (c hookChain) After(ctx context.Context, query string, args []any, d time.Duration, err error) {
	for _, h := range c.hooks {
		func() {
			defer recoverHook("AfterQuery")
			h.AfterQuery(ctx, query, args, d, err)
		}()
	}
}

func recoverHook(phase string) {
	if r := recover(); r != nil {
		slog.Error("jobboard/db: hook panic", "phase", phase, "panic", r)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging hook
// ─────────────────────────────────────────────────────────────────────────────

// LogHookConfig configures NewLogHook.
type LogHookConfig struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// SlowQueryThreshold logs at warn level above this duration. Zero
	// disables slow-query logging.
	SlowQueryThreshold time.Duration
	// LogArgs includes bound values; keep it off where values may be PII.
	LogArgs bool
}

// NewLogHook returns a Hook that logs each statement through slog: errors at
// error level, slow statements at warn, everything else at debug.
func NewLogHook(cfg LogHookConfig) Hook {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &logHook{cfg: cfg, logger: logger}
}

type logHook struct {
	cfg    LogHookConfig
	logger *slog.Logger
}

func (h *logHook) BeforeQuery(context.Context, string, []any) {}

func (h *logHook) AfterQuery(ctx context.Context, query string, args []any, d time.Duration, err error) {
	attrs := []any{
		slog.String("query", compactQuery(query)),
		slog.Duration("duration", d),
	}
	if h.cfg.LogArgs && len(args) > 0 {
		attrs = append(attrs, slog.Any("args", args))
	}

	switch {
	case err != nil && !IsNotFound(err):
		h.logger.ErrorContext(ctx, "jobboard/db: query error", append(attrs, slog.Any("error", err))...)
	case h.cfg.SlowQueryThreshold > 0 && d > h.cfg.SlowQueryThreshold:
		h.logger.WarnContext(ctx, "jobboard/db: slow query", attrs...)
	default:
		h.logger.DebugContext(ctx, "jobboard/db: query", attrs...)
	}
}

// compactQuery collapses whitespace and truncates long statements.
func compactQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 500 {
		return q[:500] + "…"
	}
	return q
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics hook
// ─────────────────────────────────────────────────────────────────────────────

// MetricsCollector receives one record per statement.
type MetricsCollector interface {
	RecordQuery(query string, duration time.Duration, success bool)
}

// NewMetricsHook returns a Hook that feeds c.
func NewMetricsHook(c MetricsCollector) Hook {
	return &metricsHook{c: c}
}

type metricsHook struct{ c MetricsCollector }

func (h *metricsHook) BeforeQuery(context.Context, string, []any) {}

func (h *metricsHook) AfterQuery(_ context.Context, query string, _ []any, d time.Duration, err error) {
	// A lookup that matched nothing is an answer, not a failure.
	h.c.RecordQuery(query, d, err == nil || IsNotFound(err))
}

// QueryStats is an in-process MetricsCollector keeping counters per
// statement verb.
type QueryStats struct {
	total   atomic.Int64
	failed  atomic.Int64
	nanos   atomic.Int64
	mu      sync.Mutex
	perVerb map[string]int64
}

// NewQueryStats returns an empty collector.
func NewQueryStats() *QueryStats {
	return &QueryStats{perVerb: make(map[string]int64)}
}

// RecordQuery implements MetricsCollector.
func (s *QueryStats) RecordQuery(query string, d time.Duration, success bool) {
	s.total.Add(1)
	s.nanos.Add(int64(d))
	if !success {
		s.failed.Add(1)
	}
	verb := "OTHER"
	if f := strings.Fields(query); len(f) > 0 {
		verb = strings.ToUpper(f[0])
	}
	s.mu.Lock()
	s.perVerb[verb]++
	s.mu.Unlock()
}

// QueryStatsSnapshot is a point-in-time copy of QueryStats.
type QueryStatsSnapshot struct {
	Total       int64            `json:"total"`
	Failed      int64            `json:"failed"`
	AvgDuration time.Duration    `json:"avgDurationNs"`
	PerVerb     map[string]int64 `json:"perVerb"`
}

// Snapshot copies the current counters.
func (s *QueryStats) Snapshot() QueryStatsSnapshot {
	snap := QueryStatsSnapshot{
		Total:  s.total.Load(),
		Failed: s.failed.Load(),
	}
	if snap.Total > 0 {
		snap.AvgDuration = time.Duration(s.nanos.Load() / snap.Total)
	}
	s.mu.Lock()
	snap.PerVerb = make(map[string]int64, len(s.perVerb))
	for k, v := range s.perVerb {
		snap.PerVerb[k] = v
	}
	s.mu.Unlock()
	return snap
}
