package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"congregation/internal/adapters/metrics"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs applies when NewTimedDB is given no threshold.
const DefaultSlowQueryMs = 50

// Observer receives the statement kind and duration of every database call.
type Observer func(op string, d time.Duration)

// TimedDB wraps a *sql.DB to log slow statements and report call latencies.
type TimedDB struct {
	db      *sql.DB
	observe Observer
	slow    time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db. A nil observe reports to the Prometheus query histogram.
// PRE: db is open
// POST: every call is reported to observe; calls at or over slowMs log at WARN
func NewTimedDB(db *sql.DB, slowMs int, observe Observer) *TimedDB {
	if slowMs <= 0 {
		slowMs = DefaultSlowQueryMs
	}
	if observe == nil {
		observe = metrics.ObserveQuery
	}
	return &TimedDB{db: db, observe: observe, slow: time.Duration(slowMs) * time.Millisecond}
}

// statementKind labels a query by its leading keyword: select, insert, update, delete...
func statementKind(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "other"
	}
	return strings.ToLower(fields[0])
}

func (t *TimedDB) done(op string, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000.0
	if elapsed >= t.slow {
		slog.Warn("slow_query", "op", op, "query", query, "duration_ms", ms, "error", err)
	} else {
		slog.Debug("query", "op", op, "duration_ms", ms)
	}
	t.observe(op, elapsed)
}

// ExecContext runs a statement and reports its timing.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.done(statementKind(query), query, start, err)
	return result, err
}

// QueryContext runs a query and reports the time to the first row set.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.done(statementKind(query), query, start, err)
	return rows, err
}

// QueryRowContext runs a single-row query and reports its timing.
// Errors surface on Scan, so none is logged here.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.done(statementKind(query), query, start, nil)
	return row
}

// BeginTx starts a transaction. Statements inside it are not timed.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.done("begin", "", start, err)
	return tx, err
}
