package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"token-launchpad/internal/observability"
)

// Pool wraps pgxpool.Pool. With metrics attached, every statement is timed
// and failures are counted per operation.
type Pool struct {
	inner   *pgxpool.Pool
	metrics *observability.Metrics
}

// NewPool creates an uninstrumented Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	return NewPoolWithMetrics(ctx, dsn, nil)
}

// NewPoolWithMetrics creates a Postgres connection pool that records query
// durations and errors. Nil metrics disable recording.
func NewPoolWithMetrics(ctx context.Context, dsn string, metrics *observability.Metrics) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{inner: pool, metrics: metrics}, nil
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := p.inner.Exec(ctx, sql, args...)
	p.observe("exec", start, err)
	return tag, err
}

// Query runs a statement returning multiple rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	start := time.Now()
	rows, err := p.inner.Query(ctx, sql, args...)
	p.observe("query", start, err)
	return rows, err
}

// QueryRow runs a statement returning at most one row. Errors surface on
// Scan, so only duration is recorded here.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	start := time.Now()
	row := p.inner.QueryRow(ctx, sql, args...)
	p.observe("query_row", start, nil)
	return row
}

// Begin starts a transaction.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	start := time.Now()
	tx, err := p.inner.Begin(ctx)
	p.observe("begin", start, err)
	return tx, err
}

// Ping verifies the pool can reach the database.
func (p *Pool) Ping(ctx context.Context) error {
	return p.inner.Ping(ctx)
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.inner.Close()
}

func (p *Pool) observe(operation string, start time.Time, err error) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}

	return false
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
