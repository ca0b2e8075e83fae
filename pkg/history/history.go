// Package history keeps a bounded journal of refresh cycles in SQLite.
// The default DSN is in-memory, the journal lives as long as the process.
package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/umputun/rssfilter/pkg/domain"
)

//go:embed schema.sql
var schema string

// Config represents journal configuration
type Config struct {
	DSN  string
	Keep int // number of records to keep
}

// Store is the refresh journal
type Store struct {
	db   *sqlx.DB
	keep int
}

// refreshRow is the database representation of a refresh record
type refreshRow struct {
	Cycle       int64     `db:"cycle"`
	OK          bool      `db:"ok"`
	Message     string    `db:"message"`
	Items       int       `db:"items"`
	CompletedAt time.Time `db:"completed_at"`
	DurationMs  int64     `db:"duration_ms"`
}

// New opens the journal database and creates the schema
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = ":memory:"
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 100
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// a single connection keeps an in-memory database alive and shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, keep: cfg.Keep}, nil
}

// Record appends the snapshot's outcome to the journal and drops records beyond the keep limit
func (s *Store) Record(ctx context.Context, snap domain.Snapshot) error {
	row := refreshRow{
		Cycle:       snap.Cycle,
		OK:          snap.Outcome.OK,
		Message:     snap.Outcome.Message,
		Items:       len(snap.Items),
		CompletedAt: snap.Outcome.CompletedAt.UTC(),
		DurationMs:  snap.Outcome.Duration.Milliseconds(),
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return retryable(fmt.Errorf("begin transaction: %w", err))
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		query := `
			INSERT OR REPLACE INTO refreshes (cycle, ok, message, items, completed_at, duration_ms)
			VALUES (:cycle, :ok, :message, :items, :completed_at, :duration_ms)
		`
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return retryable(fmt.Errorf("insert refresh: %w", err))
		}

		prune := `DELETE FROM refreshes WHERE cycle NOT IN (SELECT cycle FROM refreshes ORDER BY cycle DESC LIMIT ?)`
		if _, err := tx.ExecContext(ctx, prune, s.keep); err != nil {
			return retryable(fmt.Errorf("prune refreshes: %w", err))
		}

		if err := tx.Commit(); err != nil {
			return retryable(fmt.Errorf("commit transaction: %w", err))
		}
		return nil
	}, errCritical)

	var critErr *criticalError
	if errors.As(err, &critErr) {
		return critErr.err
	}
	return err
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.RefreshRecord, error) {
	var rows []refreshRow
	query := `SELECT cycle, ok, message, items, completed_at, duration_ms FROM refreshes ORDER BY cycle DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent refreshes: %w", err)
	}

	res := make([]domain.RefreshRecord, 0, len(rows))
	for _, r := range rows {
		res = append(res, domain.RefreshRecord{
			Cycle:       r.Cycle,
			OK:          r.OK,
			Message:     r.Message,
			Items:       r.Items,
			CompletedAt: r.CompletedAt.UTC(),
			Duration:    time.Duration(r.DurationMs) * time.Millisecond,
		})
	}
	return res, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// errCritical stops the retrier, every criticalError matches it
var errCritical = errors.New("critical error")

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Is(target error) bool { return target == errCritical }

// retryable passes lock errors through for another attempt and marks the rest as critical
func retryable(err error) error {
	if isLockError(err) {
		return err
	}
	return &criticalError{err: err}
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
