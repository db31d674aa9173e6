// Package history persists the audit trail of step records in a local
// SQLite database, so a session's outcome survives the process that
// produced it. Credentials never enter this store.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/dockhand/internal/core/pipeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Row is one persisted step record.
type Row struct {
	ID         int64     `db:"id"`
	SessionID  string    `db:"session_id"`
	Seq        int       `db:"seq"`
	Stage      string    `db:"stage"`
	Status     string    `db:"status"`
	Detail     string    `db:"detail"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// Store is the SQLite-backed step record store. It implements
// pipeline.Sink.
type Store struct {
	db *sqlx.DB
}

var _ pipeline.Sink = (*Store)(nil)

// Open opens (creating if needed) the history database and runs
// migrations.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one finalized step record.
func (s *Store) Record(rec pipeline.StepRecord) error {
	_, err := s.db.NamedExecContext(context.Background(), `
		INSERT INTO step_records (session_id, seq, stage, status, detail, started_at, finished_at)
		VALUES (:session_id, :seq, :stage, :status, :detail, :started_at, :finished_at)`,
		Row{
			SessionID:  rec.SessionID,
			Seq:        rec.Seq,
			Stage:      rec.Stage,
			Status:     string(rec.Status),
			Detail:     rec.Detail,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
		})
	return err
}

// Session returns all step records of one session in execution order.
func (s *Store) Session(ctx context.Context, sessionID string) ([]Row, error) {
	var rows []Row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM step_records WHERE session_id = ? ORDER BY seq`, sessionID)
	return rows, err
}

// Recent returns the most recently finished step records across all
// sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []Row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM step_records ORDER BY finished_at DESC, seq DESC LIMIT ?`, limit)
	return rows, err
}
