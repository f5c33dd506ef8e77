// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/routelab/hoptrace/internal/model"
	"github.com/routelab/hoptrace/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SaveTrace(ctx context.Context, rec *model.TraceRecord) error {
	return querySaveTrace(ctx, s.db, rec)
}

func (s *PostgresStore) GetTrace(ctx context.Context, id string) (*model.TraceRecord, error) {
	return queryGetTrace(ctx, s.db, id)
}

func (s *PostgresStore) ListTraces(ctx context.Context, filter model.TraceFilter) ([]*model.TraceRecord, int, error) {
	return queryListTraces(ctx, s.db, filter)
}

func (s *PostgresStore) DeleteTracesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return queryDeleteTracesBefore(ctx, s.db, cutoff)
}

func (s *PostgresStore) CountTraces(ctx context.Context) (int, error) {
	return queryCountTraces(ctx, s.db)
}

func (s *PostgresStore) BumpModuleCounter(ctx context.Context, module string, chains, traces int64) error {
	return queryBumpModuleCounter(ctx, s.db, module, chains, traces)
}

func (s *PostgresStore) GetModuleCounter(ctx context.Context, module string) (*model.ModuleCounter, error) {
	return queryGetModuleCounter(ctx, s.db, module)
}

func (s *PostgresStore) ListModuleCounters(ctx context.Context) ([]model.ModuleCounter, error) {
	return queryListModuleCounters(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) SaveTrace(ctx context.Context, rec *model.TraceRecord) error {
	return querySaveTrace(ctx, s.tx, rec)
}

func (s *txStore) GetTrace(ctx context.Context, id string) (*model.TraceRecord, error) {
	return queryGetTrace(ctx, s.tx, id)
}

func (s *txStore) ListTraces(ctx context.Context, filter model.TraceFilter) ([]*model.TraceRecord, int, error) {
	return queryListTraces(ctx, s.tx, filter)
}

func (s *txStore) DeleteTracesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return queryDeleteTracesBefore(ctx, s.tx, cutoff)
}

func (s *txStore) CountTraces(ctx context.Context) (int, error) {
	return queryCountTraces(ctx, s.tx)
}

func (s *txStore) BumpModuleCounter(ctx context.Context, module string, chains, traces int64) error {
	return queryBumpModuleCounter(ctx, s.tx, module, chains, traces)
}

func (s *txStore) GetModuleCounter(ctx context.Context, module string) (*model.ModuleCounter, error) {
	return queryGetModuleCounter(ctx, s.tx, module)
}

func (s *txStore) ListModuleCounters(ctx context.Context) ([]model.ModuleCounter, error) {
	return queryListModuleCounters(ctx, s.tx)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
