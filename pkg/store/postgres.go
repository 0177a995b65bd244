package store

import (
	"context"
	stdsql "database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/loopgate/loopgate/pkg/pipeline"
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresConfig holds the connection parameters for the persisted store.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// dsn builds a libpq-style connection string from cfg.
func (c PostgresConfig) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// PostgresStore is the optional durable Store, backed by a single
// loop_results table. Safe for concurrent use: all state lives in
// PostgreSQL, and *sql.DB itself is already safe for concurrent use.
type PostgresStore struct {
	db *stdsql.DB
}

// NewPostgresStore opens a connection, applies pending migrations, and
// returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := stdsql.Open("pgx", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if err := runMigrations(db, cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an already-open, already-migrated *sql.DB —
// used by tests that manage their own connection/container lifecycle.
func NewPostgresStoreFromDB(db *stdsql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *stdsql.DB, databaseName string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, databaseName, driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Put(ctx context.Context, result *pipeline.LoopResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("store: marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO loop_results (execution_id, success, result, stored_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (execution_id) DO UPDATE
		SET success = EXCLUDED.success, result = EXCLUDED.result, stored_at = EXCLUDED.stored_at
	`, result.ExecutionID, result.Success, body, time.Now())
	if err != nil {
		return fmt.Errorf("store: put %s: %w", result.ExecutionID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, executionID string) (*pipeline.LoopResult, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM loop_results WHERE execution_id = $1`, executionID,
	).Scan(&body)
	if err != nil {
		if err == stdsql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: get %s: %w", executionID, err)
	}

	var result pipeline.LoopResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("store: unmarshal %s: %w", executionID, err)
	}
	return &result, true, nil
}

func (s *PostgresStore) Delete(ctx context.Context, executionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM loop_results WHERE execution_id = $1`, executionID)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", executionID, err)
	}
	return nil
}

func (s *PostgresStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.ExecContext(ctx, `DELETE FROM loop_results WHERE stored_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: purge: %w", err)
	}
	affected, err := tag.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: purge rows affected: %w", err)
	}
	return int(affected), nil
}
