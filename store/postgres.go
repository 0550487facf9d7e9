package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// PostgresStore appends login records to a PostgreSQL table. Atomicity of
// each append is inherited from the database, so no external locking is
// needed.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds the connection settings for the Postgres backend.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

const createLoginEventsTable = `
	CREATE TABLE IF NOT EXISTS login_events (
		id        BIGSERIAL PRIMARY KEY,
		record    JSONB NOT NULL,
		ip        TEXT NOT NULL,
		logged_at TIMESTAMPTZ NOT NULL
	)
`

const insertLoginEvent = `
	INSERT INTO login_events (record, ip, logged_at)
	VALUES ($1, $2, $3)
`

// NewPostgresStore opens a connection pool, verifies connectivity, and
// ensures the login_events table exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, createLoginEventsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize login_events schema: %w", err)
	}

	logger.Info("postgres store ready")
	return &PostgresStore{db: db, logger: logger}, nil
}

// NewPostgresStoreFromDB wraps an existing connection pool. Used by tests
// to inject a mocked database.
func NewPostgresStoreFromDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Append inserts one record. The server-assigned ip and timestamp are
// lifted into their own columns alongside the full JSON document.
func (s *PostgresStore) Append(ctx context.Context, record map[string]any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return &PersistenceError{Err: fmt.Errorf("marshal record: %w", err)}
	}

	ip, _ := record["ip"].(string)
	loggedAt, _ := record["timestamp"].(string)

	if _, err := s.db.ExecContext(ctx, insertLoginEvent, payload, ip, loggedAt); err != nil {
		return &PersistenceError{Err: fmt.Errorf("insert login event: %w", err)}
	}
	return nil
}

// Ping reports database reachability for the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
