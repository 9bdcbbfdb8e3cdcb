// Package store persists remodel records as JSON documents in a SQL database.
// Postgres is used in production and SQLite for local runs and tests.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS remodels (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	payload      TEXT NOT NULL
)`

// Store implements domain.RemodelStore.
type Store struct {
	db *sqlx.DB
}

// Open connects with the given driver ("postgres" or "sqlite") and DSN.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// Each sqlite connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Migrate creates the remodels table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate remodels table: %w", err)
	}
	return nil
}

// Save assigns a new ID to rec and inserts it.
func (s *Store) Save(ctx context.Context, rec domain.RemodelRecord) (string, error) {
	rec.ID = uuid.NewString()

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal remodel: %w", err)
	}

	query := s.db.Rebind(`INSERT INTO remodels (id, display_name, created_at, payload) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Address.DisplayName,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(payload),
	); err != nil {
		return "", fmt.Errorf("insert remodel: %w", err)
	}
	return rec.ID, nil
}

// Get loads a record by ID. Unknown IDs return domain.ErrRemodelNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.RemodelRecord, error) {
	if id == "" {
		return domain.RemodelRecord{}, domain.ErrRemodelNotFound
	}

	var payload string
	err := s.db.GetContext(ctx, &payload, s.db.Rebind(`SELECT payload FROM remodels WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RemodelRecord{}, domain.ErrRemodelNotFound
	}
	if err != nil {
		return domain.RemodelRecord{}, fmt.Errorf("select remodel: %w", err)
	}

	var rec domain.RemodelRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.RemodelRecord{}, fmt.Errorf("unmarshal remodel %s: %w", id, err)
	}
	return rec, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
