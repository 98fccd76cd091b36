// Package storage persists local client state: a SQLite store for metadata
// and the mutation audit log, and JSON snapshots of merged result sets.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coinoswap_admin/internal/domain"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
)

// Store handles persistent storage in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS mutations (
			id TEXT PRIMARY KEY,
			op TEXT NOT NULL,
			target TEXT NOT NULL,
			payload TEXT,
			success INTEGER NOT NULL,
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_created ON mutations(created_at);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *Store) UpsertMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, time.Now().UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert metadata %q: %w", key, err)
	}
	return nil
}

// GetMetadata retrieves a value from the metadata table. A missing key yields "".
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func togglesKey(market domain.Market) string {
	return "toggles:" + string(market)
}

// SaveToggles persists the category filters of a market screen.
func (s *Store) SaveToggles(ctx context.Context, market domain.Market, t domain.Toggles) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal toggles: %w", err)
	}
	return s.UpsertMetadata(ctx, togglesKey(market), string(data))
}

// LoadToggles returns the persisted filters of market. ok is false when none were saved.
func (s *Store) LoadToggles(ctx context.Context, market domain.Market) (t domain.Toggles, ok bool, err error) {
	val, err := s.GetMetadata(ctx, togglesKey(market))
	if err != nil || val == "" {
		return domain.Toggles{}, false, err
	}
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return domain.Toggles{}, false, fmt.Errorf("failed to unmarshal toggles: %w", err)
	}
	return t, true, nil
}

// Record appends rec to the mutation audit log.
func (s *Store) Record(ctx context.Context, rec domain.MutationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var payload sql.NullString
	if len(rec.Payload) > 0 {
		payload = sql.NullString{String: string(rec.Payload), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO mutations (id, op, target, payload, success, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Op, rec.Target, payload, rec.Success, rec.Message, rec.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert mutation: %w", err)
	}
	return nil
}

// ListMutations returns the newest audit records first. limit <= 0 returns all.
func (s *Store) ListMutations(ctx context.Context, limit int) ([]domain.MutationRecord, error) {
	query := "SELECT id, op, target, payload, success, message, created_at FROM mutations ORDER BY created_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer rows.Close()

	var out []domain.MutationRecord
	for rows.Next() {
		var rec domain.MutationRecord
		var payload sql.NullString
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Op, &rec.Target, &payload, &rec.Success, &rec.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		if payload.Valid {
			rec.Payload = json.RawMessage(payload.String)
		}
		rec.CreatedAt = time.UnixMicro(createdAt)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
