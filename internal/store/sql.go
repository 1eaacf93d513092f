package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"wordpoll/internal/domain"
)

// SQLStore persists poll state in SQLite or PostgreSQL.
// Queries use $N placeholders, which both drivers accept.
type SQLStore struct {
	db     *sql.DB
	pollID string
}

// OpenSQL connects to the database and creates the schema
func OpenSQL(ctx context.Context, driver, dsn, pollID string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("database URL required for sql store")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// One connection keeps :memory: databases shared and avoids
		// SQLITE_BUSY on concurrent writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s, err := NewSQLStore(ctx, db, pollID)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and creates the schema
func NewSQLStore(ctx context.Context, db *sql.DB, pollID string) (*SQLStore, error) {
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, pollID: pollID}, nil
}

// CreateSchema creates all tables needed by the store.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS poll_config (
    poll_id TEXT PRIMARY KEY,
    current_question INTEGER NOT NULL,
    enabled TEXT NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS poll_word (
    poll_id TEXT NOT NULL,
    question INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    word TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (poll_id, question, seq)
);
`

// Load implements Store
func (s *SQLStore) Load(ctx context.Context, n int) (Snapshot, error) {
	snap := NewSnapshot(n)

	var (
		current   int
		enabled   string
		completed int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT current_question, enabled, completed FROM poll_config WHERE poll_id = $1
	`, s.pollID).Scan(&current, &enabled, &completed)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Nothing stored yet
	case err != nil:
		return Snapshot{}, fmt.Errorf("failed to load poll config: %w", err)
	default:
		cfg := domain.PollConfig{CurrentQuestion: current, Completed: completed != 0}
		if err := json.Unmarshal([]byte(enabled), &cfg.Enabled); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode enabled flags: %w", err)
		}
		snap.Config = cfg
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT question, word FROM poll_word WHERE poll_id = $1 ORDER BY question, seq
	`, s.pollID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load words: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			question int
			word     string
		)
		if err := rows.Scan(&question, &word); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan word: %w", err)
		}
		if question >= 0 && question < n {
			snap.Words[question] = append(snap.Words[question], word)
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to read words: %w", err)
	}

	return sanitize(snap, n), nil
}

// SaveConfig implements Store
func (s *SQLStore) SaveConfig(ctx context.Context, cfg domain.PollConfig) error {
	return saveConfig(ctx, s.db, s.pollID, cfg)
}

// AppendWords implements Store
func (s *SQLStore) AppendWords(ctx context.Context, question, offset int, words []string) error {
	if len(words) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO poll_word (poll_id, question, seq, word, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, word := range words {
		if _, err := stmt.ExecContext(ctx, s.pollID, question, offset+i, word, now); err != nil {
			return fmt.Errorf("failed to insert word: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit words: %w", err)
	}
	return nil
}

// Reset implements Store
func (s *SQLStore) Reset(ctx context.Context, n int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_word WHERE poll_id = $1`, s.pollID); err != nil {
		return fmt.Errorf("failed to delete words: %w", err)
	}
	if err := saveConfig(ctx, tx, s.pollID, domain.NewPollConfig(n)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// Close implements Store
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveConfig(ctx context.Context, db execer, pollID string, cfg domain.PollConfig) error {
	enabled, err := json.Marshal(cfg.Enabled)
	if err != nil {
		return fmt.Errorf("failed to encode enabled flags: %w", err)
	}

	completed := 0
	if cfg.Completed {
		completed = 1
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO poll_config (poll_id, current_question, enabled, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (poll_id) DO UPDATE SET
			current_question = excluded.current_question,
			enabled = excluded.enabled,
			completed = excluded.completed,
			updated_at = excluded.updated_at
	`, pollID, cfg.CurrentQuestion, string(enabled), completed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save poll config: %w", err)
	}
	return nil
}
