// Package sqlite persists the client session in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_state (
	instance   TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (instance, key)
)`

// SessionStore keeps the token and user of one client instance in the
// client_state table.
type SessionStore struct {
	db       *sql.DB
	instance string
}

var _ ports.SessionStore = (*SessionStore)(nil)

// Open creates (if needed) and opens the state database at path.
func Open(path, instance string) (*SessionStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is required")
	}
	if instance == "" {
		return nil, fmt.Errorf("client instance is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SessionStore{db: db, instance: instance}, nil
}

// Close closes the SQLite handle.
func (s *SessionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SessionStore) LoadToken(ctx context.Context) (string, error) {
	return s.get(ctx, keyToken)
}

func (s *SessionStore) LoadUser(ctx context.Context) (*domain.User, error) {
	raw, err := s.get(ctx, keyUser)
	if err != nil || raw == "" {
		return nil, err
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &user, nil
}

// Save writes token and user in a single transaction.
func (s *SessionStore) Save(ctx context.Context, token string, user domain.User) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
INSERT INTO client_state (instance, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (instance, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	now := time.Now().UTC().Unix()
	if _, err := tx.ExecContext(ctx, upsert, s.instance, keyToken, token, now); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, s.instance, keyUser, string(rawUser), now); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Clear removes both entries of this instance.
func (s *SessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_state WHERE instance = ? AND key IN (?, ?)`,
		s.instance, keyToken, keyUser)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE instance = ? AND key = ?`,
		s.instance, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}
