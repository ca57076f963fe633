package tokens

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

const (
	accessKey  = "access_token"
	refreshKey = "refresh_token"
)

// SQLiteStore persists the token pair in the local credentials table, so a
// session survives across CLI invocations.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore creates a token store backed by the given database connection.
// The credentials table must already exist (see shared.RunMigrations).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Pair() (TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := TokenPair{
		Access:  s.read(accessKey),
		Refresh: s.read(refreshKey),
	}
	return pair, pair.Access != ""
}

func (s *SQLiteStore) Save(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(accessKey, pair.Access); err != nil {
		return err
	}
	return s.write(refreshKey, pair.Refresh)
}

func (s *SQLiteStore) Update(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(accessKey, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return s.write(refreshKey, refresh)
}

func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM credentials WHERE key IN (?, ?)", accessKey, refreshKey); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *SQLiteStore) read(key string) string {
	var value string
	err := s.db.QueryRow("SELECT value FROM credentials WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

func (s *SQLiteStore) write(key, value string) error {
	query := `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to store credential %s: %w", key, err)
	}
	return nil
}
