// package repositories provides the local persistence layer for cached
// backend data.
//
// The cache makes `scribe audio list --cached` usable offline and keeps the
// TUI responsive between syncs. The backend remains the source of truth;
// rows here are replaceable at any time.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/scribeworks/scribe/internal/services"
)

// TranscriptRepository caches transcript metadata in the local database.
type TranscriptRepository struct {
	db *sql.DB
}

// NewTranscriptRepository creates a repository with the given database connection.
func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Save inserts or updates one transcript's metadata.
func (r *TranscriptRepository) Save(t services.Transcript) error {
	sequence, err := r.nextSequence()
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO transcripts (id, sequence, title, status, language, duration_seconds, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			language = excluded.language,
			duration_seconds = excluded.duration_seconds,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.Exec(query, t.ID, sequence, t.Title, t.Status, t.Language, t.DurationSecs, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to cache transcript: %w", err)
	}

	return nil
}

// SaveAll caches a full listing, marking rows absent from the listing as
// deleted so a later list reflects backend deletions.
func (r *TranscriptRepository) SaveAll(transcripts []services.Transcript) error {
	now := time.Now()
	if _, err := r.db.Exec("UPDATE transcripts SET deleted_at = ? WHERE deleted_at IS NULL", now); err != nil {
		return fmt.Errorf("failed to mark stale transcripts: %w", err)
	}

	for _, t := range transcripts {
		if err := r.Save(t); err != nil {
			return err
		}
	}

	return nil
}

// Get retrieves a cached transcript by ID, excluding deleted rows.
func (r *TranscriptRepository) Get(id string) (*services.Transcript, error) {
	query := `
		SELECT id, title, status, language, duration_seconds, created_at, updated_at
		FROM transcripts
		WHERE id = ? AND deleted_at IS NULL
	`

	var (
		t        services.Transcript
		language sql.NullString
	)

	err := r.db.QueryRow(query, id).Scan(&t.ID, &t.Title, &t.Status, &language, &t.DurationSecs, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transcript not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}

	if language.Valid {
		t.Language = language.String
	}

	return &t, nil
}

// List retrieves all cached transcripts in insertion order.
func (r *TranscriptRepository) List() ([]services.Transcript, error) {
	query := `
		SELECT id, title, status, language, duration_seconds, created_at, updated_at
		FROM transcripts
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []services.Transcript
	for rows.Next() {
		var (
			t        services.Transcript
			language sql.NullString
		)

		err := rows.Scan(&t.ID, &t.Title, &t.Status, &language, &t.DurationSecs, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		if language.Valid {
			t.Language = language.String
		}

		transcripts = append(transcripts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return transcripts, nil
}

// Delete soft-deletes a cached transcript by ID.
func (r *TranscriptRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE transcripts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transcript not found or already deleted: %s", id)
	}

	return nil
}

// nextSequence atomically increments and returns the next sequence number.
// Sequence numbers keep cached rows in stable insertion order.
func (r *TranscriptRepository) nextSequence() (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE transcripts_sequence SET value = value + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow("SELECT value FROM transcripts_sequence WHERE id = 1").Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
