package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
	"scribe/internal/transcription"
)

// Store manages transcription-result persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the results database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Result is one persisted transcription outcome.
type Result struct {
	EventID      string
	Status       transcription.Status
	Transcript   string
	ErrorMessage string
	Progress     *int
	UpdatedAt    time.Time
}

// RecordTranscriptionResult upserts the latest outcome for an event. Each
// write replaces the full field subset, so a completion clears any progress
// left over from the transcribing phase.
func (s *Store) RecordTranscriptionResult(ctx context.Context, eventID string, status transcription.Status, fields transcription.ResultFields) error {
	if eventID == "" {
		return errors.New("event id required")
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO transcription_results (event_id, status, transcript, error, progress, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(event_id) DO UPDATE SET
            status = excluded.status,
            transcript = excluded.transcript,
            error = excluded.error,
            progress = excluded.progress,
            updated_at = excluded.updated_at`,
		eventID,
		string(status),
		nullableString(fields.Transcript),
		nullableString(fields.ErrorMessage),
		nullableInt(fields.Progress),
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("record transcription result: %w", err)
	}
	return nil
}

// TranscriptionForEvent fetches the persisted outcome for an event, or nil
// when none has been recorded.
func (s *Store) TranscriptionForEvent(ctx context.Context, eventID string) (*Result, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT event_id, status, transcript, error, progress, updated_at
         FROM transcription_results WHERE event_id = ?`,
		eventID,
	)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcription result: %w", err)
	}
	return result, nil
}

// ListResults returns recorded outcomes newest first, capped at limit when
// limit is positive.
func (s *Store) ListResults(ctx context.Context, limit int) ([]Result, error) {
	query := `SELECT event_id, status, transcript, error, progress, updated_at
         FROM transcription_results ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transcription results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transcription result: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcription results: %w", err)
	}
	return results, nil
}

// Health verifies the database is reachable and structurally sound.
func (s *Store) Health(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not open")
	}
	var verdict string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&verdict); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if verdict != "ok" {
		return fmt.Errorf("integrity check failed: %s", verdict)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*Result, error) {
	var (
		result     Result
		status     string
		transcript sql.NullString
		errMessage sql.NullString
		progress   sql.NullInt64
		updatedAt  string
	)
	if err := row.Scan(&result.EventID, &status, &transcript, &errMessage, &progress, &updatedAt); err != nil {
		return nil, err
	}

	result.Status = transcription.Status(status)
	if transcript.Valid {
		result.Transcript = transcript.String
	}
	if errMessage.Valid {
		result.ErrorMessage = errMessage.String
	}
	if progress.Valid {
		v := int(progress.Int64)
		result.Progress = &v
	}
	if parsed, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		result.UpdatedAt = parsed
	}
	return &result, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}
