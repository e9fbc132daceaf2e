// Package store persists analyses and the tracker credential record in a
// local sqlite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"minutesync/pkg/models"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	// ErrNotFound is returned when no analysis exists for the given id.
	ErrNotFound = errors.New("analysis not found")

	// ErrNotConfigured is returned when no tracker credentials have been saved.
	ErrNotConfigured = errors.New("jira not configured")
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveJiraConfig replaces the credential record: the previous row is
// deleted and the new one inserted in one transaction, so the latest write
// wins and at most one record exists.
func (s *Store) SaveJiraConfig(ctx context.Context, cfg *models.JiraConfig) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jira_config`); err != nil {
		return fmt.Errorf("clear jira config: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO jira_config (id, domain, email, api_token, created_at) VALUES (?, ?, ?, ?, ?)`,
		cfg.ID, cfg.Domain, cfg.Email, cfg.APIToken, cfg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert jira config: %w", err)
	}

	return tx.Commit()
}

// GetJiraConfig returns the saved credential record, or ErrNotConfigured.
func (s *Store) GetJiraConfig(ctx context.Context) (*models.JiraConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, email, api_token, created_at FROM jira_config LIMIT 1`)

	var cfg models.JiraConfig
	var createdAt string
	if err := row.Scan(&cfg.ID, &cfg.Domain, &cfg.Email, &cfg.APIToken, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("read jira config: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	cfg.CreatedAt = t

	return &cfg, nil
}

// SaveAnalysis inserts a new analysis with its full proposal snapshot.
func (s *Store) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	proposals, err := json.Marshal(a.ProposedChanges)
	if err != nil {
		return fmt.Errorf("marshal proposals: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, project_key, client_name, project_name, meeting_notes, proposed_changes, status, created_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectKey, a.ClientName, a.ProjectName, a.MeetingNotes,
		string(proposals), a.Status,
		a.CreatedAt.UTC().Format(time.RFC3339Nano), nullableTime(a.ProcessedAt),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns one analysis by id, or ErrNotFound.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_key, client_name, project_name, meeting_notes, proposed_changes, status, created_at, processed_at
		 FROM analyses WHERE id = ?`, id)

	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return a, nil
}

// ListAnalyses returns up to limit analyses, most recent first.
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_key, client_name, project_name, meeting_notes, proposed_changes, status, created_at, processed_at
		 FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// UpdateAnalysis applies mutate to the stored record inside a write
// transaction: read, mutate, write back. Concurrent updates to the same
// record serialize on the transaction, so none are lost.
func (s *Store) UpdateAnalysis(ctx context.Context, id string, mutate func(*models.Analysis) error) (*models.Analysis, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, project_key, client_name, project_name, meeting_notes, proposed_changes, status, created_at, processed_at
		 FROM analyses WHERE id = ?`, id)

	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	if err := mutate(a); err != nil {
		return nil, err
	}

	proposals, err := json.Marshal(a.ProposedChanges)
	if err != nil {
		return nil, fmt.Errorf("marshal proposals: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE analyses SET proposed_changes = ?, status = ?, processed_at = ? WHERE id = ?`,
		string(proposals), a.Status, nullableTime(a.ProcessedAt), id)
	if err != nil {
		return nil, fmt.Errorf("update analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*models.Analysis, error) {
	var a models.Analysis
	var proposals, createdAt string
	var processedAt sql.NullString

	err := row.Scan(&a.ID, &a.ProjectKey, &a.ClientName, &a.ProjectName,
		&a.MeetingNotes, &proposals, &a.Status, &createdAt, &processedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(proposals), &a.ProposedChanges); err != nil {
		return nil, fmt.Errorf("unmarshal proposals: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	a.CreatedAt = t

	if processedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse processed_at: %w", err)
		}
		a.ProcessedAt = &t
	}

	return &a, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
