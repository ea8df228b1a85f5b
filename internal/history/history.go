// Package history persists one record per completed build in a SQLite
// database so past outcomes can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docsmith/internal/site"
)

// Record is one row of build history.
type Record struct {
	ID            string
	Project       string
	Outcome       string
	Started       time.Time
	Duration      time.Duration
	Modules       int
	Pages         int
	RenderedPages int
	BrokenLinks   int
	Errors        int
	Warnings      int
}

// FromReport converts a finished build report into a history record.
func FromReport(rep *site.BuildReport) Record {
	return Record{
		ID:            rep.BuildID,
		Project:       rep.Project,
		Outcome:       rep.Outcome,
		Started:       rep.Start,
		Duration:      rep.End.Sub(rep.Start),
		Modules:       rep.Modules,
		Pages:         rep.Pages,
		RenderedPages: rep.RenderedPages,
		BrokenLinks:   rep.BrokenLinks,
		Errors:        len(rep.Errors),
		Warnings:      len(rep.Warnings),
	}
}

// Store is a SQLite-backed build history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (or creates) the history database at dbPath.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		modules INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		rendered_pages INTEGER NOT NULL,
		broken_links INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts one build record.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds
		 (id, project, outcome, started, duration_ms, modules, pages, rendered_pages, broken_links, errors, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Project, rec.Outcome, rec.Started.Unix(), rec.Duration.Milliseconds(),
		rec.Modules, rec.Pages, rec.RenderedPages, rec.BrokenLinks, rec.Errors, rec.Warnings,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}

	return nil
}

// Recent returns up to limit records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, outcome, started, duration_ms, modules, pages, rendered_pages, broken_links, errors, warnings
		 FROM builds ORDER BY started DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query build records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Get retrieves a single record by build id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project, outcome, started, duration_ms, modules, pages, rendered_pages, broken_links, errors, warnings
		 FROM builds WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query build record: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("build %s not found", id)
	}
	return &recs[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var rec Record
		var startedUnix, durationMS int64

		err := rows.Scan(&rec.ID, &rec.Project, &rec.Outcome, &startedUnix, &durationMS,
			&rec.Modules, &rec.Pages, &rec.RenderedPages, &rec.BrokenLinks, &rec.Errors, &rec.Warnings)
		if err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}

		rec.Started = time.Unix(startedUnix, 0)
		rec.Duration = time.Duration(durationMS) * time.Millisecond

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return recs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
