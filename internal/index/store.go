// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index keeps a SQLite full-text index over the Markdown documents
// produced for each issue, so summaries and transcriptions can be searched
// across the whole archive.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/libertas-archive/internal/layout"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

const (
	indexDir          = "index"
	dbFile            = "archive.db"
	defaultMaxResults = 20
)

// Store manages the index database.
type Store struct {
	db         *sql.DB
	layout     layout.Layout
	maxResults int
}

// DefaultPath returns the database location under the data directory.
func DefaultPath(l layout.Layout) string {
	return filepath.Join(l.DataDir(), indexDir, dbFile)
}

// Open opens or creates the index database and its schema. An empty
// cfg.Path uses DefaultPath.
func Open(cfg types.IndexConfig, l layout.Layout) (*Store, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		dbPath = DefaultPath(l)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, layout: l, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			issue TEXT NOT NULL,
			kind TEXT NOT NULL,
			model TEXT,
			body TEXT NOT NULL,
			file_mod_time TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_issue ON documents(issue)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts4(body)`,
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(docid, body) VALUES (new.rowid, new.body);
		END`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			DELETE FROM documents_fts WHERE docid = old.rowid;
		END`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
			DELETE FROM documents_fts WHERE docid = old.rowid;
			INSERT INTO documents_fts(docid, body) VALUES (new.rowid, new.body);
		END`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest indexes the Markdown artifacts present for each issue. Documents
// whose modification time matches the stored one are skipped; changed
// documents replace their previous content.
func (s *Store) Ingest(ctx context.Context, issues []types.Issue, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, issue := range issues {
		for _, a := range layout.Artifacts {
			if a.Kind == types.ArtifactPDF {
				continue
			}
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			path := s.layout.Path(issue, a.Kind, a.Model)
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(s.layout.DataDir(), path)
			if err != nil {
				rel = path
			}
			modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

			var stored string
			err = s.db.QueryRowContext(ctx,
				`SELECT file_mod_time FROM documents WHERE path = ?`, rel,
			).Scan(&stored)
			if err == nil && stored == modTime {
				fmt.Fprintf(w, "skipped %s\n", rel)
				summary.Skipped++
				continue
			}
			isUpdate := err == nil

			body, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
				summary.Failed++
				continue
			}

			_, err = s.db.ExecContext(ctx,
				`INSERT INTO documents (path, issue, kind, model, body, file_mod_time)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT(path) DO UPDATE SET
					body=excluded.body, file_mod_time=excluded.file_mod_time`,
				rel, issue.ID, string(a.Kind), string(a.Model), string(body), modTime,
			)
			if err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
				summary.Failed++
				continue
			}

			if isUpdate {
				fmt.Fprintf(w, "updated %s\n", rel)
				summary.Updated++
			} else {
				fmt.Fprintf(w, "indexed %s\n", rel)
				summary.Indexed++
			}
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}
