// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("empty search query")

// Hit is one matching document.
type Hit struct {
	Issue   string             `json:"issue" yaml:"issue"`
	Kind    types.ArtifactKind `json:"kind" yaml:"kind"`
	Model   types.Model        `json:"model,omitempty" yaml:"model,omitempty"`
	Path    string             `json:"path" yaml:"path"`
	Snippet string             `json:"snippet" yaml:"snippet"`
}

// Search runs an FTS4 MATCH query and returns hits ordered by issue and
// path. Matched terms are bracketed in the snippet. A non-positive limit
// uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.issue, d.kind, d.model, d.path,
			snippet(documents_fts, '[', ']', '...', -1, 16)
		FROM documents_fts
		JOIN documents d ON d.rowid = documents_fts.docid
		WHERE documents_fts MATCH ?
		ORDER BY d.issue, d.path
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h     Hit
			kind  string
			model sql.NullString
		)
		if err := rows.Scan(&h.Issue, &kind, &model, &h.Path, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		h.Kind = types.ArtifactKind(kind)
		h.Model = types.Model(model.String)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Document describes one indexed file.
type Document struct {
	Issue     string             `yaml:"issue"`
	Kind      types.ArtifactKind `yaml:"kind"`
	Model     types.Model        `yaml:"model,omitempty"`
	Path      string             `yaml:"path"`
	IndexedAt string             `yaml:"file_mod_time"`
}

// Documents lists every indexed file ordered by path.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT issue, kind, model, path, file_mod_time FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			d     Document
			kind  string
			model sql.NullString
		)
		if err := rows.Scan(&d.Issue, &kind, &model, &d.Path, &d.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.Kind = types.ArtifactKind(kind)
		d.Model = types.Model(model.String)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ExportYAML writes the document listing to w.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	docs, err := s.Documents(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}
