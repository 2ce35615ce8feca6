// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the list of magazine issues to process. The default
// catalog is embedded in the binary; a replacement can be loaded from a YAML
// file with the same shape.
package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is a read-only, ordered sequence of issues.
type Catalog struct {
	issues []types.Issue
}

type catalogFile struct {
	Issues []types.Issue `yaml:"issues"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Every entry needs an issue id and an http(s)
// URL. Duplicate ids are accepted; see Duplicates.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, is := range f.Issues {
		if strings.TrimSpace(is.ID) == "" {
			return nil, fmt.Errorf("entry %d: missing issue id", i)
		}
		if !validID(is.ID) {
			return nil, fmt.Errorf("entry %d: issue id %q is not a single path segment", i, is.ID)
		}
		u, err := url.Parse(is.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("issue %s: invalid uri %q", is.ID, is.SourceURL)
		}
	}
	return &Catalog{issues: f.Issues}, nil
}

// validID reports whether id can name an issue directory under the issues
// root without escaping it.
func validID(id string) bool {
	if id == "." || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return id == filepath.Base(id)
}

// New builds a catalog from issues. The slice is copied.
func New(issues []types.Issue) *Catalog {
	return &Catalog{issues: append([]types.Issue(nil), issues...)}
}

// Len returns the number of issues.
func (c *Catalog) Len() int { return len(c.issues) }

// Issues returns a copy of the issues in catalog order.
func (c *Catalog) Issues() []types.Issue {
	return append([]types.Issue(nil), c.issues...)
}

// Lookup returns the first issue with the given id.
func (c *Catalog) Lookup(id string) (types.Issue, bool) {
	for _, is := range c.issues {
		if is.ID == id {
			return is, true
		}
	}
	return types.Issue{}, false
}

// Duplicates returns the issue ids that appear more than once, sorted.
func (c *Catalog) Duplicates() []string {
	counts := make(map[string]int, len(c.issues))
	for _, is := range c.issues {
		counts[is.ID]++
	}
	var dups []string
	for id, n := range counts {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

// Select sorts issues by id in byte order and keeps the first take entries.
// take <= 0 keeps all of them. The input slice is not modified.
func Select(issues []types.Issue, take int) []types.Issue {
	sorted := append([]types.Issue(nil), issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	if take > 0 && take < len(sorted) {
		sorted = sorted[:take]
	}
	return sorted
}

// Filter keeps the issues whose ids are listed, in the order they appear in
// issues. An empty id list keeps everything. Unknown ids are returned.
func Filter(issues []types.Issue, ids []string) ([]types.Issue, []string) {
	if len(ids) == 0 {
		return issues, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var kept []types.Issue
	for _, is := range issues {
		if want[is.ID] {
			kept = append(kept, is)
			delete(want, is.ID)
		}
	}
	var unknown []string
	for id := range want {
		unknown = append(unknown, id)
	}
	sort.Strings(unknown)
	return kept, unknown
}
