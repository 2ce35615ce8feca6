// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout maps issues to their directories and artifact files on disk
// and reports which artifacts are already present.
//
// Layout:
//
//	<data-dir>/issues/<issue-id>/tidsskrift.pdf
//	<data-dir>/issues/<issue-id>/resume.md
//	<data-dir>/issues/<issue-id>/resume-<model>.md
//	<data-dir>/issues/<issue-id>/ocr-<model>.md
package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

const (
	issuesDir   = "issues"
	pdfFile     = "tidsskrift.pdf"
	summaryFile = "resume.md"
)

// ArtifactStatus reports whether an artifact exists on disk.
type ArtifactStatus int

const (
	Missing ArtifactStatus = iota
	Present
)

func (s ArtifactStatus) String() string {
	if s == Present {
		return "present"
	}
	return "missing"
}

// Layout resolves artifact paths under a data directory.
type Layout struct {
	dataDir string
}

// New returns a Layout rooted at dataDir.
func New(dataDir string) Layout {
	return Layout{dataDir: dataDir}
}

// DataDir returns the root directory.
func (l Layout) DataDir() string { return l.dataDir }

// IssuesDir returns the directory holding one subdirectory per issue.
func (l Layout) IssuesDir() string {
	return filepath.Join(l.dataDir, issuesDir)
}

// IssueDir returns the directory for an issue.
func (l Layout) IssueDir(issue types.Issue) string {
	return filepath.Join(l.IssuesDir(), issue.ID)
}

// PDFPath returns the path of the downloaded PDF.
func (l Layout) PDFPath(issue types.Issue) string {
	return filepath.Join(l.IssueDir(issue), pdfFile)
}

// SummaryPath returns the path of the combined summary.
func (l Layout) SummaryPath(issue types.Issue) string {
	return filepath.Join(l.IssueDir(issue), summaryFile)
}

// SummaryModelPath returns the path of the summary produced by model.
func (l Layout) SummaryModelPath(issue types.Issue, model types.Model) string {
	return filepath.Join(l.IssueDir(issue), fmt.Sprintf("resume-%s.md", model))
}

// OCRModelPath returns the path of the OCR transcription produced by model.
func (l Layout) OCRModelPath(issue types.Issue, model types.Model) string {
	return filepath.Join(l.IssueDir(issue), fmt.Sprintf("ocr-%s.md", model))
}

// Path returns the path for any artifact kind. model is ignored for the
// PDF and the combined summary.
func (l Layout) Path(issue types.Issue, kind types.ArtifactKind, model types.Model) string {
	switch kind {
	case types.ArtifactPDF:
		return l.PDFPath(issue)
	case types.ArtifactSummary:
		return l.SummaryPath(issue)
	case types.ArtifactModelSummary:
		return l.SummaryModelPath(issue, model)
	case types.ArtifactModelOCR:
		return l.OCRModelPath(issue, model)
	default:
		return ""
	}
}

// Artifact names one file in an issue directory.
type Artifact struct {
	Kind  types.ArtifactKind
	Model types.Model
}

// Name returns the artifact's file name.
func (a Artifact) Name() string {
	return filepath.Base(New("").Path(types.Issue{}, a.Kind, a.Model))
}

// Artifacts lists every artifact an issue directory can hold, in pipeline order.
var Artifacts = []Artifact{
	{Kind: types.ArtifactPDF},
	{Kind: types.ArtifactModelSummary, Model: types.ModelGemini},
	{Kind: types.ArtifactModelOCR, Model: types.ModelMistral},
	{Kind: types.ArtifactModelOCR, Model: types.ModelMarkitdown},
	{Kind: types.ArtifactSummary},
}

// Status reports whether the file at path exists.
func Status(path string) ArtifactStatus {
	if _, err := os.Stat(path); err == nil {
		return Present
	}
	return Missing
}

// ShouldRun reports whether a step producing an artifact with the given
// status must run. Present artifacts are only redone when forced.
func ShouldRun(status ArtifactStatus, force bool) bool {
	return force || status == Missing
}

// Inventory returns the status of every artifact for an issue.
func (l Layout) Inventory(issue types.Issue) map[Artifact]ArtifactStatus {
	inv := make(map[Artifact]ArtifactStatus, len(Artifacts))
	for _, a := range Artifacts {
		inv[a] = Status(l.Path(issue, a.Kind, a.Model))
	}
	return inv
}

// WriteFile writes data to path through a temporary file in the same
// directory, so the final name only ever holds complete content. The parent
// directory is created if needed.
func WriteFile(path string, data []byte) error {
	return WriteFrom(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFrom is WriteFile for content produced by a writer callback.
func WriteFrom(path string, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	fillErr := fill(tmpFile)
	closeErr := tmpFile.Close()
	if fillErr != nil {
		os.Remove(tmpPath)
		return fillErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
