// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/libertas-archive/internal/layout"
)

// Outcome is the result of one step for one issue.
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeDone       Outcome = "done"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeFailed     Outcome = "failed"
	OutcomeDisabled   Outcome = "disabled"
	OutcomeMissingPDF Outcome = "missing-pdf"
)

// IssueResult records what happened to one issue.
type IssueResult struct {
	Issue    string        `yaml:"issue"`
	Download Outcome       `yaml:"download"`
	Summary  Outcome       `yaml:"summary"`
	OCR      Outcome       `yaml:"ocr"`
	Combined Outcome       `yaml:"combined"`
	Error    string        `yaml:"error,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Failed reports whether any step of the issue failed.
func (r IssueResult) Failed() bool {
	return r.Error != ""
}

// Report is the outcome of a batch run.
type Report struct {
	RunID    string        `yaml:"run_id"`
	Started  time.Time     `yaml:"started"`
	Finished time.Time     `yaml:"finished"`
	Issues   []IssueResult `yaml:"issues"`
}

// Counts tallies step outcomes across a report.
type Counts struct {
	Downloaded  int
	Summarized  int
	Transcribed int
	MissingPDF  int
	Succeeded   int
	Failed      int
}

// Counts returns the tallies for the report.
func (r *Report) Counts() Counts {
	var c Counts
	for _, res := range r.Issues {
		if res.Download == OutcomeDone {
			c.Downloaded++
		}
		if res.Summary == OutcomeDone {
			c.Summarized++
		}
		if res.OCR == OutcomeDone {
			c.Transcribed++
		}
		if res.Summary == OutcomeMissingPDF {
			c.MissingPDF++
		}
		if res.Failed() {
			c.Failed++
		} else {
			c.Succeeded++
		}
	}
	return c
}

// Total returns the number of issues in the run.
func (r *Report) Total() int {
	return len(r.Issues)
}

// Failed returns the number of issues with an error.
func (r *Report) Failed() int {
	return r.Counts().Failed
}

// HasFailures reports whether any issue failed.
func (r *Report) HasFailures() bool {
	return r.Failed() > 0
}

// FailedIssues returns the results of the issues that failed.
func (r *Report) FailedIssues() []IssueResult {
	var out []IssueResult
	for _, res := range r.Issues {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Print writes the batch summary.
func (r *Report) Print(w io.Writer) {
	c := r.Counts()
	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d failed (total: %d)\n", c.Succeeded, c.Failed, r.Total())
	fmt.Fprintf(w, "  downloaded: %d, summarized: %d, transcribed: %d, missing PDF: %d\n",
		c.Downloaded, c.Summarized, c.Transcribed, c.MissingPDF)
	for _, res := range r.FailedIssues() {
		fmt.Fprintf(w, "  failed: %s: %s\n", res.Issue, res.Error)
	}
}

// WriteYAML stores the report at path.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := layout.WriteFile(path, data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
