// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the per-issue processing: download the PDF, write
// the model summary, write the OCR transcription and refresh the combined
// summary. Every step is skipped when its artifact already exists unless the
// run is forced. Each issue is processed inside its own error boundary so a
// failing issue is recorded and the batch moves on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/libertas-archive/internal/layout"
	"github.com/pdiddy/libertas-archive/internal/markdown"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

// Fetcher makes sure an issue's PDF is on disk.
type Fetcher interface {
	EnsurePDF(ctx context.Context, l layout.Layout, issue types.Issue, force bool) (skipped bool, err error)
}

// Summarizer produces the summary sections for a PDF.
type Summarizer interface {
	Summarize(ctx context.Context, name string, pdf []byte) (types.IssueSummary, error)
}

// Transcriber produces the OCR text for a PDF.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, pdf []byte) (string, error)
}

// Options controls a batch run.
type Options struct {
	// Force redoes every step even when its artifact exists.
	Force bool
	// Parallel is the number of issues processed at once. Values below 1
	// mean one issue at a time.
	Parallel int
	// NoDownload uses only PDFs already on disk.
	NoDownload  bool
	SkipSummary bool
	SkipOCR     bool
}

// Driver runs the steps for a list of issues. A nil Summarizer or
// Transcriber disables that step.
type Driver struct {
	Layout      layout.Layout
	Fetcher     Fetcher
	Summarizer  Summarizer
	Transcriber Transcriber

	// SummaryModel and OCRModel name the per-model artifacts. They default
	// to gemini and mistral.
	SummaryModel types.Model
	OCRModel     types.Model

	Log zerolog.Logger
	// Out receives one status line per issue. Nil discards them.
	Out io.Writer

	outMu sync.Mutex
}

func (d *Driver) summaryModel() types.Model {
	if d.SummaryModel == "" {
		return types.ModelGemini
	}
	return d.SummaryModel
}

func (d *Driver) ocrModel() types.Model {
	if d.OCRModel == "" {
		return types.ModelMistral
	}
	return d.OCRModel
}

// Run processes issues in order, or on a bounded pool when opts.Parallel is
// above one, and returns the report. Results keep the order of issues.
func (d *Driver) Run(ctx context.Context, issues []types.Issue, opts Options) *Report {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Issues:  make([]IssueResult, len(issues)),
	}
	d.Log.Info().
		Str("run", report.RunID).
		Int("issues", len(issues)).
		Bool("force", opts.Force).
		Msg("starting batch")

	limit := opts.Parallel
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, issue := range issues {
		g.Go(func() error {
			res := d.Process(ctx, issue, opts)
			report.Issues[i] = res
			d.printResult(res)
			return nil
		})
	}
	g.Wait()

	report.Finished = time.Now()
	d.Log.Info().
		Str("run", report.RunID).
		Int("failed", report.Failed()).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("batch finished")
	return report
}

func (d *Driver) printResult(res IssueResult) {
	if d.Out == nil {
		return
	}
	d.outMu.Lock()
	defer d.outMu.Unlock()
	if res.Failed() {
		fmt.Fprintf(d.Out, "failed:  %s (%s)\n", res.Issue, res.Error)
		return
	}
	fmt.Fprintf(d.Out, "done:    %s (pdf=%s summary=%s ocr=%s)\n",
		res.Issue, res.Download, res.Summary, res.OCR)
}

// Process runs every step for one issue. Errors and panics are captured in
// the result and never escape.
func (d *Driver) Process(ctx context.Context, issue types.Issue, opts Options) (res IssueResult) {
	start := time.Now()
	log := d.Log.With().Str("issue", issue.ID).Logger()
	ctx = log.WithContext(ctx)

	res = IssueResult{
		Issue:    issue.ID,
		Download: OutcomePending,
		Summary:  OutcomePending,
		OCR:      OutcomePending,
		Combined: OutcomePending,
	}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("panic: %v", r)
			log.Error().Interface("panic", r).Msg("issue aborted")
		}
		res.Duration = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := d.process(ctx, issue, opts, &res); err != nil {
		res.Error = err.Error()
		log.Error().Err(err).Msg("issue failed")
	}
	return res
}

func (d *Driver) process(ctx context.Context, issue types.Issue, opts Options, res *IssueResult) error {
	log := zerolog.Ctx(ctx)

	if opts.NoDownload || d.Fetcher == nil {
		res.Download = OutcomeDisabled
	} else {
		skipped, err := d.Fetcher.EnsurePDF(ctx, d.Layout, issue, opts.Force)
		switch {
		case err != nil:
			res.Download = OutcomeFailed
			return err
		case skipped:
			res.Download = OutcomeSkipped
		default:
			res.Download = OutcomeDone
		}
	}

	pdfPath := d.Layout.PDFPath(issue)
	if layout.Status(pdfPath) == layout.Missing {
		log.Warn().Str("path", pdfPath).Msg("PDF file not found, skipping extraction")
		res.Summary = OutcomeMissingPDF
		res.OCR = OutcomeMissingPDF
		res.Combined = OutcomeMissingPDF
		return nil
	}

	src := &pdfSource{path: pdfPath}
	var errs []error
	if err := d.summarize(ctx, issue, opts, src, res); err != nil {
		errs = append(errs, fmt.Errorf("summary: %w", err))
	}
	if err := d.transcribe(ctx, issue, opts, src, res); err != nil {
		errs = append(errs, fmt.Errorf("ocr: %w", err))
	}
	if err := d.combine(ctx, issue, opts, res); err != nil {
		errs = append(errs, fmt.Errorf("combined summary: %w", err))
	}
	return errors.Join(errs...)
}

func (d *Driver) summarize(ctx context.Context, issue types.Issue, opts Options, src *pdfSource, res *IssueResult) error {
	log := zerolog.Ctx(ctx)
	path := d.Layout.SummaryModelPath(issue, d.summaryModel())

	switch {
	case opts.SkipSummary || d.Summarizer == nil:
		res.Summary = OutcomeDisabled
		return nil
	case !layout.ShouldRun(layout.Status(path), opts.Force):
		log.Info().Str("path", path).Msg("summary exists, skipping")
		res.Summary = OutcomeSkipped
		return nil
	}

	res.Summary = OutcomeFailed
	pdf, err := src.bytes()
	if err != nil {
		return err
	}
	s, err := d.Summarizer.Summarize(ctx, src.name(), pdf)
	if err != nil {
		return err
	}
	if err := layout.WriteFile(path, []byte(markdown.Summary(issue, s))); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("summary written")
	res.Summary = OutcomeDone
	return nil
}

func (d *Driver) transcribe(ctx context.Context, issue types.Issue, opts Options, src *pdfSource, res *IssueResult) error {
	log := zerolog.Ctx(ctx)
	path := d.Layout.OCRModelPath(issue, d.ocrModel())

	switch {
	case opts.SkipOCR || d.Transcriber == nil:
		res.OCR = OutcomeDisabled
		return nil
	case !layout.ShouldRun(layout.Status(path), opts.Force):
		log.Info().Str("path", path).Msg("OCR exists, skipping")
		res.OCR = OutcomeSkipped
		return nil
	}

	res.OCR = OutcomeFailed
	pdf, err := src.bytes()
	if err != nil {
		return err
	}
	text, err := d.Transcriber.Transcribe(ctx, src.name(), pdf)
	if err != nil {
		return err
	}
	if err := layout.WriteFile(path, []byte(markdown.Transcription(issue, text))); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("OCR written")
	res.OCR = OutcomeDone
	return nil
}

// combine writes resume.md from the per-model summary. It runs when a
// per-model artifact changed in this issue's run, or when resume.md is
// missing or forced.
func (d *Driver) combine(ctx context.Context, issue types.Issue, opts Options, res *IssueResult) error {
	log := zerolog.Ctx(ctx)
	path := d.Layout.SummaryPath(issue)
	modelPath := d.Layout.SummaryModelPath(issue, d.summaryModel())

	if layout.Status(modelPath) == layout.Missing {
		res.Combined = OutcomeSkipped
		return nil
	}
	changed := res.Summary == OutcomeDone || res.OCR == OutcomeDone
	if !changed && !layout.ShouldRun(layout.Status(path), opts.Force) {
		res.Combined = OutcomeSkipped
		return nil
	}

	res.Combined = OutcomeFailed
	body, err := os.ReadFile(modelPath)
	if err != nil {
		return err
	}
	sections := []markdown.Section{{Model: d.summaryModel(), Body: markdown.StripHeader(string(body))}}

	var transcriptions []string
	ocrPath := d.Layout.OCRModelPath(issue, d.ocrModel())
	if layout.Status(ocrPath) == layout.Present {
		transcriptions = append(transcriptions, filepath.Base(ocrPath))
	}

	if err := layout.WriteFile(path, []byte(markdown.Combined(issue, sections, transcriptions))); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("combined summary written")
	res.Combined = OutcomeDone
	return nil
}

// pdfSource reads the PDF at most once per issue, and only when a step
// needs it.
type pdfSource struct {
	path string
	data []byte
}

// name is the upload name: the issue directory and the file name.
func (s *pdfSource) name() string {
	return filepath.Base(filepath.Dir(s.path)) + "/" + filepath.Base(s.path)
}

func (s *pdfSource) bytes() ([]byte, error) {
	if s.data != nil {
		return s.data, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	s.data = data
	return data, nil
}
