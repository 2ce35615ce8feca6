// Package acquire downloads issue PDFs into their issue directories.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/libertas-archive/internal/httputil"
	"github.com/pdiddy/libertas-archive/internal/layout"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

// NetworkError reports a download that completed with a non-success status.
type NetworkError struct {
	URL        string
	StatusCode int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Downloader fetches PDFs over HTTP.
type Downloader struct {
	client *http.Client
	cfg    types.DownloadConfig

	// Progress, when set, receives a byte progress bar for each download.
	Progress io.Writer
}

// NewDownloader returns a Downloader using client, which handles redirects
// and timeouts.
func NewDownloader(client *http.Client, cfg types.DownloadConfig) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Downloader{client: client, cfg: cfg}
}

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of issues processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Fetch returns the body of url. A non-2xx status yields a *NetworkError.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.get(ctx, url, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Download fetches url into destPath. The body is streamed into a temporary
// file next to destPath and renamed on success, so destPath never holds a
// partial download.
func (d *Downloader) Download(ctx context.Context, url, destPath string) error {
	return layout.WriteFrom(destPath, func(w io.Writer) error {
		return d.get(ctx, url, w)
	})
}

func (d *Downloader) get(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, d.client, req, d.cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	dst := w
	if d.Progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(d.Progress),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		dst = io.MultiWriter(w, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("writing download: %w", err)
	}
	return nil
}

// EnsurePDF downloads the issue PDF unless it is already present and force
// is false. The skipped return value indicates whether the download was
// skipped.
func (d *Downloader) EnsurePDF(ctx context.Context, l layout.Layout, issue types.Issue, force bool) (skipped bool, err error) {
	log := zerolog.Ctx(ctx)
	pdfPath := l.PDFPath(issue)

	if !layout.ShouldRun(layout.Status(pdfPath), force) {
		log.Info().Str("issue", issue.ID).Msg("already downloaded, skipping")
		return true, nil
	}

	log.Info().Str("issue", issue.ID).Str("url", issue.SourceURL).Msg("downloading")
	if err := d.Download(ctx, issue.SourceURL, pdfPath); err != nil {
		return false, fmt.Errorf("downloading issue %s: %w", issue.ID, err)
	}
	log.Info().Str("issue", issue.ID).Msg("downloaded")
	return false, nil
}

// DownloadAll ensures the PDF of every issue, printing per-item status and
// returning a summary. It continues after individual failures and applies
// the configured delay between consecutive downloads.
func (d *Downloader) DownloadAll(ctx context.Context, l layout.Layout, issues []types.Issue, force bool, w io.Writer) BatchResult {
	var result BatchResult
	fetched := 0
	for _, issue := range issues {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", issue.ID, ctx.Err())
			result.Failed++
			continue
		}
		needed := layout.ShouldRun(layout.Status(l.PDFPath(issue)), force)
		if needed && fetched > 0 && d.cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(d.cfg.DownloadDelay):
			}
		}

		skipped, err := d.EnsurePDF(ctx, l, issue, force)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", issue.ID, err)
			result.Failed++
		case skipped:
			fmt.Fprintf(w, "skipped: %s (already exists)\n", issue.ID)
			result.Skipped++
		default:
			fmt.Fprintf(w, "downloaded: %s\n", issue.ID)
			result.Downloaded++
		}
		if needed {
			fetched++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}
