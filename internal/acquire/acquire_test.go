// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/libertas-archive/internal/httputil"
	"github.com/pdiddy/libertas-archive/internal/layout"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// newTestServer serves fake PDFs under /pdf/ and fails everything else.
func newTestServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			if r.Header.Get("User-Agent") != "libertas-archive-test/0.1" {
				http.Error(w, "bad user agent", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		case r.URL.Path == "/gone.pdf":
			http.Error(w, "gone", http.StatusGone)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testConfig() types.DownloadConfig {
	return types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "libertas-archive-test/0.1",
		},
	}
}

func TestFetch(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()
	d := NewDownloader(ts.Client(), testConfig())

	data, err := d.Fetch(context.Background(), ts.URL+"/pdf/78.pdf")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("Fetch = %q, want %q", data, fakePDFContent)
	}

	_, err = d.Fetch(context.Background(), ts.URL+"/gone.pdf")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch error = %v, want *NetworkError", err)
	}
	if netErr.StatusCode != http.StatusGone {
		t.Errorf("StatusCode = %d, want %d", netErr.StatusCode, http.StatusGone)
	}
	if !strings.Contains(netErr.Error(), "HTTP 410") {
		t.Errorf("Error() = %q, want HTTP 410", netErr.Error())
	}
}

func TestDownloadFailureLeavesNoFile(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()
	d := NewDownloader(ts.Client(), testConfig())

	dest := filepath.Join(t.TempDir(), "78", "tidsskrift.pdf")
	if err := d.Download(context.Background(), ts.URL+"/missing.pdf", dest); err == nil {
		t.Fatal("expected error for 404")
	}
	if layout.Status(dest) != layout.Missing {
		t.Error("failed download must not leave a file at the destination")
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 0 {
		t.Errorf("found %d leftover files, want 0", len(entries))
	}
}

func TestDownloadWithProgress(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()
	d := NewDownloader(ts.Client(), testConfig())
	var progress bytes.Buffer
	d.Progress = &progress

	dest := filepath.Join(t.TempDir(), "tidsskrift.pdf")
	if err := d.Download(context.Background(), ts.URL+"/pdf/1.pdf", dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("file content = %q, want %q", data, fakePDFContent)
	}
}

func TestEnsurePDF(t *testing.T) {
	var calls int32
	ts := newTestServer(t, &calls)
	defer ts.Close()
	d := NewDownloader(ts.Client(), testConfig())
	l := layout.New(t.TempDir())
	issue := types.Issue{ID: "45-46", SourceURL: ts.URL + "/pdf/45.pdf"}

	skipped, err := d.EnsurePDF(context.Background(), l, issue, false)
	if err != nil {
		t.Fatalf("EnsurePDF: %v", err)
	}
	if skipped {
		t.Error("expected download, got skipped")
	}
	if layout.Status(l.PDFPath(issue)) != layout.Present {
		t.Fatal("PDF not written")
	}

	skipped, err = d.EnsurePDF(context.Background(), l, issue, false)
	if err != nil {
		t.Fatalf("EnsurePDF (second): %v", err)
	}
	if !skipped {
		t.Error("expected skip on second call")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}

	skipped, err = d.EnsurePDF(context.Background(), l, issue, true)
	if err != nil {
		t.Fatalf("EnsurePDF (forced): %v", err)
	}
	if skipped {
		t.Error("forced call must download")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestDownloadAll(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()
	d := NewDownloader(ts.Client(), testConfig())
	l := layout.New(t.TempDir())

	existing := types.Issue{ID: "1-2", SourceURL: ts.URL + "/pdf/1.pdf"}
	if err := layout.WriteFile(l.PDFPath(existing), []byte("already here")); err != nil {
		t.Fatal(err)
	}

	issues := []types.Issue{
		existing,
		{ID: "3", SourceURL: ts.URL + "/gone.pdf"},
		{ID: "4", SourceURL: ts.URL + "/pdf/4.pdf"},
	}

	var buf bytes.Buffer
	result := d.DownloadAll(context.Background(), l, issues, false, &buf)

	if result.Downloaded != 1 || result.Skipped != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 downloaded, 1 skipped, 1 failed", result)
	}
	if result.Total() != 3 {
		t.Errorf("Total() = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}

	out := buf.String()
	for _, want := range []string{"skipped: 1-2", "failed:  3", "downloaded: 4", "Batch summary: 1 downloaded, 1 skipped, 1 failed (total: 3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	data, _ := os.ReadFile(l.PDFPath(existing))
	if string(data) != "already here" {
		t.Error("existing PDF was overwritten without force")
	}
	if layout.Status(l.PDFPath(issues[1])) != layout.Missing {
		t.Error("failed issue must have no PDF")
	}
}

func TestDownloadAllCancelled(t *testing.T) {
	ts := newTestServer(t, nil)
	defer ts.Close()
	d := NewDownloader(ts.Client(), testConfig())
	l := layout.New(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	result := d.DownloadAll(ctx, l, []types.Issue{{ID: "9", SourceURL: ts.URL + "/pdf/9.pdf"}}, false, &buf)
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
}
