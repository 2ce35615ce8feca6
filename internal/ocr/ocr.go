// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr transcribes issue PDFs to Markdown with a hosted OCR service.
// The PDF is uploaded, a short-lived signed URL is requested for it, and the
// URL is submitted for processing. The service answers with one result per
// page.
package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSignedURLExpiry is how long the signed document URL stays valid.
const DefaultSignedURLExpiry = time.Hour

// Page is the OCR result for one page. Markdown is nil when the service
// returned no text for the page.
type Page struct {
	Index    int     `json:"index"`
	Markdown *string `json:"markdown"`
}

// Response is the result of processing a document.
type Response struct {
	Model string `json:"model"`
	Pages []Page `json:"pages"`
}

// Service abstracts the OCR API so tests can supply a fake.
type Service interface {
	// Upload stores the PDF with the service and returns its file id.
	Upload(ctx context.Context, name string, pdf []byte) (string, error)
	// SignedURL returns a URL from which the service can read the file.
	SignedURL(ctx context.Context, fileID string, expiry time.Duration) (string, error)
	// Process runs OCR on the document at documentURL.
	Process(ctx context.Context, documentURL string) (*Response, error)
}

// Extractor runs the upload, sign and process sequence for one PDF.
type Extractor struct {
	service Service
	expiry  time.Duration
}

// NewExtractor returns an Extractor backed by service. A zero expiry uses
// DefaultSignedURLExpiry.
func NewExtractor(service Service, expiry time.Duration) *Extractor {
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	return &Extractor{service: service, expiry: expiry}
}

// Transcribe returns the Markdown text of every page of the PDF, in page
// order, separated by blank lines.
func (e *Extractor) Transcribe(ctx context.Context, name string, pdf []byte) (string, error) {
	log := zerolog.Ctx(ctx)

	log.Info().Str("file", name).Msg("uploading PDF for OCR")
	fileID, err := e.service.Upload(ctx, name, pdf)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}

	log.Info().Str("file", name).Msg("signing URL")
	url, err := e.service.SignedURL(ctx, fileID, e.expiry)
	if err != nil {
		return "", fmt.Errorf("signing URL for %s: %w", name, err)
	}

	log.Info().Str("file", name).Msg("extracting contents with OCR")
	resp, err := e.service.Process(ctx, url)
	if err != nil {
		return "", fmt.Errorf("processing %s: %w", name, err)
	}
	log.Debug().Str("file", name).Int("pages", len(resp.Pages)).Msg("OCR response")

	return JoinPages(resp.Pages), nil
}

// JoinPages concatenates page texts ordered by page index with a blank line
// between pages. A page without text contributes an empty segment.
func JoinPages(pages []Page) string {
	ordered := append([]Page(nil), pages...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	texts := make([]string, len(ordered))
	for i, p := range ordered {
		if p.Markdown != nil {
			texts[i] = *p.Markdown
		}
	}
	return strings.Join(texts, "\n\n")
}
