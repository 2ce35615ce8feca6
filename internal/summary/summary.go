// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary produces the Markdown digest of an issue with a
// generative-content model: the table of contents with authors and short
// article summaries, and the works cited in each article.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

// ErrEmptyResponse is returned when the model answers a prompt without text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// File is a document uploaded to the generation service.
type File struct {
	Name     string
	URI      string
	MIMEType string
}

// Service abstracts the generative AI API so tests can supply a fake.
type Service interface {
	// Upload stores a PDF with the service for use in later prompts.
	Upload(ctx context.Context, name string, pdf []byte) (File, error)
	// Generate answers prompt against the uploaded file and returns the text.
	Generate(ctx context.Context, file File, prompt string) (string, error)
}

// Extractor runs the summary prompts for one issue at a time.
type Extractor struct {
	service Service
}

// NewExtractor returns an Extractor backed by service.
func NewExtractor(service Service) *Extractor {
	return &Extractor{service: service}
}

// Summarize uploads the PDF once and asks for the table of contents and the
// cited works in two independent requests. Both answers must contain text.
func (e *Extractor) Summarize(ctx context.Context, name string, pdf []byte) (types.IssueSummary, error) {
	log := zerolog.Ctx(ctx)

	log.Info().Str("file", name).Msg("uploading PDF for analysis")
	file, err := e.service.Upload(ctx, name, pdf)
	if err != nil {
		return types.IssueSummary{}, fmt.Errorf("uploading %s: %w", name, err)
	}

	log.Info().Str("file", name).Msg("extracting contents")
	contents, err := e.ask(ctx, file, contentsPrompt)
	if err != nil {
		return types.IssueSummary{}, err
	}

	log.Info().Str("file", name).Msg("extracting cited authors")
	cited, err := e.ask(ctx, file, citedPrompt)
	if err != nil {
		return types.IssueSummary{}, err
	}

	return types.IssueSummary{TableOfContents: contents, CitedWorks: cited}, nil
}

func (e *Extractor) ask(ctx context.Context, file File, p prompt) (string, error) {
	text, err := e.service.Generate(ctx, file, p.text)
	if err != nil {
		return "", fmt.Errorf("%s prompt: %w", p.name, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s prompt: %w", p.name, ErrEmptyResponse)
	}
	return text, nil
}
