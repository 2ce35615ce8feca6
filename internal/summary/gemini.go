// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash-exp"

const pdfMIMEType = "application/pdf"

// filePollInterval is how often an uploaded file is checked while the
// service is still processing it. Package-level var for test substitution.
var filePollInterval = 2 * time.Second

// GeminiService implements Service with the Gemini API.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService creates a client for the Gemini API.
func NewGeminiService(ctx context.Context, cfg types.SummaryConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiService{client: client, model: model}, nil
}

// Upload sends the PDF to the Files API and waits until it is usable.
func (g *GeminiService) Upload(ctx context.Context, name string, pdf []byte) (File, error) {
	f, err := g.client.Files.Upload(ctx, bytes.NewReader(pdf), &genai.UploadFileConfig{
		MIMEType:    pdfMIMEType,
		DisplayName: name,
	})
	if err != nil {
		return File{}, fmt.Errorf("gemini upload: %w", err)
	}

	for f.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return File{}, ctx.Err()
		case <-time.After(filePollInterval):
		}
		f, err = g.client.Files.Get(ctx, f.Name, nil)
		if err != nil {
			return File{}, fmt.Errorf("gemini file status: %w", err)
		}
	}
	if f.State == genai.FileStateFailed {
		return File{}, fmt.Errorf("gemini could not process %s", name)
	}

	mime := f.MIMEType
	if mime == "" {
		mime = pdfMIMEType
	}
	return File{Name: f.Name, URI: f.URI, MIMEType: mime}, nil
}

// Generate sends the uploaded file and the prompt as one user turn.
func (g *GeminiService) Generate(ctx context.Context, file File, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
