// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/libertas-archive/internal/httputil"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

const (
	// DefaultMistralModel is the OCR model used when none is configured.
	DefaultMistralModel = "mistral-ocr-latest"

	defaultMistralBaseURL = "https://api.mistral.ai/v1"
)

// APIError reports a non-success response from the OCR service.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mistral %s returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// MistralClient implements Service with the Mistral REST API.
type MistralClient struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewMistralClient returns a client configured from cfg.
func NewMistralClient(cfg types.OCRConfig, client *http.Client) (*MistralClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mistral: API key is required")
	}
	m := &MistralClient{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Client:  client,
	}
	if m.Model == "" {
		m.Model = DefaultMistralModel
	}
	if m.BaseURL == "" {
		m.BaseURL = defaultMistralBaseURL
	}
	if m.Client == nil {
		m.Client = http.DefaultClient
	}
	return m, nil
}

type uploadResponse struct {
	ID string `json:"id"`
}

type signedURLResponse struct {
	URL string `json:"url"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// Upload sends the PDF as a multipart form with purpose "ocr".
func (m *MistralClient) Upload(ctx context.Context, name string, pdf []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "ocr"); err != nil {
		return "", fmt.Errorf("writing form: %w", err)
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("writing form: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return "", fmt.Errorf("writing form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("writing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/files", bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadResponse
	if err := m.do(req, "upload", &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("mistral upload returned no file id")
	}
	return out.ID, nil
}

// SignedURL requests a URL for fileID. The API takes the expiry in whole
// hours; shorter durations round up to one hour.
func (m *MistralClient) SignedURL(ctx context.Context, fileID string, expiry time.Duration) (string, error) {
	hours := int(math.Ceil(expiry.Hours()))
	if hours < 1 {
		hours = 1
	}
	u := fmt.Sprintf("%s/files/%s/url?expiry=%d", m.BaseURL, url.PathEscape(fileID), hours)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	var out signedURLResponse
	if err := m.do(req, "signed url", &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("mistral signed url response had no url")
	}
	return out.URL, nil
}

// Process submits documentURL for OCR without embedded images.
func (m *MistralClient) Process(ctx context.Context, documentURL string) (*Response, error) {
	payload, err := json.Marshal(ocrRequest{
		Model: m.Model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: documentURL,
		},
		IncludeImageBase64: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out Response
	if err := m.do(req, "ocr", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do authenticates req, retries on rate limiting, and decodes a JSON body
// into out.
func (m *MistralClient) do(req *http.Request, op string, out any) error {
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(req.Context(), m.Client, req, 0)
	if err != nil {
		return fmt.Errorf("calling mistral %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding mistral %s response: %w", op, err)
	}
	return nil
}
