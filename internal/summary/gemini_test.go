// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

const testFileName = "files/abc123"

// geminiServer emulates the resumable Files upload, file status polling and
// generateContent. states[0] is reported when the upload finalizes and each
// later status request advances one entry, sticking at the last.
type geminiServer struct {
	mu       sync.Mutex
	states   []genai.FileState
	answer   string
	uploaded []byte
	gets     int
	prompts  []string

	srv *httptest.Server
}

func newGeminiServer(t *testing.T, answer string, states ...genai.FileState) *geminiServer {
	t.Helper()
	g := &geminiServer{states: states, answer: answer}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Upload-Command") != "start" {
			http.Error(w, "expected upload start", http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-Goog-Upload-Header-Content-Type") != pdfMIMEType {
			http.Error(w, "bad content type", http.StatusBadRequest)
			return
		}
		w.Header().Set("X-Goog-Upload-URL", g.srv.URL+"/upload-session/1")
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("POST /upload-session/1", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.uploaded = append(g.uploaded, data...)
		g.mu.Unlock()
		if !strings.Contains(r.Header.Get("X-Goog-Upload-Command"), "finalize") {
			w.Header().Set("X-Goog-Upload-Status", "active")
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("X-Goog-Upload-Status", "final")
		json.NewEncoder(w).Encode(map[string]any{"file": g.file(0)})
	})

	mux.HandleFunc("GET /v1beta/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		if "files/"+r.PathValue("id") != testFileName {
			http.NotFound(w, r)
			return
		}
		g.mu.Lock()
		g.gets++
		n := g.gets
		g.mu.Unlock()
		json.NewEncoder(w).Encode(g.file(n))
	})

	mux.HandleFunc("POST /v1beta/models/{call}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("call") != "gemini-test:generateContent" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, `{"error":{"code":401,"message":"bad key"}}`, http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.prompts = append(g.prompts, string(body))
		g.mu.Unlock()

		resp := map[string]any{"candidates": []any{}}
		if g.answer != "" {
			resp["candidates"] = []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": g.answer}},
				},
			}}
		}
		json.NewEncoder(w).Encode(resp)
	})

	g.srv = httptest.NewServer(mux)
	t.Cleanup(g.srv.Close)
	return g
}

func (g *geminiServer) file(step int) map[string]any {
	state := g.states[len(g.states)-1]
	if step < len(g.states) {
		state = g.states[step]
	}
	return map[string]any{
		"name":     testFileName,
		"uri":      g.srv.URL + "/v1beta/" + testFileName,
		"mimeType": pdfMIMEType,
		"state":    string(state),
	}
}

func (g *geminiServer) service(t *testing.T) *GeminiService {
	t.Helper()
	svc, err := NewGeminiService(context.Background(), types.SummaryConfig{
		AIConfig: types.AIConfig{APIKey: "test-key", Model: "gemini-test"},
		BaseURL:  g.srv.URL + "/",
	})
	require.NoError(t, err)
	return svc
}

func fastPolling(t *testing.T) {
	t.Helper()
	prev := filePollInterval
	filePollInterval = time.Millisecond
	t.Cleanup(func() { filePollInterval = prev })
}

func TestGeminiSummarize(t *testing.T) {
	g := newGeminiServer(t, "svar", genai.FileStateActive)
	pdf := []byte("%PDF-1.4 issue 78")

	got, err := NewExtractor(g.service(t)).Summarize(context.Background(), "78/tidsskrift.pdf", pdf)
	require.NoError(t, err)

	assert.Equal(t, types.IssueSummary{TableOfContents: "svar", CitedWorks: "svar"}, got)
	assert.Equal(t, pdf, g.uploaded)
	assert.Zero(t, g.gets, "an active file needs no status polling")
	require.Len(t, g.prompts, 2)
	for _, body := range g.prompts {
		assert.Contains(t, body, g.srv.URL+"/v1beta/"+testFileName)
	}
	assert.Contains(t, g.prompts[0]+g.prompts[1], "indholdsfortegnelse")
}

func TestGeminiUploadStates(t *testing.T) {
	tests := []struct {
		name     string
		states   []genai.FileState
		wantGets int
		errMsg   string
	}{
		{
			name:     "active immediately",
			states:   []genai.FileState{genai.FileStateActive},
			wantGets: 0,
		},
		{
			name:     "processing then active",
			states:   []genai.FileState{genai.FileStateProcessing, genai.FileStateProcessing, genai.FileStateActive},
			wantGets: 2,
		},
		{
			name:     "processing then failed",
			states:   []genai.FileState{genai.FileStateProcessing, genai.FileStateFailed},
			wantGets: 1,
			errMsg:   "could not process",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fastPolling(t)
			g := newGeminiServer(t, "svar", tt.states...)

			f, err := g.service(t).Upload(context.Background(), "78/tidsskrift.pdf", []byte("%PDF"))
			assert.Equal(t, tt.wantGets, g.gets)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testFileName, f.Name)
			assert.Equal(t, pdfMIMEType, f.MIMEType)
			assert.Equal(t, g.srv.URL+"/v1beta/"+testFileName, f.URI)
		})
	}
}

func TestGeminiUploadCancelledWhileProcessing(t *testing.T) {
	g := newGeminiServer(t, "svar", genai.FileStateProcessing)
	svc := g.service(t)

	ctx, cancel := context.WithCancel(context.Background())
	prev := filePollInterval
	filePollInterval = time.Hour
	t.Cleanup(func() { filePollInterval = prev })
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := svc.Upload(ctx, "78/tidsskrift.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeminiNoCandidates(t *testing.T) {
	g := newGeminiServer(t, "", genai.FileStateActive)

	_, err := NewExtractor(g.service(t)).Summarize(context.Background(), "78/tidsskrift.pdf", []byte("%PDF"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
