// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []Page
		want  string
	}{
		{
			name: "missing markdown on page two",
			pages: []Page{
				{Index: 0, Markdown: strPtr("page one")},
				{Index: 1},
				{Index: 2, Markdown: strPtr("page three")},
			},
			want: "page one\n\n\n\npage three",
		},
		{
			name: "pages out of order",
			pages: []Page{
				{Index: 2, Markdown: strPtr("c")},
				{Index: 0, Markdown: strPtr("a")},
				{Index: 1, Markdown: strPtr("b")},
			},
			want: "a\n\nb\n\nc",
		},
		{
			name: "empty string is kept",
			pages: []Page{
				{Index: 0, Markdown: strPtr("")},
				{Index: 1, Markdown: strPtr("b")},
			},
			want: "\n\nb",
		},
		{
			name:  "no pages",
			pages: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinPages(tt.pages))
		})
	}
}

type fakeService struct {
	uploadErr  error
	signErr    error
	processErr error
	pages      []Page

	gotName   string
	gotFileID string
	gotExpiry time.Duration
	gotURL    string
}

func (f *fakeService) Upload(_ context.Context, name string, _ []byte) (string, error) {
	f.gotName = name
	return "file-123", f.uploadErr
}

func (f *fakeService) SignedURL(_ context.Context, fileID string, expiry time.Duration) (string, error) {
	f.gotFileID = fileID
	f.gotExpiry = expiry
	return "https://signed.example/file-123", f.signErr
}

func (f *fakeService) Process(_ context.Context, documentURL string) (*Response, error) {
	f.gotURL = documentURL
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &Response{Pages: f.pages}, nil
}

func TestTranscribe(t *testing.T) {
	svc := &fakeService{pages: []Page{
		{Index: 0, Markdown: strPtr("# Libertas")},
		{Index: 1},
		{Index: 2, Markdown: strPtr("Slut")},
	}}

	text, err := NewExtractor(svc, 0).Transcribe(context.Background(), "78/tidsskrift.pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, "# Libertas\n\n\n\nSlut", text)
	assert.Equal(t, "78/tidsskrift.pdf", svc.gotName)
	assert.Equal(t, "file-123", svc.gotFileID)
	assert.Equal(t, DefaultSignedURLExpiry, svc.gotExpiry)
	assert.Equal(t, "https://signed.example/file-123", svc.gotURL)
}

func TestTranscribeErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		svc     *fakeService
		wantMsg string
	}{
		{"upload", &fakeService{uploadErr: boom}, "uploading"},
		{"sign", &fakeService{signErr: boom}, "signing URL"},
		{"process", &fakeService{processErr: boom}, "processing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExtractor(tt.svc, time.Minute).Transcribe(context.Background(), "x.pdf", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
