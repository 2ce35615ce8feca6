// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/libertas-archive/internal/container"
)

// MarkitdownImage is the container image that converts a PDF on stdin to
// Markdown on stdout.
const MarkitdownImage = "markitdown:latest"

// MarkitdownTranscriber converts PDFs locally by piping them through the
// markitdown container. It reads the PDF text layer, so it needs no API key
// but does not recognize scanned pages.
type MarkitdownTranscriber struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownTranscriber checks that the image exists in rt.
func NewMarkitdownTranscriber(ctx context.Context, rt container.Runtime) (*MarkitdownTranscriber, error) {
	if err := rt.ImageExists(ctx, MarkitdownImage); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownTranscriber{runtime: rt, image: MarkitdownImage}, nil
}

// Transcribe returns the Markdown produced by the container.
func (m *MarkitdownTranscriber) Transcribe(ctx context.Context, name string, pdf []byte) (string, error) {
	zerolog.Ctx(ctx).Info().Str("file", name).Str("runtime", m.runtime.Name()).Msg("converting PDF with markitdown")

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, bytes.NewReader(pdf), &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", name, err)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("markitdown produced empty output for %s", name)
	}
	return text, nil
}
