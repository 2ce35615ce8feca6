// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

var issue = types.Issue{ID: "45-46", SourceURL: "http://www.libertas.dk/arkiv/45.pdf"}

func TestSummary(t *testing.T) {
	got := Summary(issue, types.IssueSummary{
		TableOfContents: "* **Frihed** - *X*. Om frihed.",
		CitedWorks:      "### Frihed\n* Mill - On Liberty",
	})

	want := "# 45-46\n\n" +
		"PDF udgave: <http://www.libertas.dk/arkiv/45.pdf>\n\n" +
		"## Indhold\n\n* **Frihed** - *X*. Om frihed.\n\n" +
		"## Citerede forfattere\n\n### Frihed\n* Mill - On Liberty\n\n"
	assert.Equal(t, want, got)
}

func TestTranscription(t *testing.T) {
	got := Transcription(issue, "side 1\n\nside 2")
	assert.Equal(t, "# 45-46\n\nPDF udgave: <http://www.libertas.dk/arkiv/45.pdf>\n\nside 1\n\nside 2\n\n", got)
}

func TestStripHeader(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"summary", Summary(issue, types.IssueSummary{TableOfContents: "a", CitedWorks: "b"}), "## Indhold\n\na\n\n## Citerede forfattere\n\nb"},
		{"no header", "## Indhold\n\na", "## Indhold\n\na"},
		{"title only", "# 1\n\nbody", "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHeader(tt.doc))
		})
	}
}

func TestCombined(t *testing.T) {
	single := Combined(issue, []Section{{Model: types.ModelGemini, Body: "## Indhold\n\na\n"}}, []string{"ocr-mistral.md"})
	assert.Equal(t,
		"# 45-46\n\nPDF udgave: <http://www.libertas.dk/arkiv/45.pdf>\n\n"+
			"## Indhold\n\na\n\n"+
			"## Transskription\n\n* [ocr-mistral.md](ocr-mistral.md)\n\n",
		single)

	multi := Combined(issue, []Section{
		{Model: types.ModelGemini, Body: "g"},
		{Model: types.ModelMistral, Body: "m"},
	}, nil)
	assert.Contains(t, multi, "<!-- gemini -->\n\ng\n\n<!-- mistral -->\n\nm\n\n")
	assert.NotContains(t, multi, "Transskription")
}
