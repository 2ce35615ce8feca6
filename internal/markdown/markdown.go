// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown renders the per-issue output documents. Every document
// starts with the issue id as title and a link to the source PDF.
package markdown

import (
	"fmt"
	"strings"

	"github.com/pdiddy/libertas-archive/pkg/types"
)

const sourcePrefix = "PDF udgave: "

// Header returns the title and source link shared by all documents.
func Header(issue types.Issue) string {
	return fmt.Sprintf("# %s\n\n%s<%s>\n\n", issue.ID, sourcePrefix, issue.SourceURL)
}

// Summary renders a model's summary of an issue.
func Summary(issue types.Issue, s types.IssueSummary) string {
	var b strings.Builder
	b.WriteString(Header(issue))
	fmt.Fprintf(&b, "## Indhold\n\n%s\n\n", s.TableOfContents)
	fmt.Fprintf(&b, "## Citerede forfattere\n\n%s\n\n", s.CitedWorks)
	return b.String()
}

// Transcription renders a model's OCR text of an issue.
func Transcription(issue types.Issue, text string) string {
	return Header(issue) + text + "\n\n"
}

// Section is one model's contribution to the combined summary.
type Section struct {
	Model types.Model
	// Body is the model's document without its header.
	Body string
}

// Combined renders resume.md: the header, each model's summary body, and
// links to the OCR transcriptions that exist.
func Combined(issue types.Issue, sections []Section, transcriptions []string) string {
	var b strings.Builder
	b.WriteString(Header(issue))
	for _, s := range sections {
		if len(sections) > 1 {
			fmt.Fprintf(&b, "<!-- %s -->\n\n", s.Model)
		}
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteString("\n\n")
	}
	if len(transcriptions) > 0 {
		b.WriteString("## Transskription\n\n")
		for _, name := range transcriptions {
			fmt.Fprintf(&b, "* [%s](%s)\n", name, name)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StripHeader removes the title and source line written by Header.
func StripHeader(doc string) string {
	lines := strings.Split(doc, "\n")
	i := 0
	skip := func(pred func(string) bool) {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i < len(lines) && pred(lines[i]) {
			i++
		}
	}
	skip(func(l string) bool { return strings.HasPrefix(l, "# ") })
	skip(func(l string) bool { return strings.HasPrefix(l, sourcePrefix) })
	return strings.TrimSpace(strings.Join(lines[i:], "\n"))
}
