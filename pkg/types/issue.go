// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Issue is one published magazine number and the URL its PDF is served from.
// Issues are defined once when the catalog is loaded and never mutated.
type Issue struct {
	// ID identifies the issue (e.g. "78", "45-46", "71-tillæg"). It doubles
	// as the name of the issue's output directory.
	ID string `json:"issue" yaml:"issue"`

	// SourceURL is the URL of the issue's PDF.
	SourceURL string `json:"uri" yaml:"uri"`
}

// Model names an external AI service whose output is stored per issue.
type Model string

const (
	ModelGemini  Model = "gemini"
	ModelMistral Model = "mistral"

	// ModelMarkitdown is the local PDF text extraction run in a container.
	ModelMarkitdown Model = "markitdown"
)

// ArtifactKind identifies one of the files kept in an issue directory.
type ArtifactKind string

const (
	// ArtifactPDF is the downloaded issue PDF.
	ArtifactPDF ArtifactKind = "pdf"
	// ArtifactSummary is the combined summary across models.
	ArtifactSummary ArtifactKind = "summary"
	// ArtifactModelSummary is the summary produced by one model.
	ArtifactModelSummary ArtifactKind = "model-summary"
	// ArtifactModelOCR is the OCR transcription produced by one model.
	ArtifactModelOCR ArtifactKind = "model-ocr"
)

// IssueSummary is the generated digest of an issue: its contents with
// authors and short summaries, and the works cited in each article.
type IssueSummary struct {
	TableOfContents string `json:"table_of_contents" yaml:"table_of_contents"`
	CitedWorks      string `json:"cited_works" yaml:"cited_works"`
}
