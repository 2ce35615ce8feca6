package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "libertas-archive/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 0).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.0-flash-exp").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// SummaryConfig holds settings for the summary stage.
type SummaryConfig struct {
	AIConfig `yaml:",inline"`

	// BaseURL overrides the Gemini API endpoint; empty uses the SDK default.
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// OCRConfig holds settings for the OCR stage.
type OCRConfig struct {
	AIConfig `yaml:",inline"`

	// BaseURL is the root of the OCR service API (e.g. "https://api.mistral.ai/v1").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// SignedURLExpiry is how long the signed document URL stays valid.
	// The service accepts whole hours; anything shorter rounds up to one hour.
	SignedURLExpiry time.Duration `json:"signed_url_expiry" yaml:"signed_url_expiry"`
}

// IndexConfig holds settings for the full-text index over produced Markdown.
type IndexConfig struct {
	// Path is the SQLite database file (default <data-dir>/index/archive.db).
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of search hits (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PublishConfig holds settings for mirroring artifacts to object storage.
type PublishConfig struct {
	Bucket  string `json:"bucket" yaml:"bucket"`
	Prefix  string `json:"prefix" yaml:"prefix"`
	Region  string `json:"region" yaml:"region"`
	Profile string `json:"profile" yaml:"profile"`
}

// RunConfig groups the stage configurations for a batch run.
type RunConfig struct {
	DataDir  string         `json:"data_dir" yaml:"data_dir"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Summary  SummaryConfig  `json:"summary" yaml:"summary"`
	OCR      OCRConfig      `json:"ocr" yaml:"ocr"`
	Index    IndexConfig    `json:"index" yaml:"index"`
	Publish  PublishConfig  `json:"publish" yaml:"publish"`
}
