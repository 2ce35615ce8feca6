package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libertas-archive/internal/catalog"
	"github.com/pdiddy/libertas-archive/internal/layout"
	"github.com/pdiddy/libertas-archive/internal/ocr"
	"github.com/pdiddy/libertas-archive/internal/secrets"
	"github.com/pdiddy/libertas-archive/internal/summary"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "libertas-archive/0.1"

	// OCR of a full issue can take minutes.
	ocrTimeout = 10 * time.Minute
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// runConfig assembles the configuration from flags, environment, config
// file and secrets, in that order of precedence.
func runConfig() types.RunConfig {
	timeout := viper.GetDuration("download.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent := viper.GetString("download.user_agent")
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return types.RunConfig{
		DataDir: viper.GetString("data_dir"),
		Download: types.DownloadConfig{
			HTTPConfig:    types.HTTPConfig{Timeout: timeout, UserAgent: userAgent},
			DownloadDelay: viper.GetDuration("download.delay"),
			MaxRetries:    viper.GetInt("download.max_retries"),
		},
		Summary: types.SummaryConfig{
			AIConfig: types.AIConfig{
				Model:  stringOr(viper.GetString("summary.model"), summary.DefaultGeminiModel),
				APIKey: loadedSecrets.Resolve(viper.GetString("google_api_key"), secrets.GoogleAPIKey),
			},
			BaseURL: viper.GetString("summary.base_url"),
		},
		OCR: types.OCRConfig{
			AIConfig: types.AIConfig{
				Model:  stringOr(viper.GetString("ocr.model"), ocr.DefaultMistralModel),
				APIKey: loadedSecrets.Resolve(viper.GetString("mistral_api_key"), secrets.MistralAPIKey),
			},
			BaseURL:         viper.GetString("ocr.base_url"),
			SignedURLExpiry: viper.GetDuration("ocr.signed_url_expiry"),
		},
		Index: types.IndexConfig{
			Path:       viper.GetString("index.path"),
			MaxResults: viper.GetInt("index.max_results"),
		},
		Publish: types.PublishConfig{
			Bucket:  viper.GetString("publish.bucket"),
			Prefix:  viper.GetString("publish.prefix"),
			Region:  viper.GetString("publish.region"),
			Profile: viper.GetString("publish.profile"),
		},
	}
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func dataLayout() layout.Layout {
	return layout.New(stringOr(viper.GetString("data_dir"), "data"))
}

func httpClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// addSelectionFlags registers the flags that pick issues from the catalog.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("take", 0, "process only the first N issues in sorted id order (0 = all)")
	cmd.Flags().String("catalog", "", "YAML catalog replacing the built-in issue list")
}

// loadCatalog returns the catalog named by --catalog or the config file, or
// the built-in one.
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		path = viper.GetString("catalog")
	}
	var (
		cat *catalog.Catalog
		err error
	)
	if path != "" {
		cat, err = catalog.LoadFile(path)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}
	if dups := cat.Duplicates(); len(dups) > 0 {
		logger(cmd).Warn().Strs("ids", dups).Msg("catalog has duplicate issue ids; they share a directory")
	}
	return cat, nil
}

// selectIssues applies the positional issue ids and --take to the catalog.
func selectIssues(cmd *cobra.Command, args []string) ([]types.Issue, error) {
	cat, err := loadCatalog(cmd)
	if err != nil {
		return nil, err
	}
	issues, unknown := catalog.Filter(cat.Issues(), args)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown issue id(s): %s", strings.Join(unknown, ", "))
	}
	take, _ := cmd.Flags().GetInt("take")
	return catalog.Select(issues, take), nil
}
