// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libertas-archive/internal/acquire"
	"github.com/pdiddy/libertas-archive/internal/container"
	"github.com/pdiddy/libertas-archive/internal/ocr"
	"github.com/pdiddy/libertas-archive/internal/pipeline"
	"github.com/pdiddy/libertas-archive/internal/summary"
	"github.com/pdiddy/libertas-archive/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [issue ids...]",
	Short: "Download, summarize and transcribe issues",
	Long: `Run processes the catalog in sorted issue order. For each issue it
downloads tidsskrift.pdf, writes resume-gemini.md with the table of contents
and cited works, writes ocr-mistral.md with the OCR transcription, and
refreshes resume.md. Existing files are kept unless --force is given.

A failing issue is reported and the run continues with the next one. The
command exits non-zero when any issue failed.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("google-api-key", "", "Google API key (env GOOGLE_API_KEY)")
	f.String("mistral-api-key", "", "Mistral API key (env MISTRAL_API_KEY)")
	f.BoolP("force", "f", false, "redo every step even when its output exists")
	f.Int("parallel", 1, "number of issues processed at once")
	f.Bool("no-download", false, "use only PDFs already on disk")
	f.Bool("no-summary", false, "skip the Gemini summary")
	f.Bool("no-ocr", false, "skip the Mistral OCR transcription")
	f.String("report", "", "write the run report as YAML to this file")
	f.String("gemini-model", "", "Gemini model (default "+summary.DefaultGeminiModel+")")
	f.String("ocr-model", "", "Mistral OCR model (default "+ocr.DefaultMistralModel+")")
	f.String("ocr-backend", string(types.ModelMistral), "OCR backend: mistral, or markitdown for local conversion in a container")
	f.String("container-runtime", "", "container runtime for markitdown: docker or podman (default: detect)")
	addSelectionFlags(runCmd)

	viper.BindPFlag("google_api_key", f.Lookup("google-api-key"))
	viper.BindPFlag("mistral_api_key", f.Lookup("mistral-api-key"))
	viper.BindPFlag("summary.model", f.Lookup("gemini-model"))
	viper.BindPFlag("ocr.model", f.Lookup("ocr-model"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger(cmd)
	cfg := runConfig()

	force, _ := cmd.Flags().GetBool("force")
	parallel, _ := cmd.Flags().GetInt("parallel")
	noDownload, _ := cmd.Flags().GetBool("no-download")
	noSummary, _ := cmd.Flags().GetBool("no-summary")
	noOCR, _ := cmd.Flags().GetBool("no-ocr")
	reportPath, _ := cmd.Flags().GetString("report")
	backend, _ := cmd.Flags().GetString("ocr-backend")
	ocrModel := types.Model(backend)
	if ocrModel != types.ModelMistral && ocrModel != types.ModelMarkitdown {
		return fmt.Errorf("unknown OCR backend %q (want mistral or markitdown)", backend)
	}

	if !noSummary && cfg.Summary.APIKey == "" {
		return fmt.Errorf("a Google API key is required: use --google-api-key, GOOGLE_API_KEY or .secrets/google-api-key")
	}
	if !noOCR && ocrModel == types.ModelMistral && cfg.OCR.APIKey == "" {
		return fmt.Errorf("a Mistral API key is required: use --mistral-api-key, MISTRAL_API_KEY or .secrets/mistral-api-key")
	}
	if parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1")
	}

	issues, err := selectIssues(cmd, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	client := httpClient(cfg.Download.HTTPConfig)
	driver := &pipeline.Driver{
		Layout:   dataLayout(),
		Fetcher:  acquire.NewDownloader(client, cfg.Download),
		OCRModel: ocrModel,
		Log:      *log,
		Out:      os.Stdout,
	}

	if !noSummary {
		gemini, err := summary.NewGeminiService(ctx, cfg.Summary)
		if err != nil {
			return err
		}
		driver.Summarizer = summary.NewExtractor(gemini)
	}
	switch {
	case noOCR:
	case ocrModel == types.ModelMarkitdown:
		preferred, _ := cmd.Flags().GetString("container-runtime")
		rt, err := container.DetectRuntime(ctx, preferred)
		if err != nil {
			return err
		}
		markitdown, err := ocr.NewMarkitdownTranscriber(ctx, rt)
		if err != nil {
			return err
		}
		driver.Transcriber = markitdown
	default:
		mistral, err := ocr.NewMistralClient(cfg.OCR, httpClient(types.HTTPConfig{Timeout: ocrTimeout}))
		if err != nil {
			return err
		}
		driver.Transcriber = ocr.NewExtractor(mistral, cfg.OCR.SignedURLExpiry)
	}

	report := driver.Run(ctx, issues, pipeline.Options{
		Force:       force,
		Parallel:    parallel,
		NoDownload:  noDownload,
		SkipSummary: noSummary,
		SkipOCR:     noOCR,
	})
	report.Print(os.Stdout)

	if reportPath != "" {
		if err := report.WriteYAML(reportPath); err != nil {
			return err
		}
		log.Info().Str("path", reportPath).Msg("report written")
	}

	if report.HasFailures() {
		return fmt.Errorf("%d issue(s) failed", report.Failed())
	}
	return ctx.Err()
}
