package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/libertas-archive/internal/acquire"
)

var downloadCmd = &cobra.Command{
	Use:   "download [issue ids...]",
	Short: "Download issue PDFs only",
	Long: `Download fetches tidsskrift.pdf for each selected issue. PDFs that are
already on disk are skipped unless --force is given.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().BoolP("force", "f", false, "download again even when the PDF exists")
	downloadCmd.Flags().Duration("delay", 0, "delay between consecutive downloads")
	downloadCmd.Flags().Bool("progress", true, "show a progress bar on stderr")
	addSelectionFlags(downloadCmd)

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	issues, err := selectIssues(cmd, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	force, _ := cmd.Flags().GetBool("force")
	progress, _ := cmd.Flags().GetBool("progress")
	cfg := runConfig().Download
	if delay, _ := cmd.Flags().GetDuration("delay"); delay > 0 {
		cfg.DownloadDelay = delay
	}

	d := acquire.NewDownloader(httpClient(cfg.HTTPConfig), cfg)
	if progress {
		d.Progress = os.Stderr
	}

	result := d.DownloadAll(cmd.Context(), dataLayout(), issues, force, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d issue(s) failed download", result.Failed)
	}
	return nil
}
