package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libertas-archive/internal/archive"
)

var publishCmd = &cobra.Command{
	Use:   "publish [issue ids...]",
	Short: "Mirror the produced artifacts to an S3 bucket",
	Long: `Publish uploads the summaries and transcriptions of each issue to
s3://<bucket>/<prefix>/issues/<issue>/. Objects whose content is unchanged
are not uploaded again. Credentials come from the standard AWS chain.`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.String("bucket", "", "destination bucket")
	f.String("prefix", "", "key prefix inside the bucket")
	f.String("region", "", "AWS region")
	f.String("profile", "", "AWS shared config profile")
	f.Bool("include-pdf", false, "also upload the issue PDFs")
	f.BoolP("force", "f", false, "upload even when the remote object is unchanged")
	addSelectionFlags(publishCmd)

	viper.BindPFlag("publish.bucket", f.Lookup("bucket"))
	viper.BindPFlag("publish.prefix", f.Lookup("prefix"))
	viper.BindPFlag("publish.region", f.Lookup("region"))
	viper.BindPFlag("publish.profile", f.Lookup("profile"))

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg := runConfig().Publish
	if cfg.Bucket == "" {
		return fmt.Errorf("--bucket or publish.bucket in the config file is required")
	}
	issues, err := selectIssues(cmd, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	client, err := archive.NewS3Client(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	p, err := archive.NewPublisher(client, cfg)
	if err != nil {
		return err
	}
	p.IncludePDF, _ = cmd.Flags().GetBool("include-pdf")
	force, _ := cmd.Flags().GetBool("force")

	result, err := p.Publish(cmd.Context(), dataLayout(), issues, force, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d upload(s) failed", result.Failed)
	}
	return nil
}
