// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the libertas-archive CLI. It downloads
// the Libertas magazine back catalog and produces Markdown summaries and
// OCR transcriptions for every issue.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libertas-archive/internal/logging"
	"github.com/pdiddy/libertas-archive/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets = secrets.Secrets{}

// rootCmd is the base command for the libertas-archive CLI.
var rootCmd = &cobra.Command{
	Use:   "libertas-archive",
	Short: "Archive, summarize and transcribe the Libertas magazine",
	Long: `libertas-archive downloads every issue of the Libertas magazine into
data/issues/<issue>/, asks Gemini for a table of contents and the works cited,
and transcribes the PDF to Markdown with Mistral OCR.

Every step is skipped when its output file already exists, so an interrupted
run can simply be started again. Use --force to redo everything.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format := viper.GetString("log_format")
		if !logging.ValidFormat(format) {
			return fmt.Errorf("unknown log format %q (want console or json)", format)
		}
		logger := logging.New(logging.Config{
			Verbose: viper.GetBool("verbose"),
			Format:  format,
		})
		zlog.Logger = logger
		cmd.SetContext(logger.WithContext(cmd.Context()))

		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./libertas-archive.yaml or ~/.config/libertas-archive/libertas-archive.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("data-dir", "data", "base directory for issue output")
	pf.String("log-format", "console", "log output format: console or json")

	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("data_dir", pf.Lookup("data-dir"))
	viper.BindPFlag("log_format", pf.Lookup("log-format"))
}

func initConfig() {
	// A missing .env is normal; the environment may already be set.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("libertas-archive")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "libertas-archive"))
		}
	}

	viper.SetEnvPrefix("LIBERTAS")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	viper.BindEnv("google_api_key", "LIBERTAS_GOOGLE_API_KEY", "GOOGLE_API_KEY")
	viper.BindEnv("mistral_api_key", "LIBERTAS_MISTRAL_API_KEY", "MISTRAL_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
		}
	}
}

// logger returns the logger attached to the command context.
func logger(cmd *cobra.Command) *zerolog.Logger {
	return zerolog.Ctx(cmd.Context())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
