// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libertas-archive/internal/index"
	"github.com/pdiddy/libertas-archive/internal/layout"
)

// --- index command ---

var indexCmd = &cobra.Command{
	Use:   "index [issue ids...]",
	Short: "Build the full-text index over the produced Markdown",
	Long: `Index reads the summaries and transcriptions in each issue directory
into a SQLite full-text index at <data-dir>/index/archive.db. Unchanged files
are skipped on subsequent runs.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("db", "", "index database path (default <data-dir>/index/archive.db)")
	indexCmd.Flags().String("export", "", "also write the list of indexed documents as YAML to this file")
	addSelectionFlags(indexCmd)
	viper.BindPFlag("index.path", indexCmd.Flags().Lookup("db"))

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	issues, err := selectIssues(cmd, args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	store, err := index.Open(runConfig().Index, dataLayout())
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), issues, os.Stdout)
	if err != nil {
		return err
	}

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		err := layout.WriteFrom(exportPath, func(w io.Writer) error {
			return store.ExportYAML(cmd.Context(), w)
		})
		if err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- search command ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the full-text index",
	Long: `Search runs an SQLite FTS4 query over the indexed summaries and
transcriptions. Terms can be combined with AND, OR and NOT, and quoted for
phrases, e.g. 'Hayek OR Mises' or '"fri handel"'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("db", "", "index database path (default <data-dir>/index/archive.db)")
	searchCmd.Flags().Int("limit", 0, "maximum number of hits (default 20)")
	searchCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := runConfig().Index
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Path = db
	}
	store, err := index.Open(cfg, dataLayout())
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := store.Search(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(os.Stdout, "%s  %s\n    %s\n", h.Issue, h.Path, strings.ReplaceAll(h.Snippet, "\n", " "))
	}
	return nil
}
