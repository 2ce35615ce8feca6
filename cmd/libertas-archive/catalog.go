// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [issue ids...]",
	Short: "List the issues in processing order",
	RunE: func(cmd *cobra.Command, args []string) error {
		issues, err := selectIssues(cmd, args)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(issues)
		}

		for _, is := range issues {
			fmt.Fprintf(os.Stdout, "%-20s  %s\n", is.ID, is.SourceURL)
		}
		fmt.Fprintf(os.Stdout, "\n%d issue(s)\n", len(issues))
		return nil
	},
}

func init() {
	catalogCmd.Flags().Bool("json", false, "output as JSON")
	addSelectionFlags(catalogCmd)

	rootCmd.AddCommand(catalogCmd)
}
