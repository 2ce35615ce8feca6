// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/libertas-archive/internal/layout"
)

var statusCmd = &cobra.Command{
	Use:   "status [issue ids...]",
	Short: "Show which artifacts exist for each issue",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("incomplete", false, "list only issues with missing artifacts")
	addSelectionFlags(statusCmd)

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	issues, err := selectIssues(cmd, args)
	if err != nil {
		return err
	}
	incomplete, _ := cmd.Flags().GetBool("incomplete")
	l := dataLayout()

	fmt.Fprintf(os.Stdout, "%-20s", "Issue")
	for _, a := range layout.Artifacts {
		fmt.Fprintf(os.Stdout, "  %-16s", a.Name())
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 20+18*len(layout.Artifacts)))

	complete := 0
	for _, is := range issues {
		inv := l.Inventory(is)
		missing := false
		for _, a := range layout.Artifacts {
			if inv[a] == layout.Missing {
				missing = true
			}
		}
		if !missing {
			complete++
			if incomplete {
				continue
			}
		}
		fmt.Fprintf(os.Stdout, "%-20s", is.ID)
		for _, a := range layout.Artifacts {
			fmt.Fprintf(os.Stdout, "  %-16s", inv[a])
		}
		fmt.Fprintln(os.Stdout)
	}
	fmt.Fprintf(os.Stdout, "\n%d of %d issue(s) complete\n", complete, len(issues))
	return nil
}
