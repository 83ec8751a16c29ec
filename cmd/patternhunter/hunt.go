package main

import (
	"github.com/spf13/cobra"
)

var (
	huntDays int
	huntTopN int
)

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Run the full pattern hunting workflow",
	Long: `Run every stage in sequence: collect signals, analyze them into
ranked patterns, review each pattern, generate defeat tests, compose
agent updates, and apply the approved changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		return a.orch.Hunt(cmd.Context(), huntDays, huntTopN)
	},
}

func init() {
	huntCmd.Flags().IntVar(&huntDays, "days", 30, "days of history to analyze")
	huntCmd.Flags().IntVar(&huntTopN, "top-n", 10, "max patterns to identify")
	rootCmd.AddCommand(huntCmd)
}
