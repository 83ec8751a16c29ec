package main

import (
	"github.com/spf13/cobra"
)

var collectDays int

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect pattern signals from git, memory, and code churn",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		a.printer.Header("Collecting Pattern Signals")

		coll, path, err := a.orch.Collect(cmd.Context(), collectDays)
		if err != nil {
			return err
		}
		s := coll.SummaryCounts
		a.printer.Success("Collected %d signals", s.TotalSignals)
		a.printer.Dim("  fix commits: %d", s.FixCommits)
		a.printer.Dim("  repeated modifications: %d", s.RepeatedModifications)
		a.printer.Dim("  repeated learnings: %d", s.RepeatedLearnings)
		a.printer.Dim("  hot files: %d", s.HotFiles)
		if path != "" {
			a.printer.Info("Signals saved to: %s", path)
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectDays, "days", 30, "days of history to analyze")
	rootCmd.AddCommand(collectCmd)
}
