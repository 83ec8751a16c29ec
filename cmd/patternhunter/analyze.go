package main

import (
	"github.com/spf13/cobra"
)

var (
	analyzeInput string
	analyzeTopN  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze collected signals into ranked patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		a.printer.Header("Analyzing Patterns")

		coll, err := a.orch.LoadCollection(analyzeInput)
		if err != nil {
			return err
		}
		result, path, err := a.orch.Analyze(cmd.Context(), coll, analyzeTopN)
		if err != nil {
			return err
		}

		a.printer.Success("Identified %d patterns (of %d found)",
			result.Metadata.PatternsReturned, result.Metadata.TotalPatternsFound)
		for _, p := range result.Patterns {
			a.printer.Dim("  %.1f  %s (%s, %s)", p.Score, p.Name, p.Impact, p.Frequency)
		}
		if path != "" {
			a.printer.Info("Patterns saved to: %s", path)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "signals artifact (default: last collection)")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "max patterns to identify")
	rootCmd.AddCommand(analyzeCmd)
}
