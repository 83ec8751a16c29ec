package main

import (
	"github.com/spf13/cobra"
)

var proposeInput string

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Compose agent update proposals for identified patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		a.printer.Header("Generating Agent Updates")

		patterns, err := a.orch.LoadPatterns(proposeInput)
		if err != nil {
			return err
		}
		if len(patterns) == 0 {
			a.printer.Warning("No patterns to propose updates for")
			return nil
		}

		set, path, err := a.orch.Propose(cmd.Context(), patterns)
		if err != nil {
			return err
		}
		a.printer.Success("Generated %d proposals", len(set.Proposals))
		for _, p := range set.Proposals {
			a.printer.Dim("  %s: %s", p.Agent, p.PatternName)
		}
		if path != "" {
			a.printer.Info("Proposals saved to: %s", path)
		}
		return nil
	},
}

func init() {
	proposeCmd.Flags().StringVar(&proposeInput, "input", "", "patterns artifact (default: last analysis)")
	rootCmd.AddCommand(proposeCmd)
}
