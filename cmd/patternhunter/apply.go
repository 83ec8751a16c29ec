package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	applyInput     string
	applyCheckOnly bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply approved proposals to hooks and agent memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}

		if applyCheckOnly {
			a.printer.Header("Checking Hook Configuration")
			if a.orch.HooksOutOfDate() {
				a.printer.Error("Update needed")
				return fmt.Errorf("hook config is out of date")
			}
			a.printer.Success("No update needed")
			return nil
		}

		if applyInput == "" {
			return fmt.Errorf("no input file specified, generate proposals first with 'propose'")
		}

		a.printer.Header("Applying Updates")
		set, err := a.orch.LoadProposals(applyInput)
		if err != nil {
			return err
		}
		return a.orch.ApplySet(cmd.Context(), set)
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyInput, "input", "", "proposals artifact to apply")
	applyCmd.Flags().BoolVar(&applyCheckOnly, "check-only", false, "only report whether the hook config needs updating")
	rootCmd.AddCommand(applyCmd)
}
