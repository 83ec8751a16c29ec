package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdlctools/patternhunter/internal/defeat"
	"github.com/sdlctools/patternhunter/internal/pipeline"
)

var (
	generateInput        string
	generatePattern      string
	generateValidateOnly bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate defeat tests for identified patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}

		if generateValidateOnly {
			a.printer.Header("Validating Defeat Tests")
			dir := flagTestDir
			if !filepath.IsAbs(dir) {
				repo, _ := filepath.Abs(flagRepo)
				dir = filepath.Join(repo, dir)
			}
			invalid, err := defeat.ValidateDir(dir)
			if err != nil {
				return err
			}
			if len(invalid) > 0 {
				for _, path := range invalid {
					a.printer.Error("%s: does not parse", path)
				}
				return fmt.Errorf("%d defeat tests failed validation", len(invalid))
			}
			a.printer.Success("All defeat tests in %s parse", dir)
			return nil
		}

		a.printer.Header("Generating Defeat Tests")

		patterns, err := a.orch.LoadPatterns(generateInput)
		if err != nil {
			return err
		}
		patterns = pipeline.FilterPatterns(patterns, generatePattern)
		if len(patterns) == 0 {
			if generatePattern != "" {
				return fmt.Errorf("no patterns matching %q found", generatePattern)
			}
			a.printer.Warning("No patterns to generate tests for")
			return nil
		}

		_, written, err := a.orch.Generate(cmd.Context(), patterns)
		if err != nil {
			return err
		}
		if len(written) > 0 {
			a.printer.Success("Wrote %d defeat tests", len(written))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateInput, "input", "", "patterns artifact (default: last analysis)")
	generateCmd.Flags().StringVar(&generatePattern, "pattern", "", "only generate for patterns whose name contains this")
	generateCmd.Flags().BoolVar(&generateValidateOnly, "validate-only", false, "re-validate existing defeat tests instead of generating")
	rootCmd.AddCommand(generateCmd)
}
