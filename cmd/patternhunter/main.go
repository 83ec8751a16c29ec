// Command patternhunter mines a repository's history for recurring
// engineering anti-patterns and turns them into defeat tests, pre-commit
// hooks, and agent memory learnings.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdlctools/patternhunter/internal/analyzer"
	"github.com/sdlctools/patternhunter/internal/defeat"
	"github.com/sdlctools/patternhunter/internal/git"
	"github.com/sdlctools/patternhunter/internal/hookcfg"
	"github.com/sdlctools/patternhunter/internal/memstore"
	"github.com/sdlctools/patternhunter/internal/oracle"
	"github.com/sdlctools/patternhunter/internal/pipeline"
	"github.com/sdlctools/patternhunter/internal/proposal"
	"github.com/sdlctools/patternhunter/internal/signal"
	"github.com/sdlctools/patternhunter/internal/ui"
)

var (
	flagRepo       string
	flagStateDir   string
	flagMemoryPath string
	flagHookConfig string
	flagTestDir    string
	flagDryRun     bool
	flagAuto       bool
	flagNoColor    bool
	flagOffline    bool
	flagUseSDK     bool
)

var rootCmd = &cobra.Command{
	Use:   "patternhunter",
	Short: "Hunt recurring anti-patterns in repository history",
	Long: `Pattern Hunter mines git history, agent memory, and code churn for
recurring engineering anti-patterns, scores them, synthesizes defeat
tests, and applies the approved remediations to the learnings store and
pre-commit hooks.

Run "patternhunter hunt" for the full workflow, or the individual
collect / analyze / generate / propose / apply stages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagRepo, "repo", ".", "path to the repository to hunt in")
	pf.StringVar(&flagStateDir, "state-dir", "", "state and artifact directory (default <repo>/.patternhunter)")
	pf.StringVar(&flagMemoryPath, "memory-path", "", "learnings store path (default ~/.agent-memory/memories.json)")
	pf.StringVar(&flagHookConfig, "hook-config", "", "pre-commit config path (default <repo>/.pre-commit-config.yaml)")
	pf.StringVar(&flagTestDir, "test-dir", "tests/patterns", "defeat test directory, relative to the repo")
	pf.BoolVar(&flagDryRun, "dry-run", false, "preview every change without modifying files")
	pf.BoolVar(&flagAuto, "auto", false, "auto-approve all prompts")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	pf.BoolVar(&flagOffline, "offline", false, "skip all oracle calls, use built-in fallbacks")
	pf.BoolVar(&flagUseSDK, "use-sdk", false, "call the oracle through the SDK instead of the CLI")
}

// app bundles the wired pipeline for the subcommands.
type app struct {
	orch    *pipeline.Orchestrator
	printer *ui.Printer
}

// buildApp resolves flag defaults and wires every pipeline component.
func buildApp(ctx context.Context) (*app, error) {
	printer := ui.NewPrinter(flagNoColor)

	repo, err := filepath.Abs(flagRepo)
	if err != nil {
		return nil, fmt.Errorf("invalid repo path %q: %w", flagRepo, err)
	}

	stateDir := flagStateDir
	if stateDir == "" {
		stateDir = pipeline.DefaultStateDir(repo)
	}
	memoryPath := flagMemoryPath
	if memoryPath == "" {
		memoryPath, err = memstore.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	hookPath := flagHookConfig
	if hookPath == "" {
		hookPath = filepath.Join(repo, hookcfg.DefaultConfigPath)
	}
	testDir := flagTestDir
	absTestDir := testDir
	if !filepath.IsAbs(absTestDir) {
		absTestDir = filepath.Join(repo, testDir)
	}

	g, err := git.NewGit(ctx, repo)
	if err != nil {
		return nil, err
	}

	caller, err := buildCaller()
	if err != nil {
		return nil, err
	}

	collector := signal.NewCollector(repo,
		signal.NewHistoryAnalyzer(g),
		signal.NewMemoryAnalyzer(memoryPath),
		signal.NewChurnAnalyzer(g, 10),
	)

	var approver pipeline.Approver
	if flagAuto || flagDryRun {
		approver = pipeline.NewAutoApprover(printer)
	} else {
		approver = pipeline.NewInteractiveApprover(printer)
	}

	orch := pipeline.New(pipeline.Config{
		RepoPath: repo,
		StateDir: stateDir,
		TestDir:  testDir,
		Preview:  flagDryRun,

		Collector:   collector,
		Analyzer:    analyzer.New(caller, flagOffline),
		Synthesizer: defeat.NewSynthesizer(caller, absTestDir, flagOffline),
		Composer:    proposal.NewComposer(caller, flagOffline),
		Memory:      memstore.New(memoryPath),
		Hooks:       hookcfg.NewSynchronizer(hookPath, testDir),
		Approver:    approver,
		Printer:     printer,
	})
	return &app{orch: orch, printer: printer}, nil
}

func buildCaller() (*oracle.Caller, error) {
	var client oracle.Client
	switch {
	case flagOffline:
		// Offline components never reach the oracle; the mock keeps the
		// wiring uniform.
		client = oracle.NewMock()
	case flagUseSDK:
		sdk, err := oracle.NewSDKClient(oracle.SDKConfig{})
		if err != nil {
			return nil, err
		}
		client = sdk
	default:
		client = oracle.NewCLIClient("", 0)
	}
	return oracle.NewCaller(client, oracle.DefaultRetryConfig()), nil
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	printer := ui.NewPrinter(flagNoColor)
	if errors.Is(err, pipeline.ErrCancelled) {
		printer.Warning("Interrupted by user")
		os.Exit(130)
	}
	printer.Error("%v", err)
	os.Exit(1)
}
