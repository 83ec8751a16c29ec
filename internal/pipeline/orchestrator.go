// Package pipeline sequences the pattern hunting workflow: collect signals,
// analyze them into ranked patterns, gate them through operator review,
// synthesize defeat tests, compose remediation proposals, and apply the
// approved updates. Durable state and run artifacts live in the state
// directory so individual stages can resume from a previous run.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sdlctools/patternhunter/internal/analyzer"
	"github.com/sdlctools/patternhunter/internal/defeat"
	"github.com/sdlctools/patternhunter/internal/hookcfg"
	"github.com/sdlctools/patternhunter/internal/memstore"
	"github.com/sdlctools/patternhunter/internal/proposal"
	"github.com/sdlctools/patternhunter/internal/signal"
	"github.com/sdlctools/patternhunter/internal/types"
	"github.com/sdlctools/patternhunter/internal/ui"
)

// Stage names the workflow phases for failure reporting.
type Stage string

const (
	StageCollect     Stage = "collect"
	StageAnalyze     Stage = "analyze"
	StageReview      Stage = "review"
	StageGenerate    Stage = "generate"
	StagePropose     Stage = "propose"
	StageReviewApply Stage = "review-apply"
	StageApply       Stage = "apply"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Config wires the orchestrator's collaborators. All fields are required
// except Preview.
type Config struct {
	RepoPath string
	StateDir string
	TestDir  string
	Preview  bool

	Collector   *signal.Collector
	Analyzer    *analyzer.Analyzer
	Synthesizer *defeat.Synthesizer
	Composer    *proposal.Composer
	Memory      *memstore.Store
	Hooks       *hookcfg.Synchronizer
	Approver    Approver
	Printer     *ui.Printer
}

// Orchestrator runs pipeline stages and owns the durable state.
type Orchestrator struct {
	cfg   Config
	state *types.PipelineState
	now   func() time.Time
}

// New creates an orchestrator, loading any state from previous runs.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		state: LoadState(cfg.StateDir),
		now:   time.Now,
	}
}

// State exposes the loaded pipeline state for reporting.
func (o *Orchestrator) State() *types.PipelineState { return o.state }

func (o *Orchestrator) artifactPath(prefix string) string {
	return filepath.Join(o.cfg.StateDir, fmt.Sprintf("%s-%s.json", prefix, o.now().Format("20060102-150405")))
}

func (o *Orchestrator) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return nil
}

func (o *Orchestrator) saveState() {
	if err := SaveState(o.cfg.StateDir, o.state); err != nil {
		o.cfg.Printer.Warning("Failed to save state: %v", err)
	}
}

// Collect runs all signal readers and persists the collection artifact,
// returning the collection and its path. Preview mode collects but writes
// nothing.
func (o *Orchestrator) Collect(ctx context.Context, days int) (*signal.Collection, string, error) {
	coll := o.cfg.Collector.CollectAll(ctx, days)
	if o.cfg.Preview {
		o.cfg.Printer.Dim("Preview: collection artifact not written")
		return coll, "", nil
	}
	path := o.artifactPath("signals")
	if err := o.writeJSON(path, coll); err != nil {
		return nil, "", err
	}
	o.state.LastCollectionRef = path
	o.saveState()
	return coll, path, nil
}

// LoadCollection reads a collection artifact. An empty path resumes from
// the last recorded collection.
func (o *Orchestrator) LoadCollection(path string) (*signal.Collection, error) {
	if path == "" {
		path = o.state.LastCollectionRef
	}
	if path == "" {
		return nil, fmt.Errorf("no collection artifact given and no previous collection recorded")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", path, err)
	}
	var coll signal.Collection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, fmt.Errorf("invalid collection artifact %s: %w", path, err)
	}
	return &coll, nil
}

// Analyze scores a collection into ranked patterns and persists the
// analysis artifact.
func (o *Orchestrator) Analyze(ctx context.Context, coll *signal.Collection, topN int) (*analyzer.Result, string, error) {
	result, err := o.cfg.Analyzer.Analyze(ctx, coll, topN)
	if err != nil {
		return nil, "", err
	}
	if o.cfg.Preview {
		o.cfg.Printer.Dim("Preview: analysis artifact not written")
		return result, "", nil
	}
	path := o.artifactPath("patterns")
	if err := o.writeJSON(path, result); err != nil {
		return nil, "", err
	}
	o.state.LastAnalysisRef = path
	o.saveState()
	return result, path, nil
}

// LoadPatterns reads the pattern list from an analysis artifact. An empty
// path resumes from the last recorded analysis.
func (o *Orchestrator) LoadPatterns(path string) ([]types.Pattern, error) {
	if path == "" {
		path = o.state.LastAnalysisRef
	}
	if path == "" {
		return nil, fmt.Errorf("no analysis artifact given and no previous analysis recorded")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis %s: %w", path, err)
	}
	var result analyzer.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid analysis artifact %s: %w", path, err)
	}
	return result.Patterns, nil
}

// FilterPatterns keeps patterns whose name contains the filter,
// case-insensitively. An empty filter keeps everything.
func FilterPatterns(patterns []types.Pattern, filter string) []types.Pattern {
	if filter == "" {
		return patterns
	}
	needle := strings.ToLower(filter)
	var kept []types.Pattern
	for _, p := range patterns {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			kept = append(kept, p)
		}
	}
	return kept
}

// ReviewPatterns walks the operator through each pattern and returns the
// approved subset. The pending and approved names are recorded in state.
func (o *Orchestrator) ReviewPatterns(patterns []types.Pattern) ([]types.Pattern, error) {
	p := o.cfg.Printer

	o.state.PendingPatterns = patternNames(patterns)
	var selected []types.Pattern
	for i, pat := range patterns {
		fmt.Fprintln(p.Out)
		p.Info("Pattern %d/%d: %s (score %.1f)", i+1, len(patterns), pat.Name, pat.Score)
		p.Dim("Description: %s", pat.Description)
		p.Dim("Frequency: %s  Impact: %s", pat.Frequency, pat.Impact)
		if len(pat.Evidence) > 0 {
			p.Dim("Evidence:")
			for j, e := range pat.Evidence {
				if j == 3 {
					p.Dim("  ... and %d more", len(pat.Evidence)-3)
					break
				}
				p.Dim("  - %s", e)
			}
		}

		ok, err := o.cfg.Approver.Confirm("Process this pattern?", true)
		if err != nil {
			return nil, err
		}
		if ok {
			selected = append(selected, pat)
			p.Success("Pattern added to queue")
		} else {
			p.Dim("Pattern skipped")
		}
	}
	o.state.ApprovedPatterns = patternNames(selected)
	if !o.cfg.Preview {
		o.saveState()
	}
	return selected, nil
}

func patternNames(patterns []types.Pattern) []string {
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		names = append(names, p.Name)
	}
	return names
}

// Generate synthesizes defeat tests for the patterns and writes the valid
// ones, reporting per-pattern outcomes. Preview mode synthesizes and
// validates but writes nothing.
func (o *Orchestrator) Generate(ctx context.Context, patterns []types.Pattern) ([]defeat.Generation, []string, error) {
	p := o.cfg.Printer
	gens := o.cfg.Synthesizer.GenerateAll(ctx, patterns)

	for _, g := range gens {
		switch {
		case g.IsValid && g.FromOracle:
			p.Success("%s: generated", g.Filename)
		case g.IsValid:
			p.Success("%s: generated (template)", g.Filename)
		default:
			p.Warning("%s: invalid code, not written (%s)", g.Filename, g.Error)
		}
	}

	if o.cfg.Preview {
		p.Dim("Preview: defeat tests not written to %s", o.cfg.TestDir)
		return gens, nil, nil
	}
	written, err := o.cfg.Synthesizer.WriteAll(gens)
	if err != nil {
		return gens, written, err
	}
	return gens, written, nil
}

// Propose composes remediation proposals and persists the proposal set as
// JSON plus the reviewable markdown document.
func (o *Orchestrator) Propose(ctx context.Context, patterns []types.Pattern) (*proposal.Set, string, error) {
	set := o.cfg.Composer.ProposeAll(ctx, patterns)
	if o.cfg.Preview {
		o.cfg.Printer.Dim("Preview: proposal artifacts not written")
		return set, "", nil
	}
	path := o.artifactPath("proposals")
	if err := o.writeJSON(path, set); err != nil {
		return nil, "", err
	}
	mdPath := strings.TrimSuffix(path, ".json") + ".md"
	if err := os.WriteFile(mdPath, []byte(set.Markdown), 0o644); err != nil {
		return nil, "", fmt.Errorf("failed to write proposal document %s: %w", mdPath, err)
	}
	return set, path, nil
}

// LoadProposals reads a proposal set artifact.
func (o *Orchestrator) LoadProposals(path string) (*proposal.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proposals %s: %w", path, err)
	}
	var set proposal.Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("invalid proposal artifact %s: %w", path, err)
	}
	return &set, nil
}

// ApplySet reviews a proposal set with the operator and applies the
// approved updates: the pre-commit hook entry and the memory learnings.
// Preview mode computes both updates without touching disk.
func (o *Orchestrator) ApplySet(ctx context.Context, set *proposal.Set) error {
	p := o.cfg.Printer

	if len(set.Proposals) == 0 {
		p.Warning("No proposals generated")
		return nil
	}

	p.Info("Proposed updates:")
	for _, prop := range set.Proposals {
		p.Dim("  - %s: %s", prop.Agent, prop.PatternName)
	}
	counts := proposal.AgentCounts(set.Proposals)
	agents := make([]string, 0, len(counts))
	for agent := range counts {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	p.Info("Proposals by agent:")
	for _, agent := range agents {
		p.Dim("  %s: %d", agent, counts[agent])
	}

	ok, err := o.cfg.Approver.Confirm("Update pre-commit hooks with defeat tests?", true)
	if err != nil {
		return err
	}
	if ok {
		changed, err := o.cfg.Hooks.Sync(o.cfg.Preview)
		if err != nil {
			return fmt.Errorf("pre-commit update failed: %w", err)
		}
		switch {
		case changed && o.cfg.Preview:
			p.Info("Pre-commit config would be updated")
		case changed:
			p.Success("Pre-commit hooks updated")
		default:
			p.Info("Pre-commit hooks already up to date")
		}
	}

	ok, err = o.cfg.Approver.Confirm("Update agent memory with learnings?", true)
	if err != nil {
		return err
	}
	if ok {
		result := o.cfg.Memory.Apply(set.Proposals, o.cfg.Preview)
		p.Info("Memory update: %d added, %d skipped, %d errors",
			len(result.Added), len(result.Skipped), len(result.Errors))
		for _, item := range result.Added {
			p.Dim("  + %s (memory #%d, agent %s)", item.PatternName, item.MemoryID, item.Agent)
		}
		for _, item := range result.Skipped {
			p.Dim("  = %s (exists as #%d)", item.PatternName, item.ExistingID)
		}
		for _, item := range result.Errors {
			p.Error("  %s: %s", item.PatternName, item.Error)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("memory update finished with %d errors", len(result.Errors))
		}
	}
	return nil
}

// HooksOutOfDate reports whether the pre-commit config is missing the
// current defeat-test hook entry, touching nothing.
func (o *Orchestrator) HooksOutOfDate() bool {
	return o.cfg.Hooks.CheckOnly()
}

// Hunt runs the complete workflow end to end. A stage failure halts the
// run with a StageError naming the stage; operator cancellation surfaces
// as ErrCancelled with state intact as of the last completed stage.
func (o *Orchestrator) Hunt(ctx context.Context, days, topN int) error {
	p := o.cfg.Printer

	p.Header("PATTERN HUNT - Full Workflow")
	if o.cfg.Preview {
		p.Warning("PREVIEW MODE - No files will be modified")
	}

	p.Subheader("Step 1: Collecting Signals")
	coll, _, err := o.Collect(ctx, days)
	if err != nil {
		return &StageError{Stage: StageCollect, Err: err}
	}
	s := coll.SummaryCounts
	p.Success("Collected %d signals (%d fix commits, %d repeated modifications, %d learnings, %d hot files)",
		s.TotalSignals, s.FixCommits, s.RepeatedModifications, s.RepeatedLearnings, s.HotFiles)

	p.Subheader("Step 2: Analyzing Patterns")
	var patterns []types.Pattern
	if o.cfg.Preview {
		p.Info("Preview mode: using placeholder patterns")
		patterns = placeholderPatterns()
	} else {
		result, _, err := o.Analyze(ctx, coll, topN)
		if err != nil {
			return &StageError{Stage: StageAnalyze, Err: err}
		}
		patterns = result.Patterns
	}
	if len(patterns) == 0 {
		p.Warning("No patterns identified. Hunt complete.")
		return nil
	}

	p.Subheader("Step 3: Pattern Review")
	p.Info("Found %d patterns", len(patterns))
	selected, err := o.ReviewPatterns(patterns)
	if err != nil {
		return &StageError{Stage: StageReview, Err: err}
	}
	if len(selected) == 0 {
		p.Warning("No patterns selected for processing")
		return nil
	}

	p.Subheader("Step 4: Generating Defeat Tests")
	if _, _, err := o.Generate(ctx, selected); err != nil {
		return &StageError{Stage: StageGenerate, Err: err}
	}

	p.Subheader("Step 5: Generating Agent Updates")
	var set *proposal.Set
	if o.cfg.Preview {
		p.Info("Preview mode: using placeholder proposals")
		set = placeholderProposals(o.now())
	} else {
		set, _, err = o.Propose(ctx, selected)
		if err != nil {
			return &StageError{Stage: StagePropose, Err: err}
		}
	}

	p.Subheader("Step 6: Review & Apply Updates")
	if err := o.ApplySet(ctx, set); err != nil {
		if errors.Is(err, ErrCancelled) {
			return &StageError{Stage: StageReviewApply, Err: err}
		}
		return &StageError{Stage: StageApply, Err: err}
	}

	p.Header("Pattern Hunt Complete")
	p.Success("Processed %d patterns", len(selected))
	p.Info("Results saved in: %s", o.cfg.StateDir)

	o.state.LastRun = o.now().Format(time.RFC3339)
	if !o.cfg.Preview {
		o.saveState()
	}
	return nil
}

// placeholderPatterns stands in for analysis output when preview mode
// suppresses the oracle stage.
func placeholderPatterns() []types.Pattern {
	return []types.Pattern{
		{
			Name:        "Sample Pattern",
			Description: "Representative pattern substituted in preview mode",
			Evidence:    []string{"internal/example/a.go", "internal/example/b.go"},
			Frequency:   types.FreqWeekly,
			Impact:      types.ImpactHigh,
			RootCause:   "Placeholder root cause",
			Score:       9,
		},
	}
}

// placeholderProposals stands in for the proposal stage in preview mode.
func placeholderProposals(now time.Time) *proposal.Set {
	patterns := placeholderPatterns()
	proposals := []types.Proposal{
		{
			Agent:         "Dev",
			PatternName:   patterns[0].Name,
			PatternScore:  patterns[0].Score,
			NonNegotiable: "- [ ] NEVER ship the sample pattern",
			Discipline:    "Always validate before using",
			Memory:        "Learned: placeholder proposals stand in during preview",
			MemoryTags:    []string{"anti-patterns", "preview"},
		},
	}
	return &proposal.Set{
		Timestamp: now,
		Proposals: proposals,
		Markdown:  proposal.Render(patterns, proposals, now),
	}
}
