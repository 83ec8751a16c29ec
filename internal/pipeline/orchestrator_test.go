package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdlctools/patternhunter/internal/analyzer"
	"github.com/sdlctools/patternhunter/internal/defeat"
	"github.com/sdlctools/patternhunter/internal/hookcfg"
	"github.com/sdlctools/patternhunter/internal/memstore"
	"github.com/sdlctools/patternhunter/internal/proposal"
	"github.com/sdlctools/patternhunter/internal/signal"
	"github.com/sdlctools/patternhunter/internal/types"
	"github.com/sdlctools/patternhunter/internal/ui"
)

type stubReader struct {
	signals []types.Signal
}

func (s *stubReader) Collect(ctx context.Context, windowDays int) []types.Signal {
	return s.signals
}

// fakeApprover plays back scripted answers, falling back to the default
// once the script runs out.
type fakeApprover struct {
	answers   []bool
	err       error
	questions []string
}

func (f *fakeApprover) Confirm(question string, def bool) (bool, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return false, f.err
	}
	if len(f.answers) == 0 {
		return def, nil
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

func bufferPrinter() *ui.Printer {
	p := ui.NewPrinter(true)
	p.Out = &bytes.Buffer{}
	p.Err = &bytes.Buffer{}
	return p
}

// testOrchestrator wires an orchestrator against temp dirs with all oracle
// stages in offline mode.
func testOrchestrator(t *testing.T, preview bool, approver Approver) (*Orchestrator, Config) {
	t.Helper()
	root := t.TempDir()
	stateDir := filepath.Join(root, ".patternhunter")
	testDir := filepath.Join(root, "tests", "patterns")

	reader := &stubReader{signals: []types.Signal{
		{Kind: types.SignalFixCommit, SourceRef: "abc123", Message: "fix: crash"},
	}}
	cfg := Config{
		RepoPath:    root,
		StateDir:    stateDir,
		TestDir:     testDir,
		Preview:     preview,
		Collector:   signal.NewCollector(root, reader, &stubReader{}, &stubReader{}),
		Analyzer:    analyzer.New(nil, true),
		Synthesizer: defeat.NewSynthesizer(nil, testDir, true),
		Composer:    proposal.NewComposer(nil, true),
		Memory:      memstore.New(filepath.Join(root, "memories.json")),
		Hooks:       hookcfg.NewSynchronizer(filepath.Join(root, ".pre-commit-config.yaml"), "tests/patterns"),
		Approver:    approver,
		Printer:     bufferPrinter(),
	}
	return New(cfg), cfg
}

func TestFilterPatterns(t *testing.T) {
	patterns := []types.Pattern{
		{Name: "Silent Fallback Pattern"},
		{Name: "Missing Error Context"},
		{Name: "Copy-Paste Drift"},
	}
	tests := []struct {
		name   string
		filter string
		want   int
	}{
		{"empty filter keeps all", "", 3},
		{"case insensitive match", "SILENT", 1},
		{"substring match", "err", 1},
		{"no match", "zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, FilterPatterns(patterns, tt.filter), tt.want)
		})
	}
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StageAnalyze, Err: ErrCancelled}
	assert.Contains(t, err.Error(), "stage analyze failed")
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCollectWritesArtifactAndState(t *testing.T) {
	o, cfg := testOrchestrator(t, false, &fakeApprover{})

	coll, path, err := o.Collect(context.Background(), 30)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, 1, coll.SummaryCounts.FixCommits)

	// The artifact round-trips and the reference survives a reload from
	// disk.
	loaded, err := o.LoadCollection("")
	require.NoError(t, err)
	assert.Equal(t, coll.RunID, loaded.RunID)
	assert.Equal(t, path, LoadState(cfg.StateDir).LastCollectionRef)
}

func TestCollectPreviewWritesNothing(t *testing.T) {
	o, cfg := testOrchestrator(t, true, &fakeApprover{})

	_, path, err := o.Collect(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, statErr := os.Stat(cfg.StateDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReviewPatterns(t *testing.T) {
	approver := &fakeApprover{answers: []bool{true, false}}
	o, _ := testOrchestrator(t, false, approver)

	patterns := []types.Pattern{
		{Name: "Keep Me", Score: 9},
		{Name: "Skip Me", Score: 4},
	}
	selected, err := o.ReviewPatterns(patterns)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "Keep Me", selected[0].Name)
	assert.Equal(t, []string{"Keep Me", "Skip Me"}, o.State().PendingPatterns)
	assert.Equal(t, []string{"Keep Me"}, o.State().ApprovedPatterns)
}

func TestReviewPatternsCancelled(t *testing.T) {
	o, _ := testOrchestrator(t, false, &fakeApprover{err: ErrCancelled})

	_, err := o.ReviewPatterns([]types.Pattern{{Name: "X"}})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestProposeAndLoadProposals(t *testing.T) {
	o, _ := testOrchestrator(t, false, &fakeApprover{})

	set, path, err := o.Propose(context.Background(), []types.Pattern{
		{Name: "Silent Fallback Pattern", Description: "d", Score: 9},
	})
	require.NoError(t, err)
	require.NotEmpty(t, path)

	loaded, err := o.LoadProposals(path)
	require.NoError(t, err)
	require.Len(t, loaded.Proposals, 1)
	assert.Equal(t, set.Proposals[0].PatternName, loaded.Proposals[0].PatternName)

	// The reviewable markdown lands next to the JSON artifact.
	mdPath := path[:len(path)-len(".json")] + ".md"
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Pattern Proposals")
}

func TestHuntOffline(t *testing.T) {
	approver := &fakeApprover{}
	o, cfg := testOrchestrator(t, false, approver)

	require.NoError(t, o.Hunt(context.Background(), 30, 10))

	// Offline analysis yields three patterns, all auto-approved, so three
	// defeat tests land in the test directory.
	entries, err := os.ReadDir(cfg.TestDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Hook config was created with the defeat-test entry.
	assert.False(t, cfg.Hooks.CheckOnly())

	// All three learnings were added to the memory store.
	stored, err := cfg.Memory.Load()
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	state := LoadState(cfg.StateDir)
	assert.NotEmpty(t, state.LastRun)
	assert.Len(t, state.ApprovedPatterns, 3)

	artifacts, err := filepath.Glob(filepath.Join(cfg.StateDir, "signals-*.json"))
	require.NoError(t, err)
	assert.Len(t, artifacts, 1)
}

func TestHuntPreviewTouchesNothing(t *testing.T) {
	o, cfg := testOrchestrator(t, true, &fakeApprover{})

	require.NoError(t, o.Hunt(context.Background(), 30, 10))

	_, err := os.Stat(cfg.StateDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.TestDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(cfg.RepoPath, ".pre-commit-config.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.Memory.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestHuntCancelledDuringReview(t *testing.T) {
	o, _ := testOrchestrator(t, false, &fakeApprover{err: ErrCancelled})

	err := o.Hunt(context.Background(), 30, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageReview, stageErr.Stage)
}

func TestApplySetDeclinedGates(t *testing.T) {
	approver := &fakeApprover{answers: []bool{false, false}}
	o, cfg := testOrchestrator(t, false, approver)

	set := placeholderProposals(o.now())
	require.NoError(t, o.ApplySet(context.Background(), set))

	// Both gates declined: no hook config, no memory store.
	_, err := os.Stat(filepath.Join(cfg.RepoPath, ".pre-commit-config.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.Memory.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestApplySetSurfacesMemoryErrors(t *testing.T) {
	o, cfg := testOrchestrator(t, false, &fakeApprover{})
	require.NoError(t, os.WriteFile(cfg.Memory.Path(), []byte("{corrupt"), 0o644))

	err := o.ApplySet(context.Background(), placeholderProposals(o.now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory update finished with 1 errors")
}

func TestAutoApprover(t *testing.T) {
	a := NewAutoApprover(bufferPrinter())

	ok, err := a.Confirm("Proceed?", true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Confirm("Proceed?", false)
	require.NoError(t, err)
	assert.False(t, ok)
}
