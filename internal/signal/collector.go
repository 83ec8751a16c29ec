// Package signal extracts normalized pattern signals from three evidence
// sources: git history, the persisted agent learnings store, and code
// churn statistics. Each analyzer reads external state and writes nothing;
// any external failure degrades to an empty slice so one dead source never
// aborts a collection run.
package signal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sdlctools/patternhunter/internal/types"
)

// Summary counts signals per class for the operator-facing report.
type Summary struct {
	TotalSignals          int `json:"total_signals"`
	FixCommits            int `json:"fix_commits"`
	RepeatedModifications int `json:"repeated_modifications"`
	RepeatedLearnings     int `json:"repeated_learnings"`
	HotFiles              int `json:"hot_files"`
}

// Collection is the artifact produced by one collection run. It is the
// only place signals are persisted; they never outlive the artifact.
type Collection struct {
	RunID         string         `json:"run_id"`
	Timestamp     time.Time      `json:"timestamp"`
	RepoPath      string         `json:"repo_path"`
	PeriodDays    int            `json:"collection_period_days"`
	GitSignals    []types.Signal `json:"git_signals"`
	MemorySignals []types.Signal `json:"memory_signals"`
	ChurnSignals  []types.Signal `json:"churn_signals"`
	SummaryCounts Summary        `json:"summary"`
}

// Reader is one signal source.
type Reader interface {
	Collect(ctx context.Context, windowDays int) []types.Signal
}

// Collector aggregates the three readers into a Collection artifact.
type Collector struct {
	repoPath string
	history  Reader
	memory   Reader
	churn    Reader
}

// NewCollector wires the three standard readers for a repository.
func NewCollector(repoPath string, history, memory, churn Reader) *Collector {
	return &Collector{repoPath: repoPath, history: history, memory: memory, churn: churn}
}

// CollectAll runs the readers sequentially and assembles the artifact.
func (c *Collector) CollectAll(ctx context.Context, windowDays int) *Collection {
	gitSignals := c.history.Collect(ctx, windowDays)
	memorySignals := c.memory.Collect(ctx, windowDays)
	churnSignals := c.churn.Collect(ctx, windowDays)

	summary := Summary{
		RepeatedLearnings: len(memorySignals),
		HotFiles:          len(churnSignals),
	}
	for _, s := range gitSignals {
		switch s.Kind {
		case types.SignalFixCommit:
			summary.FixCommits++
		case types.SignalRepeatedModification:
			summary.RepeatedModifications++
		}
	}
	summary.TotalSignals = len(gitSignals) + len(memorySignals) + len(churnSignals)

	return &Collection{
		RunID:         uuid.NewString(),
		Timestamp:     time.Now(),
		RepoPath:      c.repoPath,
		PeriodDays:    windowDays,
		GitSignals:    gitSignals,
		MemorySignals: memorySignals,
		ChurnSignals:  churnSignals,
		SummaryCounts: summary,
	}
}
