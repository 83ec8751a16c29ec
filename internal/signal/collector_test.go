package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdlctools/patternhunter/internal/types"
)

type stubReader struct {
	signals []types.Signal
}

func (s *stubReader) Collect(ctx context.Context, windowDays int) []types.Signal {
	return s.signals
}

func TestCollectAllSummarizes(t *testing.T) {
	history := &stubReader{signals: []types.Signal{
		{Kind: types.SignalFixCommit, SourceRef: "c1"},
		{Kind: types.SignalFixCommit, SourceRef: "c2"},
		{Kind: types.SignalRepeatedModification, SourceRef: "f.go"},
	}}
	memory := &stubReader{signals: []types.Signal{
		{Kind: types.SignalRepeatedLearning, SourceRef: "category:anti-patterns"},
	}}
	churn := &stubReader{signals: []types.Signal{
		{Kind: types.SignalHotFile, SourceRef: "hot.go"},
	}}

	c := NewCollector("/repo", history, memory, churn)
	coll := c.CollectAll(context.Background(), 30)

	require.NotNil(t, coll)
	assert.NotEmpty(t, coll.RunID)
	assert.Equal(t, "/repo", coll.RepoPath)
	assert.Equal(t, 30, coll.PeriodDays)

	s := coll.SummaryCounts
	assert.Equal(t, 5, s.TotalSignals)
	assert.Equal(t, 2, s.FixCommits)
	assert.Equal(t, 1, s.RepeatedModifications)
	assert.Equal(t, 1, s.RepeatedLearnings)
	assert.Equal(t, 1, s.HotFiles)
}

func TestCollectAllEmptySources(t *testing.T) {
	c := NewCollector("/repo", &stubReader{}, &stubReader{}, &stubReader{})
	coll := c.CollectAll(context.Background(), 7)
	assert.Equal(t, 0, coll.SummaryCounts.TotalSignals)
	assert.Empty(t, coll.GitSignals)
}
