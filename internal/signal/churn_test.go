package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdlctools/patternhunter/internal/git"
	"github.com/sdlctools/patternhunter/internal/types"
)

func TestChurnCollectScoresAndRanks(t *testing.T) {
	fake := &fakeLog{commits: []git.Commit{
		{Hash: "c1", Date: day(1), Subject: "a", Files: []git.FileStat{
			{Path: "hot.go", Insertions: 10, Deletions: 5},
			{Path: "cold.go", Insertions: 1, Deletions: 0},
		}},
		{Hash: "c2", Date: day(2), Subject: "b", Files: []git.FileStat{
			{Path: "hot.go", Insertions: 20, Deletions: 5},
		}},
	}}
	a := NewChurnAnalyzer(fake, 10)

	signals := a.Collect(context.Background(), 30)
	require.Len(t, signals, 2)

	hot := signals[0]
	assert.Equal(t, types.SignalHotFile, hot.Kind)
	assert.Equal(t, "hot.go", hot.SourceRef)
	assert.Equal(t, 2, hot.CommitCount)
	assert.Equal(t, 40, hot.TotalChanges)
	assert.Equal(t, 80, hot.ChurnScore) // 2 commits × 40 changed lines
	assert.Equal(t, types.StrengthLow, hot.Strength)

	assert.Equal(t, "cold.go", signals[1].SourceRef)
	assert.Equal(t, 1, signals[1].ChurnScore)
}

func TestChurnStrengthThresholds(t *testing.T) {
	mkCommits := func(n int, path string) []git.Commit {
		commits := make([]git.Commit, 0, n)
		for i := 0; i < n; i++ {
			commits = append(commits, git.Commit{
				Hash: "c", Date: day(1), Subject: "x",
				Files: []git.FileStat{{Path: path, Insertions: 1}},
			})
		}
		return commits
	}

	tests := []struct {
		commits int
		want    types.Strength
	}{
		{2, types.StrengthLow},
		{3, types.StrengthMedium},
		{4, types.StrengthMedium},
		{5, types.StrengthHigh},
	}
	for _, tt := range tests {
		a := NewChurnAnalyzer(&fakeLog{commits: mkCommits(tt.commits, "f.go")}, 10)
		signals := a.Collect(context.Background(), 30)
		require.Len(t, signals, 1)
		assert.Equal(t, tt.want, signals[0].Strength, "commits=%d", tt.commits)
	}
}

func TestChurnTopNCut(t *testing.T) {
	var commits []git.Commit
	for _, f := range []string{"a.go", "b.go", "c.go", "d.go"} {
		commits = append(commits, git.Commit{
			Hash: "c", Date: day(1), Subject: "x",
			Files: []git.FileStat{{Path: f, Insertions: 1}},
		})
	}
	a := NewChurnAnalyzer(&fakeLog{commits: commits}, 2)

	signals := a.Collect(context.Background(), 30)
	assert.Len(t, signals, 2)
}

func TestChurnCollectDegradesOnGitFailure(t *testing.T) {
	a := NewChurnAnalyzer(&fakeLog{err: assert.AnError}, 10)
	assert.Nil(t, a.Collect(context.Background(), 30))
}
