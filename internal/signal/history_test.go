package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdlctools/patternhunter/internal/git"
	"github.com/sdlctools/patternhunter/internal/types"
)

type fakeLog struct {
	commits []git.Commit
	err     error
}

func (f *fakeLog) Log(ctx context.Context, since time.Time) ([]git.Commit, error) {
	return f.commits, f.err
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC)
}

func commit(hash, subject string, d int, paths ...string) git.Commit {
	c := git.Commit{Hash: hash, Date: day(d), Author: "Ana", Subject: subject}
	for _, p := range paths {
		c.Files = append(c.Files, git.FileStat{Path: p, Insertions: 4, Deletions: 2})
	}
	return c
}

func TestIsFixSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    bool
	}{
		{"Fix payment validation", true},
		{"fixed the race", true},
		{"Fixes #42", true},
		{"hotfix for prod", true},
		{"Revert broken migration", true},
		{"typo in docs", true},
		{"Resolve flaky test", true},
		{"prefix cleanup", false},
		{"Add bugle feature", false},
		{"add export command", false},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, isFixSubject(tt.subject))
		})
	}
}

func TestHistoryCollectFixSignals(t *testing.T) {
	fake := &fakeLog{commits: []git.Commit{
		commit("c1", "Fix charge rounding", 1, "internal/payments/charge.go"),
		commit("c2", "add export", 2, "cmd/export.go"),
		commit("c3", "fix export encoding bug", 3, "cmd/export.go"),
	}}
	a := NewHistoryAnalyzer(fake)

	signals := a.Collect(context.Background(), 30)

	var fixes []types.Signal
	for _, s := range signals {
		if s.Kind == types.SignalFixCommit {
			fixes = append(fixes, s)
		}
	}
	require.Len(t, fixes, 2)
	assert.Equal(t, "c1", fixes[0].SourceRef)
	assert.Equal(t, "c3", fixes[1].SourceRef)
	assert.Equal(t, "Ana", fixes[0].Author)
	assert.Equal(t, 4, fixes[0].Insertions)
	assert.Equal(t, 2, fixes[0].Deletions)
	assert.Equal(t, []string{"internal/payments/charge.go"}, fixes[0].FilesChanged)
}

func TestHistoryCollectRepeatedModifications(t *testing.T) {
	// One file touched five times, one three times, one twice. Only the
	// non-fix subjects keep the fix list empty so ordering is easy to see.
	fake := &fakeLog{commits: []git.Commit{
		commit("c1", "add charge", 1, "charge.go", "util.go"),
		commit("c2", "extend charge", 2, "charge.go"),
		commit("c3", "tune charge", 3, "charge.go", "util.go"),
		commit("c4", "refactor charge", 4, "charge.go", "util.go"),
		commit("c5", "harden charge", 5, "charge.go", "other.go"),
		commit("c6", "touch other", 6, "other.go"),
	}}
	a := NewHistoryAnalyzer(fake)

	signals := a.Collect(context.Background(), 30)
	require.Len(t, signals, 2)

	first := signals[0]
	assert.Equal(t, types.SignalRepeatedModification, first.Kind)
	assert.Equal(t, "charge.go", first.SourceRef)
	assert.Equal(t, 5, first.ModificationCount)
	assert.Equal(t, types.StrengthHigh, first.Strength)
	assert.Len(t, first.Modifications, 5)

	second := signals[1]
	assert.Equal(t, "util.go", second.SourceRef)
	assert.Equal(t, 3, second.ModificationCount)
	assert.Equal(t, types.StrengthMedium, second.Strength)
}

func TestHistoryCollectKeepsFirstFiveModifications(t *testing.T) {
	commits := make([]git.Commit, 0, 7)
	for i := 1; i <= 7; i++ {
		commits = append(commits, commit("c"+string(rune('0'+i)), "touch", i, "hot.go"))
	}
	a := NewHistoryAnalyzer(&fakeLog{commits: commits})

	signals := a.Collect(context.Background(), 30)
	require.Len(t, signals, 1)
	assert.Equal(t, 7, signals[0].ModificationCount)
	require.Len(t, signals[0].Modifications, 5)
	assert.Equal(t, "c1", signals[0].Modifications[0].Hash)
	assert.Equal(t, "c5", signals[0].Modifications[4].Hash)
}

func TestHistoryCollectDegradesOnGitFailure(t *testing.T) {
	a := NewHistoryAnalyzer(&fakeLog{err: assert.AnError})
	assert.Nil(t, a.Collect(context.Background(), 30))
}
