package signal

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/sdlctools/patternhunter/internal/types"
)

// ChurnAnalyzer identifies hot files: the files with the highest
// commit-count × changed-lines product over the window.
type ChurnAnalyzer struct {
	git  GitLog
	topN int
	now  func() time.Time
}

// NewChurnAnalyzer creates an analyzer returning at most topN hot files.
func NewChurnAnalyzer(g GitLog, topN int) *ChurnAnalyzer {
	return &ChurnAnalyzer{git: g, topN: topN, now: time.Now}
}

type churnStats struct {
	commitCount int
	insertions  int
	deletions   int
	firstDate   time.Time
}

// Collect aggregates insertions+deletions and commit count per file and
// returns the top-N files by churn score. Strength: high at 5+ commits,
// medium at 3+, else low. A git failure degrades to an empty result.
func (a *ChurnAnalyzer) Collect(ctx context.Context, windowDays int) []types.Signal {
	since := a.now().AddDate(0, 0, -windowDays)
	commits, err := a.git.Log(ctx, since)
	if err != nil {
		slog.Warn("churn collection failed", "error", err)
		return nil
	}

	stats := map[string]*churnStats{}
	order := []string{}
	for _, c := range commits {
		for _, f := range c.Files {
			s, ok := stats[f.Path]
			if !ok {
				s = &churnStats{firstDate: c.Date}
				stats[f.Path] = s
				order = append(order, f.Path)
			}
			s.commitCount++
			s.insertions += f.Insertions
			s.deletions += f.Deletions
		}
	}

	signals := make([]types.Signal, 0, len(order))
	for _, path := range order {
		s := stats[path]
		total := s.insertions + s.deletions
		strength := types.StrengthLow
		switch {
		case s.commitCount >= 5:
			strength = types.StrengthHigh
		case s.commitCount >= 3:
			strength = types.StrengthMedium
		}
		signals = append(signals, types.Signal{
			Kind:         types.SignalHotFile,
			SourceRef:    path,
			Timestamp:    s.firstDate,
			Strength:     strength,
			ChurnScore:   s.commitCount * total,
			CommitCount:  s.commitCount,
			TotalChanges: total,
			Insertions:   s.insertions,
			Deletions:    s.deletions,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].ChurnScore > signals[j].ChurnScore
	})
	if len(signals) > a.topN {
		signals = signals[:a.topN]
	}
	return signals
}
