package signal

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/sdlctools/patternhunter/internal/git"
	"github.com/sdlctools/patternhunter/internal/types"
)

// fixMarkers are the lexical markers that classify a commit subject as a
// fix. Word-bounded so "prefix" does not count as a fix.
var fixMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfix(ed|es|ing)?\b`),
	regexp.MustCompile(`(?i)\bbug\b`),
	regexp.MustCompile(`(?i)\brepair\b`),
	regexp.MustCompile(`(?i)\bcorrect\b`),
	regexp.MustCompile(`(?i)\bresolve(d|s)?\b`),
	regexp.MustCompile(`(?i)\bhotfix\b`),
	regexp.MustCompile(`(?i)\bpatch\b`),
	regexp.MustCompile(`(?i)\brevert\b`),
	regexp.MustCompile(`(?i)\boops\b`),
	regexp.MustCompile(`(?i)\btypo\b`),
	regexp.MustCompile(`(?i)\bwhoops\b`),
}

// isFixSubject reports whether a commit subject matches any fix marker.
func isFixSubject(subject string) bool {
	for _, re := range fixMarkers {
		if re.MatchString(subject) {
			return true
		}
	}
	return false
}

// GitLog is the slice of the git runner the history readers need.
type GitLog interface {
	Log(ctx context.Context, since time.Time) ([]git.Commit, error)
}

// HistoryAnalyzer extracts fix-commit and repeated-modification signals
// from git history.
type HistoryAnalyzer struct {
	git GitLog
	now func() time.Time
}

// NewHistoryAnalyzer creates an analyzer over the given repository handle.
func NewHistoryAnalyzer(g GitLog) *HistoryAnalyzer {
	return &HistoryAnalyzer{git: g, now: time.Now}
}

// Collect scans commits within the window. Fix signals come first in
// commit order, followed by repeated-modification signals (files touched
// 3+ times across ALL commits in the window, not only fixes) sorted by
// descending touch count. A git failure degrades to an empty result.
func (a *HistoryAnalyzer) Collect(ctx context.Context, windowDays int) []types.Signal {
	since := a.now().AddDate(0, 0, -windowDays)
	commits, err := a.git.Log(ctx, since)
	if err != nil {
		slog.Warn("git history collection failed", "error", err)
		return nil
	}

	var signals []types.Signal
	for _, c := range commits {
		if !isFixSubject(c.Subject) {
			continue
		}
		files := make([]string, 0, len(c.Files))
		for _, f := range c.Files {
			files = append(files, f.Path)
		}
		signals = append(signals, types.Signal{
			Kind:         types.SignalFixCommit,
			SourceRef:    c.Hash,
			Timestamp:    c.Date,
			Author:       c.Author,
			Message:      c.Subject,
			FilesChanged: files,
			Insertions:   c.Insertions(),
			Deletions:    c.Deletions(),
		})
	}

	// Per-file touch counts across the full window.
	touches := map[string][]types.Modification{}
	order := []string{}
	for _, c := range commits {
		for _, f := range c.Files {
			if _, seen := touches[f.Path]; !seen {
				order = append(order, f.Path)
			}
			touches[f.Path] = append(touches[f.Path], types.Modification{
				Hash:    c.Hash,
				Date:    c.Date,
				Message: c.Subject,
			})
		}
	}

	var repeated []types.Signal
	for _, path := range order {
		mods := touches[path]
		if len(mods) < 3 {
			continue
		}
		strength := types.StrengthMedium
		if len(mods) >= 5 {
			strength = types.StrengthHigh
		}
		kept := mods
		if len(kept) > 5 {
			kept = kept[:5]
		}
		repeated = append(repeated, types.Signal{
			Kind:              types.SignalRepeatedModification,
			SourceRef:         path,
			Timestamp:         mods[0].Date,
			Strength:          strength,
			ModificationCount: len(mods),
			Modifications:     kept,
		})
	}
	sort.SliceStable(repeated, func(i, j int) bool {
		return repeated[i].ModificationCount > repeated[j].ModificationCount
	})

	return append(signals, repeated...)
}
