// Package analyzer turns collected signals into ranked anti-pattern
// candidates. The oracle proposes patterns; scoring and ranking stay local
// and deterministic so identical classifications always produce identical
// rankings regardless of oracle wording.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sdlctools/patternhunter/internal/oracle"
	"github.com/sdlctools/patternhunter/internal/signal"
	"github.com/sdlctools/patternhunter/internal/types"
)

// Digest caps: per-category signal counts included in the prompt so it
// cannot grow without bound.
const (
	maxGitSignals    = 20
	maxMemorySignals = 10
	maxChurnSignals  = 10
)

// impactWeights and frequencyWeights are the fixed scoring tables. Unknown
// values score as the lowest weight in each table.
var impactWeights = map[types.Impact]float64{
	types.ImpactHigh:   3,
	types.ImpactMedium: 2,
	types.ImpactLow:    1,
}

var frequencyWeights = map[types.Frequency]float64{
	types.FreqDaily:      4,
	types.FreqWeekly:     3,
	types.FreqPerFeature: 2,
	types.FreqMonthly:    1,
}

// Score computes impact_weight × frequency_weight, case-insensitively,
// defaulting unrecognized values to the lowest weight.
func Score(impact types.Impact, frequency types.Frequency) float64 {
	iw, ok := impactWeights[types.Impact(strings.ToLower(string(impact)))]
	if !ok {
		iw = impactWeights[types.ImpactLow]
	}
	fw, ok := frequencyWeights[types.Frequency(strings.ToLower(string(frequency)))]
	if !ok {
		fw = frequencyWeights[types.FreqMonthly]
	}
	return iw * fw
}

// Result is the artifact produced by one analysis run.
type Result struct {
	Timestamp time.Time       `json:"timestamp"`
	Patterns  []types.Pattern `json:"patterns"`
	Metadata  Metadata        `json:"metadata"`
}

// Metadata records what the run analyzed and how.
type Metadata struct {
	TotalPatternsFound int    `json:"total_patterns_found"`
	PatternsReturned   int    `json:"patterns_returned"`
	Offline            bool   `json:"offline,omitempty"`
	GitSignals         int    `json:"git_signals"`
	MemorySignals      int    `json:"memory_signals"`
	ChurnSignals       int    `json:"churn_signals"`
}

// Analyzer is the pattern scorer.
type Analyzer struct {
	caller  *oracle.Caller
	offline bool
	now     func() time.Time
}

// New creates an analyzer. Offline mode bypasses the oracle entirely and
// returns the fixed illustrative pattern set.
func New(caller *oracle.Caller, offline bool) *Analyzer {
	return &Analyzer{caller: caller, offline: offline, now: time.Now}
}

// Analyze sends a bounded digest of the collection to the oracle, parses
// the returned pattern records, recomputes every score from the fixed
// tables, and returns the top-N by score (stable order breaks ties by
// input position). Oracle failure after the retry budget degrades to an
// empty list.
func (a *Analyzer) Analyze(ctx context.Context, coll *signal.Collection, topN int) (*Result, error) {
	result := &Result{
		Timestamp: a.now(),
		Metadata: Metadata{
			Offline:       a.offline,
			GitSignals:    len(coll.GitSignals),
			MemorySignals: len(coll.MemorySignals),
			ChurnSignals:  len(coll.ChurnSignals),
		},
	}

	var patterns []types.Pattern
	if a.offline {
		patterns = offlinePatterns()
	} else {
		prompt, err := a.buildPrompt(coll)
		if err != nil {
			return nil, fmt.Errorf("failed to build analysis prompt: %w", err)
		}
		response, err := a.caller.GenerateText(ctx, prompt)
		if err != nil {
			slog.Warn("pattern analysis degraded to empty result", "error", err)
			return result, nil
		}
		var parsed struct {
			Patterns []types.Pattern `json:"patterns"`
		}
		if err := oracle.DecodeJSON(response, &parsed); err != nil {
			slog.Warn("pattern analysis response unparsable", "error", err)
			return result, nil
		}
		patterns = parsed.Patterns
	}

	// Drop records missing required fields rather than letting empty names
	// slug to nothing downstream.
	kept := patterns[:0]
	for i := range patterns {
		if err := patterns[i].Validate(); err != nil {
			slog.Warn("discarding malformed pattern record", "error", err)
			continue
		}
		kept = append(kept, patterns[i])
	}
	patterns = kept

	for i := range patterns {
		patterns[i].Score = Score(patterns[i].Impact, patterns[i].Frequency)
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Score > patterns[j].Score
	})
	result.Metadata.TotalPatternsFound = len(patterns)
	if topN > 0 && len(patterns) > topN {
		patterns = patterns[:topN]
	}
	result.Patterns = patterns
	result.Metadata.PatternsReturned = len(patterns)
	return result, nil
}

func (a *Analyzer) buildPrompt(coll *signal.Collection) (string, error) {
	digest := struct {
		GitSignals    []types.Signal `json:"git_signals"`
		MemorySignals []types.Signal `json:"memory_signals"`
		ChurnSignals  []types.Signal `json:"churn_signals"`
		Summary       signal.Summary `json:"summary"`
	}{
		GitSignals:    capSignals(coll.GitSignals, maxGitSignals),
		MemorySignals: capSignals(coll.MemorySignals, maxMemorySignals),
		ChurnSignals:  capSignals(coll.ChurnSignals, maxChurnSignals),
		Summary:       coll.SummaryCounts,
	}
	body, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", err
	}
	return strings.Replace(analysisPrompt, "{signals}", string(body), 1), nil
}

func capSignals(signals []types.Signal, max int) []types.Signal {
	if len(signals) > max {
		return signals[:max]
	}
	return signals
}
