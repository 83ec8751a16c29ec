package signal

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/sdlctools/patternhunter/internal/types"
)

// sampleContentLimit bounds the excerpt embedded in a repeated_learning
// signal so payload size stays predictable regardless of store contents.
const sampleContentLimit = 200

// maxGroupSamples caps how many store records a single signal embeds.
const maxGroupSamples = 5

// storedMemory mirrors the learnings-store record shape loosely; unknown
// or missing fields are tolerated since the store is written by multiple
// tools.
type storedMemory struct {
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}

// MemoryAnalyzer extracts repeated_learning signals from the persisted
// agent learnings store.
type MemoryAnalyzer struct {
	path string
	now  func() time.Time
}

// NewMemoryAnalyzer creates an analyzer reading the store at path.
func NewMemoryAnalyzer(path string) *MemoryAnalyzer {
	return &MemoryAnalyzer{path: path, now: time.Now}
}

// Collect groups store records by category and independently by each tag,
// and emits one signal per group with 3+ members (high strength at 5+),
// sorted by descending occurrences. An absent or malformed store yields an
// empty result, not an error.
func (a *MemoryAnalyzer) Collect(ctx context.Context, windowDays int) []types.Signal {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("learnings store unreadable", "path", a.path, "error", err)
		}
		return nil
	}

	var memories []storedMemory
	if err := json.Unmarshal(data, &memories); err != nil {
		slog.Warn("learnings store has unexpected format", "path", a.path, "error", err)
		return nil
	}

	byCategory := map[string][]storedMemory{}
	catOrder := []string{}
	byTag := map[string][]storedMemory{}
	tagOrder := []string{}
	for _, m := range memories {
		category := m.Category
		if category == "" {
			category = "unknown"
		}
		if _, seen := byCategory[category]; !seen {
			catOrder = append(catOrder, category)
		}
		byCategory[category] = append(byCategory[category], m)
		for _, tag := range m.Tags {
			if _, seen := byTag[tag]; !seen {
				tagOrder = append(tagOrder, tag)
			}
			byTag[tag] = append(byTag[tag], m)
		}
	}

	now := a.now()
	var signals []types.Signal
	for _, category := range catOrder {
		group := byCategory[category]
		if len(group) < 3 {
			continue
		}
		sig := groupSignal(group, now)
		sig.SourceRef = "category:" + category
		sig.Category = category
		signals = append(signals, sig)
	}
	for _, tag := range tagOrder {
		group := byTag[tag]
		if len(group) < 3 {
			continue
		}
		sig := groupSignal(group, now)
		sig.SourceRef = "tag:" + tag
		sig.Tag = tag
		signals = append(signals, sig)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Occurrences > signals[j].Occurrences
	})
	return signals
}

func groupSignal(group []storedMemory, now time.Time) types.Signal {
	strength := types.StrengthMedium
	if len(group) >= 5 {
		strength = types.StrengthHigh
	}
	samples := make([]types.MemorySample, 0, maxGroupSamples)
	for _, m := range group {
		if len(samples) == maxGroupSamples {
			break
		}
		samples = append(samples, types.MemorySample{
			Content:   truncateRunes(m.Content, sampleContentLimit),
			Category:  m.Category,
			Tags:      m.Tags,
			CreatedAt: m.CreatedAt,
		})
	}
	return types.Signal{
		Kind:        types.SignalRepeatedLearning,
		Timestamp:   now,
		Strength:    strength,
		Occurrences: len(group),
		Samples:     samples,
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
