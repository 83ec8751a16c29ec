// Package types defines the records that flow through the pattern hunting
// pipeline: signals collected from evidence sources, scored pattern
// candidates, remediation proposals, and the persisted stores they land in.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SignalKind identifies which evidence source produced a signal.
type SignalKind string

const (
	SignalFixCommit            SignalKind = "fix_commit"
	SignalRepeatedModification SignalKind = "repeated_modification"
	SignalRepeatedLearning     SignalKind = "repeated_learning"
	SignalHotFile              SignalKind = "hot_file"
)

// IsValid reports whether the kind is one of the known signal kinds.
func (k SignalKind) IsValid() bool {
	switch k {
	case SignalFixCommit, SignalRepeatedModification, SignalRepeatedLearning, SignalHotFile:
		return true
	}
	return false
}

// Strength grades how strongly a signal suggests a recurring problem.
type Strength string

const (
	StrengthHigh   Strength = "high"
	StrengthMedium Strength = "medium"
	StrengthLow    Strength = "low"
)

// Signal is a normalized observation extracted from one evidence source.
// Signals are immutable once collected and live only inside a single run's
// collection artifact.
type Signal struct {
	Kind      SignalKind `json:"kind"`
	SourceRef string     `json:"source_ref"` // commit hash, file path, or memory group key
	Timestamp time.Time  `json:"timestamp"`
	Strength  Strength   `json:"signal_strength,omitempty"`

	// Kind-specific payload. Only the fields relevant to Kind are set.
	Author            string         `json:"author,omitempty"`
	Message           string         `json:"message,omitempty"`
	FilesChanged      []string       `json:"files_changed,omitempty"`
	Insertions        int            `json:"insertions,omitempty"`
	Deletions         int            `json:"deletions,omitempty"`
	ModificationCount int            `json:"modification_count,omitempty"`
	Modifications     []Modification `json:"modifications,omitempty"`
	Occurrences       int            `json:"occurrences,omitempty"`
	Category          string         `json:"category,omitempty"`
	Tag               string         `json:"tag,omitempty"`
	Samples           []MemorySample `json:"samples,omitempty"`
	ChurnScore        int            `json:"churn_score,omitempty"`
	CommitCount       int            `json:"commit_count,omitempty"`
	TotalChanges      int            `json:"total_changes,omitempty"`
}

// Validate checks that the signal carries its required fields.
func (s *Signal) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("invalid signal kind: %q", s.Kind)
	}
	if s.SourceRef == "" {
		return fmt.Errorf("signal source_ref is required")
	}
	return nil
}

// Modification records one commit that touched a repeatedly-modified file.
type Modification struct {
	Hash    string    `json:"hash"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// MemorySample is a truncated excerpt of a learnings-store record embedded
// in a repeated_learning signal.
type MemorySample struct {
	Content   string   `json:"content"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// Frequency is how often a pattern recurs, as classified by the oracle.
type Frequency string

const (
	FreqDaily      Frequency = "daily"
	FreqWeekly     Frequency = "weekly"
	FreqPerFeature Frequency = "per-feature"
	FreqMonthly    Frequency = "monthly"
)

// Impact is a pattern's severity, as classified by the oracle.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Pattern is a scored anti-pattern candidate derived from signals. The
// oracle supplies the textual classification; Score is always recomputed
// locally so ranking never depends on oracle wording.
type Pattern struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Evidence    []string  `json:"evidence"`
	Frequency   Frequency `json:"frequency"`
	Impact      Impact    `json:"impact"`
	RootCause   string    `json:"root_cause"`
	Score       float64   `json:"score"`
}

// Validate checks that the pattern carries the fields every downstream
// stage depends on. Unknown frequency/impact values are tolerated (they
// fall back to the lowest scoring weight) but name and description are not.
func (p *Pattern) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pattern name is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("pattern %q: description is required", p.Name)
	}
	return nil
}

// Proposal is an agent-scoped remediation bundle for one pattern: a
// non-negotiable rule, a discipline step, and a memory learning.
type Proposal struct {
	Agent         string   `json:"agent"`
	PatternName   string   `json:"pattern_name"`
	PatternScore  float64  `json:"pattern_score"`
	NonNegotiable string   `json:"non_negotiable"`
	Discipline    string   `json:"discipline"`
	Memory        string   `json:"memory"`
	MemoryTags    []string `json:"memory_tags"`
}

// Validate checks the proposal's required fields.
func (p *Proposal) Validate() error {
	if strings.TrimSpace(p.PatternName) == "" {
		return fmt.Errorf("proposal pattern_name is required")
	}
	if strings.TrimSpace(p.Agent) == "" {
		return fmt.Errorf("proposal %q: agent is required", p.PatternName)
	}
	return nil
}

// MemoryMetadata links a learnings-store entry back to the pattern and
// defeat test that produced it. PatternID is the deduplication key: the
// store holds at most one entry per pattern_id.
type MemoryMetadata struct {
	PatternID  string `json:"pattern_id"`
	DefeatTest string `json:"defeat_test"`
	AddedBy    string `json:"added_by"`
	Agent      string `json:"agent"`
}

// MemoryEntry is one record in the persistent learnings store.
type MemoryEntry struct {
	ID        int            `json:"id"`
	Content   string         `json:"content"`
	Category  string         `json:"category"`
	Tags      []string       `json:"tags"`
	Metadata  MemoryMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PipelineState is the durable cross-run state owned by the orchestrator.
// It is mutated at the end of each successful stage; a corrupt or missing
// state file degrades to the zero value rather than failing the run.
type PipelineState struct {
	LastRun           string   `json:"last_run,omitempty"`
	LastCollectionRef string   `json:"last_collection_ref,omitempty"`
	LastAnalysisRef   string   `json:"last_analysis_ref,omitempty"`
	PendingPatterns   []string `json:"pending_patterns"`
	ApprovedPatterns  []string `json:"approved_patterns"`
}
