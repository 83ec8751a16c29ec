// Package memstore persists pattern learnings to the shared agent memory
// store, a JSON array of entries keyed for deduplication by pattern_id.
// Writes are idempotent: re-applying the same proposals skips everything
// and leaves the file untouched.
package memstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sdlctools/patternhunter/internal/defeat"
	"github.com/sdlctools/patternhunter/internal/types"
)

// DefaultPath returns the conventional learnings store location,
// ~/.agent-memory/memories.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".agent-memory", "memories.json"), nil
}

// Store reads and writes the learnings file.
type Store struct {
	path string
	now  func() time.Time
}

// New creates a store bound to path.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the store's file location.
func (s *Store) Path() string { return s.path }

// Load reads all entries. A missing file is an empty store; malformed JSON
// is an error since overwriting it would destroy someone's learnings.
func (s *Store) Load() ([]types.MemoryEntry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory store %s: %w", s.path, err)
	}
	var entries []types.MemoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON in memory store %s: %w", s.path, err)
	}
	return entries, nil
}

// AddedItem records one learning written (or previewed) by Apply.
type AddedItem struct {
	PatternName string `json:"pattern_name"`
	PatternID   string `json:"pattern_id"`
	MemoryID    int    `json:"memory_id"`
	Agent       string `json:"agent"`
}

// SkippedItem records one proposal skipped as a duplicate.
type SkippedItem struct {
	PatternName string `json:"pattern_name"`
	PatternID   string `json:"pattern_id"`
	Reason      string `json:"reason"`
	ExistingID  int    `json:"existing_id"`
}

// ErrorItem records one proposal that could not be applied.
type ErrorItem struct {
	PatternName string `json:"pattern_name"`
	Error       string `json:"error"`
}

// Result summarizes one Apply run.
type Result struct {
	Added          []AddedItem   `json:"added"`
	Skipped        []SkippedItem `json:"skipped"`
	Errors         []ErrorItem   `json:"errors"`
	TotalProposals int           `json:"total_proposals"`
}

// Apply adds one memory entry per proposal, deduplicating by pattern slug
// against both the existing store and earlier proposals in the same batch.
// IDs are allocated from max existing ID + 1. The file is rewritten only
// when at least one entry was added and preview is false; in preview mode
// nothing touches disk, not even store creation.
func (s *Store) Apply(proposals []types.Proposal, preview bool) *Result {
	result := &Result{
		Added:   []AddedItem{},
		Skipped: []SkippedItem{},
		Errors:  []ErrorItem{},

		TotalProposals: len(proposals),
	}

	entries, err := s.Load()
	if err != nil {
		result.Errors = append(result.Errors, ErrorItem{Error: err.Error()})
		return result
	}

	// A missing store becomes an empty one, so later readers see a valid
	// file. Preview never creates anything.
	if !preview {
		if _, statErr := os.Stat(s.path); os.IsNotExist(statErr) {
			if err := s.save([]types.MemoryEntry{}); err != nil {
				result.Errors = append(result.Errors, ErrorItem{Error: err.Error()})
				return result
			}
		}
	}

	nextID := 1
	for _, e := range entries {
		if e.ID >= nextID {
			nextID = e.ID + 1
		}
	}

	for _, prop := range proposals {
		slug := types.Slug(prop.PatternName)
		if slug == "" {
			result.Errors = append(result.Errors, ErrorItem{
				PatternName: prop.PatternName,
				Error:       "pattern name produces an empty slug",
			})
			continue
		}

		// New entries land in the same slice, so this also catches
		// duplicates within the batch.
		if existing := findBySlug(entries, slug); existing != nil {
			result.Skipped = append(result.Skipped, SkippedItem{
				PatternName: prop.PatternName,
				PatternID:   slug,
				Reason:      "already exists in memory",
				ExistingID:  existing.ID,
			})
			continue
		}

		now := s.now()
		entry := types.MemoryEntry{
			ID:       nextID,
			Content:  prop.Memory,
			Category: "anti-patterns",
			Tags:     prop.MemoryTags,
			Metadata: types.MemoryMetadata{
				PatternID:  slug,
				DefeatTest: defeat.Filename(slug),
				AddedBy:    "patternhunter",
				Agent:      prop.Agent,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if entry.Content == "" {
			entry.Content = "Learned: " + prop.PatternName
		}
		if len(entry.Tags) == 0 {
			entry.Tags = []string{"anti-patterns", "defeat-test"}
		}
		entries = append(entries, entry)
		nextID++

		result.Added = append(result.Added, AddedItem{
			PatternName: prop.PatternName,
			PatternID:   slug,
			MemoryID:    entry.ID,
			Agent:       prop.Agent,
		})
	}

	if len(result.Added) > 0 && !preview {
		if err := s.save(entries); err != nil {
			result.Errors = append(result.Errors, ErrorItem{Error: err.Error()})
		}
	}
	return result
}

func findBySlug(entries []types.MemoryEntry, slug string) *types.MemoryEntry {
	for i := range entries {
		if entries[i].Metadata.PatternID == slug {
			return &entries[i]
		}
	}
	return nil
}

func (s *Store) save(entries []types.MemoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create memory store directory: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write memory store %s: %w", s.path, err)
	}
	return nil
}
