package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sdlctools/patternhunter/internal/types"
)

const stateFileName = "state.json"

// DefaultStateDir is where a repository's pipeline state and run artifacts
// live.
func DefaultStateDir(repoPath string) string {
	return filepath.Join(repoPath, ".patternhunter")
}

// LoadState reads the durable pipeline state from dir. A missing or
// corrupt state file degrades to the zero state so a damaged file never
// blocks a new run.
func LoadState(dir string) *types.PipelineState {
	state := &types.PipelineState{}
	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("pipeline state unreadable, starting fresh", "dir", dir, "error", err)
		}
		return state
	}
	if err := json.Unmarshal(data, state); err != nil {
		slog.Warn("pipeline state corrupt, starting fresh", "dir", dir, "error", err)
		return &types.PipelineState{}
	}
	return state
}

// SaveState persists the state to dir, creating it if needed.
func SaveState(dir string, state *types.PipelineState) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pipeline state: %w", err)
	}
	path := filepath.Join(dir, stateFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pipeline state %s: %w", path, err)
	}
	return nil
}
