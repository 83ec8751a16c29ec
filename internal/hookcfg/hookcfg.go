// Package hookcfg keeps the pre-commit hook configuration in sync with the
// generated defeat tests. The config is treated as user-owned YAML: existing
// repos and hooks are preserved byte-for-byte where possible, and only the
// pattern-defeat-tests entry is created or updated. Running twice produces
// the same file.
package hookcfg

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// HookID identifies the managed hook inside the local repo entry.
	HookID = "pattern-defeat-tests"

	hookName  = "Pattern Defeat Tests"
	localRepo = "local"
)

// DefaultConfigPath is the conventional pre-commit config location relative
// to the repository root.
const DefaultConfigPath = ".pre-commit-config.yaml"

// TestCommand builds the hook entry for a defeat-test directory.
func TestCommand(testDir string) string {
	return fmt.Sprintf("go test ./%s/... -v", filepath.ToSlash(filepath.Clean(testDir)))
}

// Synchronizer manages the pattern hook inside one config file.
type Synchronizer struct {
	configPath string
	testDir    string
}

// NewSynchronizer creates a synchronizer for configPath, wiring the hook to
// run the tests under testDir.
func NewSynchronizer(configPath, testDir string) *Synchronizer {
	return &Synchronizer{configPath: configPath, testDir: testDir}
}

// Load reads the config as a generic document so foreign keys survive the
// round trip. A missing, empty, or unparsable file degrades to the default
// empty config rather than failing the run.
func (s *Synchronizer) Load() map[string]any {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("hook config unreadable, starting from default", "path", s.configPath, "error", err)
		}
		return defaultConfig()
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Warn("hook config unparsable, starting from default", "path", s.configPath, "error", err)
		return defaultConfig()
	}
	if config == nil {
		return defaultConfig()
	}
	if _, ok := config["repos"]; !ok {
		config["repos"] = []any{}
	}
	return config
}

func defaultConfig() map[string]any {
	return map[string]any{"repos": []any{}}
}

// update mutates config so the local repo carries the pattern hook with the
// current test command, reporting whether anything actually changed.
func (s *Synchronizer) update(config map[string]any) bool {
	changed := false

	repos, ok := config["repos"].([]any)
	if !ok {
		repos = []any{}
		changed = true
	}

	local := findLocalRepo(repos)
	if local == nil {
		local = map[string]any{"repo": localRepo, "hooks": []any{}}
		repos = append(repos, local)
		changed = true
	}

	hooks, ok := local["hooks"].([]any)
	if !ok {
		hooks = []any{}
		changed = true
	}

	entry := TestCommand(s.testDir)
	hook := findPatternHook(hooks)
	if hook == nil {
		hooks = append(hooks, map[string]any{
			"id":             HookID,
			"name":           hookName,
			"entry":          entry,
			"language":       "system",
			"types":          []any{"go"},
			"pass_filenames": false,
		})
		changed = true
	} else if hook["entry"] != entry {
		hook["entry"] = entry
		changed = true
	}

	local["hooks"] = hooks
	config["repos"] = repos
	return changed
}

func findLocalRepo(repos []any) map[string]any {
	for _, r := range repos {
		repo, ok := r.(map[string]any)
		if ok && repo["repo"] == localRepo {
			return repo
		}
	}
	return nil
}

func findPatternHook(hooks []any) map[string]any {
	for _, h := range hooks {
		hook, ok := h.(map[string]any)
		if ok && hook["id"] == HookID {
			return hook
		}
	}
	return nil
}

// Validate checks the structural invariants every pre-commit config must
// satisfy and that the document survives YAML serialization. It guards
// every write: an invalid document never replaces the file on disk.
func Validate(config map[string]any) error {
	reposAny, ok := config["repos"]
	if !ok {
		return fmt.Errorf("config missing 'repos' key")
	}
	repos, ok := reposAny.([]any)
	if !ok {
		return fmt.Errorf("'repos' must be a list")
	}
	for i, r := range repos {
		repo, ok := r.(map[string]any)
		if !ok {
			return fmt.Errorf("repo %d must be a mapping", i)
		}
		if _, ok := repo["repo"]; !ok {
			return fmt.Errorf("repo %d missing 'repo' key", i)
		}
		hooksAny, ok := repo["hooks"]
		if !ok {
			return fmt.Errorf("repo %d missing 'hooks' key", i)
		}
		hooks, ok := hooksAny.([]any)
		if !ok {
			return fmt.Errorf("repo %d 'hooks' must be a list", i)
		}
		for j, h := range hooks {
			hook, ok := h.(map[string]any)
			if !ok {
				return fmt.Errorf("repo %d hook %d must be a mapping", i, j)
			}
			for _, key := range []string{"id", "name", "entry", "language"} {
				if _, ok := hook[key]; !ok {
					return fmt.Errorf("repo %d hook %d missing %q key", i, j, key)
				}
			}
		}
	}
	if _, err := yaml.Marshal(config); err != nil {
		return fmt.Errorf("config cannot be serialized to YAML: %w", err)
	}
	return nil
}

// Sync brings the config up to date. It returns whether a change was (or
// would be) needed; in preview mode the change is computed and validated
// but nothing is written.
func (s *Synchronizer) Sync(preview bool) (changed bool, err error) {
	config := s.Load()
	if !s.update(config) {
		return false, nil
	}
	if err := Validate(config); err != nil {
		return false, fmt.Errorf("refusing to write invalid hook config: %w", err)
	}
	if preview {
		return true, nil
	}
	if err := s.write(config); err != nil {
		return true, err
	}
	return true, nil
}

// CheckOnly reports whether Sync would change the config, touching nothing.
func (s *Synchronizer) CheckOnly() bool {
	return s.update(s.Load())
}

func (s *Synchronizer) write(config map[string]any) error {
	dir := filepath.Dir(s.configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return fmt.Errorf("failed to encode hook config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize hook config: %w", err)
	}
	if err := os.WriteFile(s.configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write hook config %s: %w", s.configPath, err)
	}
	return nil
}
