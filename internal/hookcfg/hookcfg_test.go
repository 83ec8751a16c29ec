package hookcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testSync(t *testing.T) (*Synchronizer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pre-commit-config.yaml")
	return NewSynchronizer(path, "tests/patterns"), path
}

func readConfig(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var config map[string]any
	require.NoError(t, yaml.Unmarshal(data, &config))
	return config
}

func patternHook(t *testing.T, config map[string]any) map[string]any {
	t.Helper()
	repos, ok := config["repos"].([]any)
	require.True(t, ok)
	for _, r := range repos {
		repo := r.(map[string]any)
		if repo["repo"] != "local" {
			continue
		}
		for _, h := range repo["hooks"].([]any) {
			hook := h.(map[string]any)
			if hook["id"] == HookID {
				return hook
			}
		}
	}
	t.Fatal("pattern hook not found")
	return nil
}

func TestTestCommand(t *testing.T) {
	assert.Equal(t, "go test ./tests/patterns/... -v", TestCommand("tests/patterns"))
	assert.Equal(t, "go test ./tests/patterns/... -v", TestCommand("tests/patterns/"))
}

func TestSyncCreatesConfig(t *testing.T) {
	s, path := testSync(t)

	changed, err := s.Sync(false)
	require.NoError(t, err)
	assert.True(t, changed)

	hook := patternHook(t, readConfig(t, path))
	assert.Equal(t, "Pattern Defeat Tests", hook["name"])
	assert.Equal(t, "go test ./tests/patterns/... -v", hook["entry"])
	assert.Equal(t, "system", hook["language"])
	assert.Equal(t, false, hook["pass_filenames"])
}

func TestSyncIsIdempotent(t *testing.T) {
	s, path := testSync(t)

	_, err := s.Sync(false)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	changed, err := s.Sync(false)
	require.NoError(t, err)
	assert.False(t, changed)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSyncPreservesForeignEntries(t *testing.T) {
	s, path := testSync(t)
	existing := `repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: v4.5.0
    hooks:
      - id: trailing-whitespace
        name: Trim Trailing Whitespace
        entry: trailing-whitespace-fixer
        language: python
  - repo: local
    hooks:
      - id: custom-lint
        name: Custom Lint
        entry: make lint
        language: system
`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	changed, err := s.Sync(false)
	require.NoError(t, err)
	assert.True(t, changed)

	config := readConfig(t, path)
	repos := config["repos"].([]any)
	require.Len(t, repos, 2)

	external := repos[0].(map[string]any)
	assert.Equal(t, "https://github.com/pre-commit/pre-commit-hooks", external["repo"])
	assert.Equal(t, "v4.5.0", external["rev"])

	local := repos[1].(map[string]any)
	hooks := local["hooks"].([]any)
	require.Len(t, hooks, 2)
	assert.Equal(t, "custom-lint", hooks[0].(map[string]any)["id"])
	assert.Equal(t, HookID, hooks[1].(map[string]any)["id"])
}

func TestSyncUpdatesStaleEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pre-commit-config.yaml")

	_, err := NewSynchronizer(path, "tests/old").Sync(false)
	require.NoError(t, err)

	changed, err := NewSynchronizer(path, "tests/new").Sync(false)
	require.NoError(t, err)
	assert.True(t, changed)

	hook := patternHook(t, readConfig(t, path))
	assert.Equal(t, "go test ./tests/new/... -v", hook["entry"])
}

func TestSyncPreviewWritesNothing(t *testing.T) {
	s, path := testSync(t)

	changed, err := s.Sync(true)
	require.NoError(t, err)
	assert.True(t, changed)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheckOnly(t *testing.T) {
	s, _ := testSync(t)
	assert.True(t, s.CheckOnly())

	_, err := s.Sync(false)
	require.NoError(t, err)
	assert.False(t, s.CheckOnly())
}

func TestLoadDegradesToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pre-commit-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\nnot yaml\n  at all"), 0o644))

	s := NewSynchronizer(path, "tests/patterns")
	config := s.Load()
	assert.Equal(t, []any{}, config["repos"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr string
	}{
		{
			name:    "missing repos",
			config:  map[string]any{},
			wantErr: "missing 'repos'",
		},
		{
			name:    "repos not a list",
			config:  map[string]any{"repos": "nope"},
			wantErr: "must be a list",
		},
		{
			name:    "repo missing hooks",
			config:  map[string]any{"repos": []any{map[string]any{"repo": "local"}}},
			wantErr: "missing 'hooks'",
		},
		{
			name: "hook missing entry",
			config: map[string]any{"repos": []any{map[string]any{
				"repo":  "local",
				"hooks": []any{map[string]any{"id": "x", "name": "x", "language": "system"}},
			}}},
			wantErr: `missing "entry"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, Validate(map[string]any{"repos": []any{}}))
}
