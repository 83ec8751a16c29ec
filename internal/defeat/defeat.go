// Package defeat synthesizes defeat tests: Go test files whose passing
// indicates the associated anti-pattern is absent from the codebase.
// Generated code is syntax-checked before it is allowed anywhere near
// disk; invalid code is still reported so the operator can see what the
// oracle produced.
package defeat

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"

	"github.com/sdlctools/patternhunter/internal/oracle"
	"github.com/sdlctools/patternhunter/internal/types"
)

// Generation is the outcome of synthesizing one defeat test. Invalid code
// is returned for reporting but never persisted.
type Generation struct {
	PatternName string `json:"pattern_name"`
	PatternSlug string `json:"pattern_slug"`
	Code        string `json:"code"`
	IsValid     bool   `json:"is_valid"`
	Error       string `json:"error,omitempty"`
	Filename    string `json:"filename"`
	FromOracle  bool   `json:"from_oracle"`
}

// Synthesizer generates and persists defeat tests.
type Synthesizer struct {
	caller  *oracle.Caller
	dir     string
	pkg     string
	offline bool
	now     func() time.Time
}

// NewSynthesizer creates a synthesizer writing into testDir. Offline mode
// always uses the template fallback instead of the oracle. All files in
// one test directory share a package name derived from the directory, so
// generated tests compile together.
func NewSynthesizer(caller *oracle.Caller, testDir string, offline bool) *Synthesizer {
	return &Synthesizer{
		caller:  caller,
		dir:     testDir,
		pkg:     PackageName(testDir),
		offline: offline,
		now:     time.Now,
	}
}

// Generate produces a defeat test for one pattern. Oracle failures fall
// back to a template matched by slug prefix, so generation itself never
// fails; only syntax validation can mark the result invalid.
func (s *Synthesizer) Generate(ctx context.Context, p types.Pattern) Generation {
	slug := types.Slug(p.Name)
	gen := Generation{
		PatternName: p.Name,
		PatternSlug: slug,
		Filename:    Filename(slug),
	}

	if s.offline {
		gen.Code = templateFor(s.pkg, slug, p, s.now())
	} else {
		response, err := s.caller.GenerateText(ctx, buildTestPrompt(p, slug, s.pkg))
		if err != nil {
			slog.Warn("test generation falling back to template", "pattern", p.Name, "error", err)
			gen.Code = templateFor(s.pkg, slug, p, s.now())
		} else {
			gen.Code = oracle.StripFences(response)
			gen.FromOracle = true
		}
	}

	if err := ValidateSyntax(gen.Code); err != nil {
		gen.Error = err.Error()
		return gen
	}
	gen.IsValid = true
	return gen
}

// GenerateAll synthesizes tests for each pattern in order. Per-item
// failures are isolated: one invalid generation never stops the batch.
func (s *Synthesizer) GenerateAll(ctx context.Context, patterns []types.Pattern) []Generation {
	results := make([]Generation, 0, len(patterns))
	for _, p := range patterns {
		results = append(results, s.Generate(ctx, p))
	}
	return results
}

// Filename derives the on-disk name for a pattern slug. The _test suffix
// keeps the file inside the Go test build scope of its directory.
func Filename(slug string) string {
	return slug + "_defeat_test.go"
}

// ValidateSyntax parses code as a Go source file and returns the first
// syntax error, if any.
func ValidateSyntax(code string) error {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "defeat_test.go", code, 0); err != nil {
		return fmt.Errorf("syntax validation failed: %w", err)
	}
	return nil
}

// WriteAll persists the valid generations to the synthesizer's test
// directory (created if needed) and returns the written paths. Invalid
// generations are skipped. Files are written executable to match the
// project's generated-script convention.
func (s *Synthesizer) WriteAll(results []Generation) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create test directory %s: %w", s.dir, err)
	}
	var written []string
	for _, r := range results {
		if !r.IsValid {
			slog.Warn("skipping invalid defeat test", "file", r.Filename, "error", r.Error)
			continue
		}
		path := filepath.Join(s.dir, r.Filename)
		if err := os.WriteFile(path, []byte(r.Code), 0o755); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ValidateDir re-checks every previously generated defeat test in dir and
// returns the files that no longer parse.
func ValidateDir(dir string) (invalid []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_defeat_test.go") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		code, err := os.ReadFile(path)
		if err != nil {
			return invalid, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if ValidateSyntax(string(code)) != nil {
			invalid = append(invalid, path)
		}
	}
	return invalid, nil
}

// ModulePath walks upward from dir to the nearest go.mod and returns its
// module path, so reports can name the import path tests land under.
// Returns "" when no module root is found.
func ModulePath(dir string) string {
	current, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		data, err := os.ReadFile(filepath.Join(current, "go.mod"))
		if err == nil {
			if f, perr := modfile.ParseLax("go.mod", data, nil); perr == nil && f.Module != nil {
				return f.Module.Mod.Path
			}
			return ""
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// PackageName derives the Go package name generated tests declare, from
// the test directory's base name.
func PackageName(dir string) string {
	base := filepath.Base(filepath.Clean(dir))
	slug := types.Slug(base)
	if slug == "" {
		return "patterns"
	}
	if slug[0] >= '0' && slug[0] <= '9' {
		slug = "p" + slug
	}
	return strings.ReplaceAll(slug, "_", "")
}
