package defeat

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdlctools/patternhunter/internal/types"
)

// buildTestPrompt asks the oracle for a complete Go defeat-test file.
func buildTestPrompt(p types.Pattern, slug, pkg string) string {
	var evidence strings.Builder
	for _, e := range p.Evidence {
		fmt.Fprintf(&evidence, "  - %s\n", e)
	}
	return fmt.Sprintf(`You are a Go testing expert specializing in static code analysis and anti-pattern detection.

Generate a Go defeat test for the following anti-pattern:

**Pattern Name:** %s
**Description:** %s
**Evidence:**
%s**Frequency:** %s
**Impact:** %s
**Root Cause:** %s

**REQUIREMENTS:**

1. The file must declare "package %s" and compile on its own.
2. Provide one test function named Test%s (or similar) with a doc comment
   explaining what the test prevents.
3. The test walks the repository from the module root, scans relevant
   source files (skip _test.go files, vendor/, and generated code), and
   FAILS with file:line locations when the pattern is detected.
4. Choose an appropriate detection method: regexp scanning for textual
   patterns, go/ast parsing for structural patterns, or file content
   checks for documentation/format issues.
5. Handle file read errors by skipping the file, never by failing the test.

**OUTPUT FORMAT:**
Return ONLY valid Go code (no markdown, no commentary, no code fences),
starting with the package clause.
`, p.Name, p.Description, evidence.String(), p.Frequency, p.Impact, p.RootCause, pkg, camel(slug))
}

// templateFor selects a fallback template by slug prefix match, else the
// generic placeholder.
func templateFor(pkg, slug string, p types.Pattern, now time.Time) string {
	date := now.Format("2006-01-02")
	for key, tmpl := range builtinTemplates {
		if strings.HasPrefix(slug, key) || strings.Contains(slug, key) {
			return tmpl(pkg, slug, p, date)
		}
	}
	return genericTemplate(pkg, slug, p, date)
}

type templateFunc func(pkg, slug string, p types.Pattern, date string) string

var builtinTemplates = map[string]templateFunc{
	"silent_fallback":       silentFallbackTemplate,
	"missing_error_context": missingErrorContextTemplate,
}

func header(pkg, slug string, p types.Pattern, date string) string {
	return fmt.Sprintf(`// Defeat test: %s
// Pattern: %s
// Severity: %s
// Generated: %s
// %s
package %s
`, p.Name, slug, strings.ToUpper(string(p.Impact)), date, p.Description, pkg)
}

func silentFallbackTemplate(pkg, slug string, p types.Pattern, date string) string {
	return header(pkg, slug, p, date) + `
import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

// TestNoSilentFallbacks fails when map reads substitute a default value
// for a missing key instead of checking the ok result.
func TestNoSilentFallbacks(t *testing.T) {
	pattern := regexp.MustCompile(` + "`" + `,\s*_\s*:?=\s*\w+\[` + "`" + `)
	var violations []string

	root, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("no go.mod found above %s", root)
		}
		root = parent
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(content), "\n") {
			if pattern.MatchString(line) {
				rel, _ := filepath.Rel(root, path)
				violations = append(violations, rel+":"+strconv.Itoa(i+1)+": "+strings.TrimSpace(line))
			}
		}
		return nil
	})

	if len(violations) > 10 {
		violations = violations[:10]
	}
	if len(violations) > 0 {
		t.Errorf("silent fallbacks found (validate explicitly instead):\n%s",
			strings.Join(violations, "\n"))
	}
}
`
}

func missingErrorContextTemplate(pkg, slug string, p types.Pattern, date string) string {
	return header(pkg, slug, p, date) + `
import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

// TestNoBareErrorReturns fails on error returns that discard the
// operation context instead of wrapping it.
func TestNoBareErrorReturns(t *testing.T) {
	pattern := regexp.MustCompile(` + "`" + `errors\.New\("[a-z ]{0,9}"\)` + "`" + `)
	var violations []string

	root, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("no go.mod found above %s", root)
		}
		root = parent
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for i, line := range strings.Split(string(content), "\n") {
			if pattern.MatchString(line) {
				rel, _ := filepath.Rel(root, path)
				violations = append(violations, rel+":"+strconv.Itoa(i+1)+": "+strings.TrimSpace(line))
			}
		}
		return nil
	})

	if len(violations) > 10 {
		violations = violations[:10]
	}
	if len(violations) > 0 {
		t.Errorf("errors without context found (say what failed and with what data):\n%s",
			strings.Join(violations, "\n"))
	}
}
`
}

func genericTemplate(pkg, slug string, p types.Pattern, date string) string {
	return header(pkg, slug, p, date) + fmt.Sprintf(`
import (
	"testing"
)

// Test%s guards against the %q pattern. The detection
// logic is a placeholder until a concrete check is written for this
// pattern; it records the pattern so the suite lists it.
func Test%s(t *testing.T) {
	t.Log(%q)
}
`, camel(slug), p.Name, camel(slug), "pattern under watch: "+p.Description)
}

// camel converts a slug to an exported CamelCase identifier fragment.
func camel(slug string) string {
	parts := strings.Split(slug, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	if b.Len() == 0 {
		return "Pattern"
	}
	return b.String()
}
