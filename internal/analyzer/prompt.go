package analyzer

import "github.com/sdlctools/patternhunter/internal/types"

// analysisPrompt asks the oracle for concrete anti-pattern candidates.
// {signals} is replaced with the JSON digest of the collection.
const analysisPrompt = `You are a software engineering expert analyzing code development patterns. You have been given signals from:

1. **Git history** - commits that fix bugs, repeated modifications to the same files
2. **Agent memory** - recurring learnings and patterns agents have encountered
3. **Code churn** - files with high modification frequency

Your task is to identify concrete anti-patterns and development issues that are happening repeatedly. For each pattern you identify, provide:

1. **Name**: Short, descriptive name for the pattern
2. **Description**: What is happening (be specific, not vague)
3. **Evidence**: Specific files, commits, or memory entries that show this pattern
4. **Frequency**: How often this occurs (daily, weekly, per-feature, monthly)
5. **Impact**: High (blocks work/causes bugs), Medium (slows development), Low (minor annoyance)
6. **Root Cause**: Your hypothesis about WHY this pattern keeps happening

**IMPORTANT**:
- Only identify patterns with strong evidence (3+ occurrences)
- Be specific - reference actual files and commits
- Focus on actionable patterns that can be prevented
- Patterns should be about developer behavior or code structure, not business logic

**INPUT SIGNALS**:

{signals}

**OUTPUT FORMAT**:
Return ONLY valid JSON with this structure (no markdown, no commentary):
{
  "patterns": [
    {
      "name": "Pattern Name",
      "description": "Detailed description of what's happening",
      "evidence": ["main.go: modified 7 times", "commit abc123: fixed error handling"],
      "frequency": "weekly",
      "impact": "high",
      "root_cause": "Why this keeps happening"
    }
  ]
}

Identify up to 10 patterns, ranked by (impact x frequency).
`

// offlinePatterns is the fixed illustrative set used when the oracle is
// bypassed (demos, tests, air-gapped runs).
func offlinePatterns() []types.Pattern {
	return []types.Pattern{
		{
			Name:        "Silent Fallback Pattern",
			Description: "Substituting default values for missing data instead of explicit validation, leading to silent failures and hard-to-debug issues",
			Evidence: []string{
				"internal/config/loader.go: modified 5 times with validation fixes",
				"internal/report/export.go: 3 commits adding error handling",
				"Agent memory: 'learned to validate explicitly' appears 4 times",
			},
			Frequency: types.FreqWeekly,
			Impact:    types.ImpactHigh,
			RootCause: "Defaults are convenient to reach for and linters don't flag them, so the shortcut only fails in production.",
		},
		{
			Name:        "Missing Error Context",
			Description: "Returning errors without saying which operation failed or what data was involved",
			Evidence: []string{
				"internal/export/writer.go: 3 commits adding context to errors",
				"internal/sync/runner.go: modified 4 times",
				"Git: 'fix error message' appears in 6 commits",
			},
			Frequency: types.FreqPerFeature,
			Impact:    types.ImpactMedium,
			RootCause: "Happy path gets written first with minimal error handling; when bugs reach production the bare errors give nothing to debug with.",
		},
		{
			Name:        "Inconsistent File Path Handling",
			Description: "Mixing relative and absolute paths, causing failures in different execution contexts",
			Evidence: []string{
				"scripts/: multiple scripts modified for path handling",
				"Git: 'fix path' in 4 commits over 2 weeks",
			},
			Frequency: types.FreqMonthly,
			Impact:    types.ImpactMedium,
			RootCause: "No standard established for path handling, so each change makes different assumptions about the working directory.",
		},
	}
}
