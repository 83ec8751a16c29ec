// Package proposal turns ranked patterns into agent-scoped remediation
// bundles and renders them as a reviewable document. Each pattern is routed
// to the agent domain whose keyword table matches it best, then the oracle
// drafts the remediation triple; oracle failure falls back to a
// deterministic triple so proposing never blocks the pipeline.
package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sdlctools/patternhunter/internal/oracle"
	"github.com/sdlctools/patternhunter/internal/types"
)

// agentRule maps a keyword domain to the agent that owns it. Lower
// priority numbers weigh heavier; ties resolve in declaration order.
type agentRule struct {
	agent    string
	priority int
	keywords []string
}

var agentRules = []agentRule{
	{
		agent:    "Dev",
		priority: 1,
		keywords: []string{
			"code", "function", "variable", "error handling", "exception",
			"validation", "fallback", "api", "database", "testing",
		},
	},
	{
		agent:    "Research",
		priority: 2,
		keywords: []string{
			"documentation", "comment", "readme", "docstring", "markdown",
			"spec", "requirements", "analysis",
		},
	},
	{
		agent:    "Project-Manager",
		priority: 2,
		keywords: []string{
			"workflow", "process", "coordination", "planning", "roadmap",
			"prioritization", "scheduling", "handoff",
		},
	},
	{
		agent:    "Code-Reviewer",
		priority: 3,
		keywords: []string{
			"review", "quality", "merge", "pr", "pull request", "approval",
			"standards",
		},
	},
	{
		agent:    "Release-Manager",
		priority: 3,
		keywords: []string{
			"release", "deploy", "version", "changelog", "rollback",
			"production",
		},
	},
}

// ClassifyAgent routes a pattern to the best-matching agent domain. Each
// rule scores keyword hits × (4 − priority) over the pattern's name,
// description, and root cause; the highest score wins, earlier rules win
// ties, and no hits at all defaults to Dev.
func ClassifyAgent(p types.Pattern) string {
	text := strings.ToLower(p.Name + " " + p.Description + " " + p.RootCause)

	best := ""
	bestScore := 0
	for _, rule := range agentRules {
		hits := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := hits * (4 - rule.priority)
		if score > bestScore {
			bestScore = score
			best = rule.agent
		}
	}
	if best == "" {
		return "Dev"
	}
	return best
}

// proposalPrompt asks the oracle for the remediation triple. {pattern} and
// {agent} are substituted per call.
const proposalPrompt = `You are an expert in software development best practices and agent prompt engineering. You are helping improve AI agent character sheets based on identified anti-patterns.

**Pattern Detected:**
{pattern}

**Agent Type:** {agent}

**Your Task:**
Generate three specific, actionable updates to the {agent} agent's character sheet to prevent this pattern from recurring:

1. **Non-Negotiable Test Entry**: A checklist item for what to ALWAYS verify/check (1 line, starts with "NEVER" or "ALWAYS")
2. **Discipline Item**: A procedural step for what to do before/during coding (1-2 lines, actionable)
3. **Memory Entry**: A concise learning statement (1 sentence, starts with "Learned:")

**Output Format** (return ONLY valid JSON, no markdown):
{
  "non_negotiable": "- [ ] NEVER substitute a default for missing data without explicit validation",
  "discipline": "Before reading optional data, verify it exists or handle the missing case explicitly",
  "memory": "Learned: Silent fallbacks hide bugs. Always validate explicitly.",
  "memory_tags": ["anti-patterns", "defeat-test", "pattern-name"]
}

**Guidelines:**
- Be specific and actionable
- Reference the pattern by name in memory tags
- Use imperative language for discipline items
- Non-negotiables should be testable
- Memory should capture the core lesson learned
`

// builtinProposals are the deterministic triples used in offline mode for
// the illustrative pattern set.
var builtinProposals = map[string]types.Proposal{
	"Silent Fallback Pattern": {
		NonNegotiable: "- [ ] NEVER substitute a default for missing data without explicit validation",
		Discipline:    "Before reading optional data, verify the key exists or handle the missing case explicitly with a proper error message",
		Memory:        "Learned: Silent fallbacks hide bugs by masking missing data. Always validate required fields explicitly before use.",
		MemoryTags:    []string{"anti-patterns", "defeat-test", "silent-fallback"},
	},
	"Missing Error Context": {
		NonNegotiable: "- [ ] ALWAYS include relevant context in error messages (what failed, what data was involved)",
		Discipline:    "When returning errors, wrap with the operation name and relevant identifiers (IDs, names)",
		Memory:        "Learned: Generic error messages make debugging difficult. Include specific context about what failed and why.",
		MemoryTags:    []string{"anti-patterns", "defeat-test", "error-context"},
	},
	"Inconsistent File Path Handling": {
		NonNegotiable: "- [ ] ALWAYS use absolute paths in tooling, never rely on working directory assumptions",
		Discipline:    "Convert relative paths to absolute at the entry point before passing them down",
		Memory:        "Learned: Mixed path handling causes failures in different execution contexts. Standardize on absolute paths.",
		MemoryTags:    []string{"anti-patterns", "defeat-test", "path-handling"},
	},
}

// Composer generates remediation proposals for patterns.
type Composer struct {
	caller  *oracle.Caller
	offline bool
	now     func() time.Time
}

// NewComposer creates a composer. Offline mode never calls the oracle.
func NewComposer(caller *oracle.Caller, offline bool) *Composer {
	return &Composer{caller: caller, offline: offline, now: time.Now}
}

// Set is the artifact produced by one proposal run.
type Set struct {
	Timestamp time.Time        `json:"timestamp"`
	Proposals []types.Proposal `json:"proposals"`
	Markdown  string           `json:"markdown"`
}

// Propose builds the remediation bundle for one pattern. The triple comes
// from the oracle when available, otherwise from the built-in or derived
// fallback, so a proposal always exists for every pattern.
func (c *Composer) Propose(ctx context.Context, p types.Pattern) types.Proposal {
	agent := ClassifyAgent(p)
	prop := c.triple(ctx, p)
	prop.Agent = agent
	prop.PatternName = p.Name
	prop.PatternScore = p.Score
	return prop
}

func (c *Composer) triple(ctx context.Context, p types.Pattern) types.Proposal {
	if c.offline {
		if prop, ok := builtinProposals[p.Name]; ok {
			return prop
		}
		return fallbackTriple(p)
	}

	prompt, err := buildProposalPrompt(p, ClassifyAgent(p))
	if err != nil {
		slog.Warn("proposal prompt build failed, using fallback", "pattern", p.Name, "error", err)
		return fallbackTriple(p)
	}
	response, err := c.caller.GenerateText(ctx, prompt)
	if err != nil {
		slog.Warn("proposal generation falling back", "pattern", p.Name, "error", err)
		return fallbackTriple(p)
	}
	var parsed struct {
		NonNegotiable string   `json:"non_negotiable"`
		Discipline    string   `json:"discipline"`
		Memory        string   `json:"memory"`
		MemoryTags    []string `json:"memory_tags"`
	}
	if err := oracle.DecodeJSON(response, &parsed); err != nil {
		slog.Warn("proposal response unparsable, using fallback", "pattern", p.Name, "error", err)
		return fallbackTriple(p)
	}
	return types.Proposal{
		NonNegotiable: parsed.NonNegotiable,
		Discipline:    parsed.Discipline,
		Memory:        parsed.Memory,
		MemoryTags:    parsed.MemoryTags,
	}
}

// fallbackTriple derives a generic but still actionable triple from the
// pattern record alone.
func fallbackTriple(p types.Pattern) types.Proposal {
	return types.Proposal{
		NonNegotiable: fmt.Sprintf("- [ ] Check for pattern: %s", p.Name),
		Discipline:    fmt.Sprintf("Verify this pattern doesn't occur: %s", p.Description),
		Memory:        fmt.Sprintf("Learned: %s", p.Description),
		MemoryTags:    []string{"anti-patterns", "defeat-test", "auto-generated"},
	}
}

func buildProposalPrompt(p types.Pattern, agent string) (string, error) {
	body, err := json.MarshalIndent(struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Impact      types.Impact    `json:"impact"`
		Frequency   types.Frequency `json:"frequency"`
		RootCause   string          `json:"root_cause"`
	}{p.Name, p.Description, p.Impact, p.Frequency, p.RootCause}, "", "  ")
	if err != nil {
		return "", err
	}
	prompt := strings.Replace(proposalPrompt, "{pattern}", string(body), 1)
	return strings.ReplaceAll(prompt, "{agent}", agent), nil
}

// ProposeAll generates one proposal per pattern, in ranking order, and
// renders the reviewable document alongside them.
func (c *Composer) ProposeAll(ctx context.Context, patterns []types.Pattern) *Set {
	proposals := make([]types.Proposal, 0, len(patterns))
	for _, p := range patterns {
		proposals = append(proposals, c.Propose(ctx, p))
	}
	return &Set{
		Timestamp: c.now(),
		Proposals: proposals,
		Markdown:  Render(patterns, proposals, c.now()),
	}
}

// AgentCounts tallies proposals per target agent for run summaries.
func AgentCounts(proposals []types.Proposal) map[string]int {
	counts := make(map[string]int, len(proposals))
	for _, p := range proposals {
		counts[p.Agent]++
	}
	return counts
}
