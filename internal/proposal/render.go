package proposal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sdlctools/patternhunter/internal/defeat"
	"github.com/sdlctools/patternhunter/internal/types"
)

// Render formats patterns and their proposals as a reviewable markdown
// document, one section per pattern in ranking order. Patterns and
// proposals are matched by index.
func Render(patterns []types.Pattern, proposals []types.Proposal, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pattern Proposals - %s\n\n", now.Format("2006-01-02"))
	b.WriteString("This document contains proposed updates to agent character sheets based on detected patterns.\n")
	b.WriteString("Review each proposal and decide whether to apply it to the corresponding agent.\n\n---\n\n")

	n := len(patterns)
	if len(proposals) < n {
		n = len(proposals)
	}
	for i := 0; i < n; i++ {
		p, prop := patterns[i], proposals[i]

		fmt.Fprintf(&b, "## Pattern: %s (Score: %.1f, %s impact)\n\n",
			p.Name, p.Score, strings.ToUpper(string(p.Impact)))
		fmt.Fprintf(&b, "**Description:** %s\n\n", p.Description)
		fmt.Fprintf(&b, "**Frequency:** %s\n\n", p.Frequency)
		fmt.Fprintf(&b, "**Root Cause:** %s\n\n", p.RootCause)
		b.WriteString("**Evidence:**\n")
		for _, e := range p.Evidence {
			fmt.Fprintf(&b, "- %s\n", e)
		}

		fmt.Fprintf(&b, "\n### Proposed Update for Agent: %s\n\n", prop.Agent)
		b.WriteString("#### Non-Negotiable Addition\n```\n")
		b.WriteString(prop.NonNegotiable)
		b.WriteString("\n```\n\n#### Discipline Item\n```\n")
		b.WriteString(prop.Discipline)
		b.WriteString("\n```\n\n#### Memory Entry\n```json\n")
		b.WriteString(memoryJSON(prop))
		b.WriteString("\n```\n\n#### Related Defeat Test\n")
		fmt.Fprintf(&b, "`%s`\n\n---\n\n", defeat.Filename(types.Slug(p.Name)))
	}
	return b.String()
}

func memoryJSON(prop types.Proposal) string {
	body, err := json.MarshalIndent(struct {
		Content  string   `json:"content"`
		Category string   `json:"category"`
		Tags     []string `json:"tags"`
	}{prop.Memory, "anti-patterns", prop.MemoryTags}, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(body)
}
