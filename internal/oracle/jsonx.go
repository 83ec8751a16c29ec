package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes one leading and one trailing markdown fence line
// when the response is wrapped in a code block. Anything else passes
// through untouched; a fenced-but-unclosed block keeps its body.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	lines = lines[1:] // drop ```json / ``` opener
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// DecodeJSON strips fences and unmarshals the remainder into v. Shape
// deviations come back as a parse error for the caller's degrade path.
func DecodeJSON(text string, v any) error {
	body := StripFences(text)
	if body == "" {
		return fmt.Errorf("empty oracle response")
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("oracle response is not valid JSON: %w", err)
	}
	return nil
}
