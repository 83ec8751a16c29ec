package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
		{"unclosed fence keeps body", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Patterns []struct {
			Name string `json:"name"`
		} `json:"patterns"`
	}
	err := DecodeJSON("```json\n{\"patterns\": [{\"name\": \"X\"}]}\n```", &v)
	require.NoError(t, err)
	require.Len(t, v.Patterns, 1)
	assert.Equal(t, "X", v.Patterns[0].Name)
}

func TestDecodeJSONErrors(t *testing.T) {
	var v map[string]any
	assert.Error(t, DecodeJSON("", &v))
	assert.Error(t, DecodeJSON("not json at all", &v))
	assert.Error(t, DecodeJSON("```json\n\n```", &v))
}
