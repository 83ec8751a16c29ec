package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Silent Fallback Pattern", "silent_fallback_pattern"},
		{"punctuation run collapses", "Error--Context!!Handling", "error_context_handling"},
		{"leading and trailing stripped", "  Missing Error Context  ", "missing_error_context"},
		{"case insensitive", "SILENT fallback PATTERN", "silent_fallback_pattern"},
		{"digits kept", "HTTP 500 Retry Storm", "http_500_retry_storm"},
		{"all punctuation", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSlugIsDedupStable(t *testing.T) {
	// Names differing only in case or punctuation must collide.
	a := Slug("Silent Fallback Pattern")
	b := Slug("silent-fallback  pattern!")
	assert.Equal(t, a, b)
}

func TestPatternValidate(t *testing.T) {
	p := Pattern{Name: "X", Description: "y"}
	require.NoError(t, p.Validate())

	p.Name = "  "
	require.Error(t, p.Validate())

	p = Pattern{Name: "X"}
	require.Error(t, p.Validate())
}

func TestSignalValidate(t *testing.T) {
	s := Signal{Kind: SignalFixCommit, SourceRef: "abc123"}
	require.NoError(t, s.Validate())

	s.Kind = "bogus"
	require.Error(t, s.Validate())

	s = Signal{Kind: SignalHotFile}
	require.Error(t, s.Validate())
}

func TestSignalKindIsValid(t *testing.T) {
	for _, k := range []SignalKind{SignalFixCommit, SignalRepeatedModification, SignalRepeatedLearning, SignalHotFile} {
		assert.True(t, k.IsValid(), string(k))
	}
	assert.False(t, SignalKind("other").IsValid())
}
