package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KnownStages(t *testing.T) {
	t.Parallel()

	cases := map[string]Stage{
		"none":       None,
		"staging":    Staging,
		"production": Production,
		"latest":     Latest,
		"archived":   Archived,
	}
	for token, want := range cases {
		got, ok := Parse(token)
		require.True(t, ok, "expected %q to parse as a stage", token)
		assert.Equal(t, want, got)
	}
}

func TestParse_IsCaseInsensitive(t *testing.T) {
	t.Parallel()

	got, ok := Parse("PRODUCTION")
	require.True(t, ok)
	assert.Equal(t, Production, got)

	got, ok = Parse("  Staging ")
	require.True(t, ok)
	assert.Equal(t, Staging, got)
}

func TestParse_RejectsNonStages(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "prod", "v1", "release_2024", "7"} {
		_, ok := Parse(token)
		assert.False(t, ok, "%q should not parse as a stage", token)
	}
}

func TestValues_ContainsAllStages(t *testing.T) {
	t.Parallel()

	values := Values()
	assert.Equal(t, []string{"none", "staging", "production", "latest", "archived"}, values)
}
