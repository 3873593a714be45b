package modelref

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/modelgrid/modelgrid/internal/ctxlog"
	"github.com/modelgrid/modelgrid/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietCtx returns a context whose classification notices go nowhere.
func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestParseSelector_EmptyTokenIsUnset(t *testing.T) {
	t.Parallel()

	sel := ParseSelector(quietCtx(), "")
	assert.Equal(t, SelectorUnset, sel.Kind())
	assert.True(t, sel.IsUnset())
	assert.Empty(t, sel.Token())

	sel = ParseSelector(quietCtx(), "   ")
	assert.True(t, sel.IsUnset())
}

func TestParseSelector_StageTokensClassifyAsStage(t *testing.T) {
	t.Parallel()

	// Stage classification is case-insensitive and wins over a literal
	// interpretation of the same token.
	for _, token := range []string{"production", "Production", "STAGING", "latest", "archived"} {
		sel := ParseSelector(quietCtx(), token)
		require.Equal(t, SelectorStage, sel.Kind(), "token %q", token)
	}

	sel := ParseSelector(quietCtx(), "production")
	assert.Equal(t, stage.Production, sel.Stage())
	assert.Equal(t, "production", sel.Token())
}

func TestParseSelector_NumericTokensClassifyAsNumeric(t *testing.T) {
	t.Parallel()

	sel := ParseSelector(quietCtx(), "7")
	require.Equal(t, SelectorNumeric, sel.Kind())
	assert.Equal(t, 7, sel.Number())
	assert.Equal(t, "7", sel.Token())

	sel = ParseSelector(quietCtx(), "42")
	assert.Equal(t, SelectorNumeric, sel.Kind())
}

func TestParseSelector_EverythingElseIsExplicit(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"v1", "release_2024", "my-version", "1.2.3", "-5"} {
		sel := ParseSelector(quietCtx(), token)
		require.Equal(t, SelectorExplicit, sel.Kind(), "token %q", token)
		assert.Equal(t, token, sel.Name())
		assert.Equal(t, token, sel.Token())
	}
}

func TestSelector_Equal(t *testing.T) {
	t.Parallel()

	a := ParseSelector(quietCtx(), "production")
	b := ParseSelector(quietCtx(), "PRODUCTION")
	assert.True(t, a.Equal(b), "stage selectors normalize case")

	c := ParseSelector(quietCtx(), "v1")
	d := ParseSelector(quietCtx(), "v2")
	assert.False(t, c.Equal(d))
	assert.False(t, a.Equal(c))
}

func TestExplicitSelector_SkipsReclassification(t *testing.T) {
	t.Parallel()

	// Store-assigned names are numeric; adopting one must not flip the
	// selector into the numeric namespace.
	sel := ExplicitSelector("1")
	assert.Equal(t, SelectorExplicit, sel.Kind())
	assert.Equal(t, "1", sel.Name())
}
