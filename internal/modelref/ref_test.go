package modelref

import (
	"testing"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_AdoptIsWriteOnce(t *testing.T) {
	t.Parallel()

	// Arrange
	ref := &Ref{Name: "churn"}
	first := Resolution{
		ModelID:     uuid.New(),
		VersionID:   uuid.New(),
		VersionName: "1",
		Number:      1,
		Created:     true,
	}
	second := Resolution{VersionID: uuid.New(), VersionName: "2", Number: 2}

	// Act
	ref.Adopt(first)
	ref.Adopt(second)

	// Assert
	got, ok := ref.Resolved()
	require.True(t, ok)
	assert.Equal(t, first.VersionID, got.VersionID, "second adopt must be ignored")
	assert.True(t, ref.CreatedThisRun())
}

func TestRef_AdoptPinsUnsetSelectorToVersionName(t *testing.T) {
	t.Parallel()

	ref := &Ref{Name: "churn"}
	require.True(t, ref.Selector.IsUnset())

	ref.Adopt(Resolution{VersionID: uuid.New(), VersionName: "1", Number: 1, Created: true})

	assert.Equal(t, SelectorExplicit, ref.Selector.Kind())
	assert.Equal(t, "1", ref.Selector.Name())
}

func TestRef_AdoptKeepsDeclaredSelector(t *testing.T) {
	t.Parallel()

	ref := &Ref{Name: "churn", Selector: ExplicitSelector("v1")}
	ref.Adopt(Resolution{VersionID: uuid.New(), VersionName: "v1", Number: 3})

	assert.Equal(t, "v1", ref.Selector.Name())
	assert.False(t, ref.CreatedThisRun(), "a fetched version was not created this run")
}

func TestRef_CopyIsIndependent(t *testing.T) {
	t.Parallel()

	// Arrange
	original := &Ref{
		Name: "churn",
		Tags: []string{"a", "b"},
	}
	original.Adopt(Resolution{VersionID: uuid.New(), VersionName: "1", Number: 1, Created: true})

	// Act
	clone := original.Copy()
	clone.Tags[0] = "mutated"
	clone.Description = "changed"

	// Assert
	assert.Equal(t, "a", original.Tags[0], "tag slice must not be shared")
	assert.Empty(t, original.Description)

	cloneRes, ok := clone.Resolved()
	require.True(t, ok, "copy keeps the cached resolution")
	origRes, _ := original.Resolved()
	assert.Equal(t, origRes.VersionID, cloneRes.VersionID)
}

func TestRef_CopyForRunClearsResolution(t *testing.T) {
	t.Parallel()

	original := &Ref{Name: "churn"}
	original.Adopt(Resolution{VersionID: uuid.New(), VersionName: "1", Created: true})

	fresh := original.CopyForRun()

	_, ok := fresh.Resolved()
	assert.False(t, ok, "a run-scoped copy starts unresolved")
	assert.False(t, fresh.CreatedThisRun())
}

func TestRef_MergeFillsEmptyFieldsAndUnionsTags(t *testing.T) {
	t.Parallel()

	// Arrange
	dst := &Ref{
		Name:        "churn",
		Description: "mine",
		Tags:        []string{"a", "b"},
		Selector:    ExplicitSelector("v1"),
	}
	src := &Ref{
		Name:        "churn",
		License:     "Apache-2.0",
		Description: "theirs",
		Tags:        []string{"b", "c"},
		Selector:    ExplicitSelector("v2"),
	}

	// Act
	dst.Merge(src)

	// Assert
	assert.Equal(t, "Apache-2.0", dst.License, "empty fields fill from the other ref")
	assert.Equal(t, "mine", dst.Description, "non-empty fields stay untouched")
	assert.Equal(t, []string{"a", "b", "c"}, dst.Tags)
	assert.Equal(t, "v1", dst.Selector.Name(), "merge never touches the selector")
}

func TestRef_MergeWithNilIsNoop(t *testing.T) {
	t.Parallel()

	ref := &Ref{Name: "churn", Tags: []string{"a"}}
	ref.Merge(nil)
	assert.Equal(t, []string{"a"}, ref.Tags)
}

func TestRef_Equal(t *testing.T) {
	t.Parallel()

	a := &Ref{Name: "churn", Selector: ExplicitSelector("v1")}
	b := &Ref{Name: "churn", Selector: ExplicitSelector("v1")}
	assert.True(t, a.Equal(b), "same name and selector")

	c := &Ref{Name: "churn", Selector: ExplicitSelector("v2")}
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	// Different selectors but both resolved to the same version id.
	id := uuid.New()
	d := &Ref{Name: "churn", Selector: ExplicitSelector("v1")}
	e := &Ref{Name: "churn"}
	d.Adopt(Resolution{VersionID: id, VersionName: "v1"})
	e.Adopt(Resolution{VersionID: id, VersionName: "v1"})
	assert.True(t, d.Equal(e))
}

func TestRef_LazySelectorPinsResolvedNumber(t *testing.T) {
	t.Parallel()

	ref := &Ref{Name: "churn", Selector: ParseSelector(quietCtx(), "production")}
	require.Equal(t, SelectorStage, ref.Selector.Kind())
	require.Equal(t, stage.Production, ref.Selector.Stage())

	// Unresolved: the declared selector passes through.
	assert.Equal(t, SelectorStage, ref.LazySelector().Kind())

	// Resolved: the number pins the lazy lookup so a later promotion cannot
	// move it to a different version.
	ref.Adopt(Resolution{VersionID: uuid.New(), VersionName: "7", Number: 7})
	lazy := ref.LazySelector()
	assert.Equal(t, SelectorNumeric, lazy.Kind())
	assert.Equal(t, 7, lazy.Number())
}

func TestNewLazy_CapturesIdentityWithoutMetadata(t *testing.T) {
	t.Parallel()

	// Arrange
	ref := &Ref{
		Name:        "churn",
		Description: "a description that must not travel",
		Selector:    ExplicitSelector("v1"),
	}
	ref.Adopt(Resolution{VersionID: uuid.New(), VersionName: "v1", Number: 4})

	// Act
	lazy := NewLazy(ref)
	materialized := lazy.Ref()

	// Assert
	assert.Equal(t, "churn", lazy.ModelName)
	assert.Equal(t, SelectorNumeric, lazy.ModelSelector.Kind())
	assert.Equal(t, 4, lazy.ModelSelector.Number())
	assert.Equal(t, "churn", materialized.Name)
	assert.Empty(t, materialized.Description, "lazy handles carry no declared metadata")
}
