// Package reconcile compares a caller-declared model version configuration
// against the version actually stored in the control plane and surfaces the
// differences as warnings.
//
// The comparison is strictly non-destructive: it never mutates either side,
// never writes, and never fails a resolution. It only runs when a version
// was fetched — a freshly created version has nothing to diff against.
package reconcile

import (
	"context"
	"sort"

	"github.com/modelgrid/modelgrid/internal/ctxlog"
	"github.com/modelgrid/modelgrid/internal/store"
)

// Declared is the caller-side configuration to compare. Empty fields mean
// "nothing declared" and are skipped.
type Declared struct {
	Description string
	Tags        []string
}

// FieldDiff is a single-field mismatch between declared and stored values.
type FieldDiff struct {
	Declared string
	Stored   string
}

// Diff is the structured result of a comparison.
type Diff struct {
	Description *FieldDiff
	TagsAdded   []string
	TagsRemoved []string
}

// Empty reports whether nothing differed (or nothing was declared).
func (d Diff) Empty() bool {
	return d.Description == nil && len(d.TagsAdded) == 0 && len(d.TagsRemoved) == 0
}

// Compare diffs the declared configuration against a fetched version. The
// description is only compared when the version was fetched hydrated, since
// a non-hydrated version elides it.
func Compare(declared Declared, stored *store.ModelVersion) Diff {
	var d Diff

	if declared.Description != "" && stored.Hydrated && stored.Description != declared.Description {
		d.Description = &FieldDiff{Declared: declared.Description, Stored: stored.Description}
	}

	if len(declared.Tags) > 0 {
		declaredSet := toSet(declared.Tags)
		storedSet := toSet(stored.Tags)
		for t := range declaredSet {
			if _, ok := storedSet[t]; !ok {
				d.TagsAdded = append(d.TagsAdded, t)
			}
		}
		for t := range storedSet {
			if _, ok := declaredSet[t]; !ok {
				d.TagsRemoved = append(d.TagsRemoved, t)
			}
		}
		sort.Strings(d.TagsAdded)
		sort.Strings(d.TagsRemoved)
	}

	return d
}

// Report logs a non-empty diff as a warning. Findings never abort
// resolution; updating the stored version is a deliberate separate action.
func Report(ctx context.Context, modelName, versionName string, d Diff) {
	if d.Empty() {
		return
	}
	logger := ctxlog.FromContext(ctx).With("model", modelName, "version", versionName)
	attrs := make([]any, 0, 6)
	if d.Description != nil {
		attrs = append(attrs, "declared_description", d.Description.Declared, "stored_description", d.Description.Stored)
	}
	if len(d.TagsAdded) > 0 {
		attrs = append(attrs, "tags_added", d.TagsAdded)
	}
	if len(d.TagsRemoved) > 0 {
		attrs = append(attrs, "tags_removed", d.TagsRemoved)
	}
	logger.Warn("Declared model version configuration does not match the stored version; stored values are left untouched.", attrs...)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
