// Package reuse provides the run-scoped reuse index: a read-only query that
// answers whether a version for a model name was already created earlier in
// the current run.
//
// The index exists to uphold one ordering guarantee: once any reference in a
// run creates a version for a name, every later selector-less resolution of
// that name in the same run must observe the same version. It is a derived
// view over configuration the run has already materialized — it never
// creates anything and performs no store I/O.
package reuse

import (
	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/runctx"
)

// Hit is a prior resolution found in the current run. It carries enough
// identity for the resolver to short-circuit without a store call.
type Hit struct {
	VersionName string
	VersionID   uuid.UUID
	ModelID     uuid.UUID
	Number      int
}

// Index queries one run's already-materialized references.
type Index struct {
	run *runctx.Run
}

// NewIndex builds an index over the given run.
func NewIndex(run *runctx.Run) *Index {
	return &Index{run: run}
}

// Lookup searches for a prior resolution of the given model name: the run's
// own top-level reference first, then every already-configured step in
// declaration order. Only references that created their version in this run
// and know their version identity count; the first match wins.
func (ix *Index) Lookup(name string) (Hit, bool) {
	if ix == nil || ix.run == nil {
		return Hit{}, false
	}
	if hit, ok := match(ix.run.Ref, name); ok {
		return hit, true
	}
	for _, step := range ix.run.Steps() {
		if hit, ok := match(step.Ref, name); ok {
			return hit, true
		}
	}
	return Hit{}, false
}

// match checks one reference against the target name.
func match(ref *modelref.Ref, name string) (Hit, bool) {
	if ref == nil || ref.Name != name || !ref.CreatedThisRun() {
		return Hit{}, false
	}
	res, ok := ref.Resolved()
	if !ok || res.VersionID == uuid.Nil {
		return Hit{}, false
	}
	return Hit{
		VersionName: res.VersionName,
		VersionID:   res.VersionID,
		ModelID:     res.ModelID,
		Number:      res.Number,
	}, true
}
