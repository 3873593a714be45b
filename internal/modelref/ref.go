package modelref

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/stage"
)

// Resolution is the immutable outcome of resolving a reference against the
// control plane. The resolver returns it from a pure resolve call; the caller
// decides whether to cache it onto a Ref via Adopt. Keeping the result
// separate from the reference prevents stale resolution state from leaking
// between runs when an embedder reuses a Ref object.
type Resolution struct {
	ModelID     uuid.UUID
	VersionID   uuid.UUID
	VersionName string
	Number      int
	Stage       stage.Stage
	// Created is true only when this resolution performed the creation, not
	// when it fetched or reused an existing version.
	Created bool
}

// Ref is a reference to a model version: a model name, an optional version
// selector, and the descriptive metadata the caller declared alongside it.
//
// A Ref is owned by a single caller and is not safe for concurrent
// resolution; use Copy before handing it to a concurrently executing step.
type Ref struct {
	Name        string
	License     string
	Description string
	Audience    string
	UseCases    string
	Limitations string
	TradeOffs   string
	Ethics      string
	Tags        []string
	Selector    Selector

	// resolved caches the adopted resolution. Write-once: once set it is
	// never overwritten for the lifetime of this Ref.
	resolved *Resolution
}

// Adopt caches a resolution onto the reference and pins the selector to the
// resolved version name so later resolutions in the same run fetch instead
// of create. Adopting is write-once; a second call is ignored.
func (r *Ref) Adopt(res Resolution) {
	if r.resolved != nil {
		return
	}
	r.resolved = &res
	if r.Selector.IsUnset() && res.VersionName != "" {
		r.Selector = ExplicitSelector(res.VersionName)
	}
}

// Resolved returns the cached resolution, if any.
func (r *Ref) Resolved() (Resolution, bool) {
	if r.resolved == nil {
		return Resolution{}, false
	}
	return *r.resolved, true
}

// CreatedThisRun reports whether this reference's resolution created a new
// version in the current run.
func (r *Ref) CreatedThisRun() bool {
	return r.resolved != nil && r.resolved.Created
}

// Copy returns an independent copy of the reference. The copy shares no
// mutable state with the original, so it can be resolved on another
// goroutine or mutated for one step without corrupting the declaring
// configuration.
func (r *Ref) Copy() *Ref {
	clone := *r
	if r.Tags != nil {
		clone.Tags = append([]string(nil), r.Tags...)
	}
	if r.resolved != nil {
		res := *r.resolved
		clone.resolved = &res
	}
	return &clone
}

// CopyForRun returns a copy with the cached resolution cleared, for reuse of
// the same declared configuration in a fresh run scope.
func (r *Ref) CopyForRun() *Ref {
	clone := r.Copy()
	clone.resolved = nil
	return clone
}

// Merge fills unset descriptive fields from another reference of the same
// model and unions the tag sets. The selector and any cached resolution are
// left untouched.
func (r *Ref) Merge(other *Ref) {
	if other == nil {
		return
	}
	if r.License == "" {
		r.License = other.License
	}
	if r.Description == "" {
		r.Description = other.Description
	}
	if r.Audience == "" {
		r.Audience = other.Audience
	}
	if r.UseCases == "" {
		r.UseCases = other.UseCases
	}
	if r.Limitations == "" {
		r.Limitations = other.Limitations
	}
	if r.TradeOffs == "" {
		r.TradeOffs = other.TradeOffs
	}
	if r.Ethics == "" {
		r.Ethics = other.Ethics
	}
	if other.Tags != nil {
		seen := make(map[string]struct{}, len(r.Tags))
		for _, t := range r.Tags {
			seen[t] = struct{}{}
		}
		for _, t := range other.Tags {
			if _, ok := seen[t]; !ok {
				r.Tags = append(r.Tags, t)
			}
		}
	}
}

// Equal reports whether two references identify the same model version.
// Identity is (name, selector); two references with differing selectors are
// still equal when both already resolved to the same version id. Equal never
// triggers resolution.
func (r *Ref) Equal(other *Ref) bool {
	if other == nil {
		return false
	}
	if r.Name != other.Name {
		return false
	}
	if r.Selector.Equal(other.Selector) {
		return true
	}
	if r.resolved != nil && other.resolved != nil {
		return r.resolved.VersionID == other.resolved.VersionID
	}
	return false
}

// LazySelector returns a selector safe for deferred lookup: it pins the
// resolved version number when known and otherwise reuses the declared
// selector. It never triggers resolution.
func (r *Ref) LazySelector() Selector {
	if r.resolved != nil && r.resolved.Number > 0 {
		return Selector{kind: SelectorNumeric, number: r.resolved.Number}
	}
	return r.Selector
}

// LazyVersionName returns the best-known version identity as a string, for
// display and run-scoped reuse. Empty when nothing is known yet.
func (r *Ref) LazyVersionName() string {
	if r.resolved != nil {
		if r.resolved.VersionName != "" {
			return r.resolved.VersionName
		}
		if r.resolved.Number > 0 {
			return strconv.Itoa(r.resolved.Number)
		}
	}
	return r.Selector.Token()
}
