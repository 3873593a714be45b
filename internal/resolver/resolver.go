package resolver

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/ctxlog"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/reconcile"
	"github.com/modelgrid/modelgrid/internal/reuse"
	"github.com/modelgrid/modelgrid/internal/runctx"
	"github.com/modelgrid/modelgrid/internal/stage"
	"github.com/modelgrid/modelgrid/internal/store"
)

// Resolver resolves model references against a store. It holds no
// per-resolution state; a single Resolver is safe to share across
// concurrently executing steps.
type Resolver struct {
	store store.Store
	sleep sleeper
}

// New creates a resolver backed by the given store.
func New(st store.Store) *Resolver {
	return &Resolver{store: st, sleep: sleepWithContext}
}

// resolveOptions tune one resolve call. The zero value gives the default
// semantics: a selector miss is terminal.
type resolveOptions struct {
	// createMissing turns an explicit-name miss into a creation under that
	// name. Used for pre-launch preparation of templated names; stage and
	// numeric selectors stay reserved and never create.
	createMissing bool
}

// Resolve runs the get-or-create state machine for the reference and returns
// the immutable outcome. The reference itself is not modified; the caller
// decides whether to cache the result via Adopt. A cached resolution is
// returned as-is without touching the store.
func (r *Resolver) Resolve(ctx context.Context, ref *modelref.Ref) (modelref.Resolution, error) {
	return r.resolve(ctx, ref, resolveOptions{})
}

// ResolveLazy runs the full state machine for a deferred handle captured at
// definition time.
func (r *Resolver) ResolveLazy(ctx context.Context, lazy *modelref.LazyRef) (modelref.Resolution, error) {
	return r.resolve(ctx, lazy.Ref(), resolveOptions{})
}

// CreateVersion explicitly creates a named version for the reference's
// model. Names colliding with the reserved stage or numeric namespaces are
// refused before any store call.
func (r *Resolver) CreateVersion(ctx context.Context, ref *modelref.Ref, name string) (modelref.Resolution, error) {
	if err := validateCreatableName(ref.Name, name); err != nil {
		return modelref.Resolution{}, err
	}
	model, err := r.resolveModel(ctx, ref)
	if err != nil {
		return modelref.Resolution{}, err
	}
	return r.createVersion(ctx, model, ref, name)
}

// Defer returns a lazy handle when the context is a pipeline definition
// context, where store I/O must not happen. Outside a definition context it
// returns false and the caller should resolve normally.
func Defer(ctx context.Context, ref *modelref.Ref) (*modelref.LazyRef, bool) {
	if !runctx.IsDefinition(ctx) {
		return nil, false
	}
	return modelref.NewLazy(ref), true
}

func (r *Resolver) resolve(ctx context.Context, ref *modelref.Ref, opts resolveOptions) (modelref.Resolution, error) {
	if res, ok := ref.Resolved(); ok {
		return res, nil
	}

	// Step 1: parent model.
	model, err := r.resolveModel(ctx, ref)
	if err != nil {
		return modelref.Resolution{}, err
	}

	sel := ref.Selector

	// Step 2: with no selector, a version created earlier in this run wins
	// without any store call.
	if sel.IsUnset() {
		if hit, ok := r.reuseHit(ctx, ref.Name); ok {
			return resolutionFromHit(hit, model.ID), nil
		}
	}

	// Step 3: selector-directed fetch.
	if !sel.IsUnset() {
		version, err := r.store.FindVersion(ctx, ref.Name, sel, r.wantHydrated(ref))
		if err == nil {
			r.reconcileFetched(ctx, ref, version)
			return resolutionFromVersion(version, false), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			// Transient store failures pass through unretried.
			return modelref.Resolution{}, err
		}
		if opts.createMissing {
			if reservedErr := validateCreatableName(ref.Name, sel.Token()); reservedErr != nil {
				return modelref.Resolution{}, reservedErr
			}
			return r.createVersion(ctx, model, ref, sel.Name())
		}
		return modelref.Resolution{}, &NotFoundError{ModelName: ref.Name, Selector: sel}
	}

	// Step 4: nothing declared and nothing to reuse; create a new version.
	return r.createVersion(ctx, model, ref, "")
}

// resolveModel looks the parent model up by name and creates it implicitly
// on a miss. Losing the creation race to a concurrent caller is reconciled
// by a single re-fetch; any other creation failure is surfaced immediately.
func (r *Resolver) resolveModel(ctx context.Context, ref *modelref.Ref) (*store.Model, error) {
	model, err := r.store.FindModel(ctx, ref.Name)
	if err == nil {
		return model, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	model, created, err := createOrFetch(ctx,
		func(ctx context.Context) (*store.Model, error) {
			return r.store.CreateModel(ctx, store.ModelSpec{
				Name:        ref.Name,
				License:     ref.License,
				Description: ref.Description,
				Audience:    ref.Audience,
				UseCases:    ref.UseCases,
				Limitations: ref.Limitations,
				TradeOffs:   ref.TradeOffs,
				Ethics:      ref.Ethics,
			})
		},
		func(ctx context.Context) (*store.Model, error) {
			return r.store.FindModel(ctx, ref.Name)
		},
	)
	if err != nil {
		return nil, err
	}
	if created {
		ctxlog.FromContext(ctx).Info("New model was created implicitly.", "model", ref.Name)
	}
	return model, nil
}

// createVersion creates a version, retrying uniqueness conflicts with
// backoff. Between attempts the run-scoped reuse index is consulted again:
// when the conflicting creator was another step of the same run, its version
// is adopted instead of fighting for a new one.
func (r *Resolver) createVersion(ctx context.Context, model *store.Model, ref *modelref.Ref, name string) (modelref.Resolution, error) {
	if err := validateCreatableName(ref.Name, name); err != nil {
		return modelref.Resolution{}, err
	}

	logger := ctxlog.FromContext(ctx).With("model", ref.Name)

	res, attempts, err := retryOnConflict(ctx, maxCreateAttempts, r.sleep,
		func(ctx context.Context) (modelref.Resolution, error) {
			if name == "" {
				if hit, ok := r.reuseHit(ctx, ref.Name); ok {
					return resolutionFromHit(hit, model.ID), nil
				}
			}
			version, err := r.store.CreateVersion(ctx, store.VersionSpec{
				ModelID:     model.ID,
				ModelName:   ref.Name,
				Name:        name,
				Description: ref.Description,
				Tags:        ref.Tags,
			})
			if err != nil {
				return modelref.Resolution{}, err
			}
			return resolutionFromVersion(version, true), nil
		})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return modelref.Resolution{}, &ExhaustedRetriesError{
				ModelName:   ref.Name,
				VersionName: name,
				Attempts:    attempts,
				Err:         err,
			}
		}
		return modelref.Resolution{}, err
	}
	if res.Created {
		logger.Info("Created new model version.", "version", res.VersionName)
	}
	return res, nil
}

// reuseHit consults the run-scoped reuse index, when executing under a run.
func (r *Resolver) reuseHit(ctx context.Context, name string) (reuse.Hit, bool) {
	run, ok := runctx.Current(ctx)
	if !ok {
		return reuse.Hit{}, false
	}
	hit, ok := reuse.NewIndex(run).Lookup(name)
	if ok {
		ctxlog.FromContext(ctx).Debug("Reusing model version created earlier in this run.",
			"model", name, "version", hit.VersionName)
	}
	return hit, ok
}

// reconcileFetched diffs declared metadata against a fetched version and
// reports mismatches as warnings. Never runs for fresh creations.
func (r *Resolver) reconcileFetched(ctx context.Context, ref *modelref.Ref, version *store.ModelVersion) {
	if ref.Description == "" && len(ref.Tags) == 0 {
		return
	}
	d := reconcile.Compare(reconcile.Declared{
		Description: ref.Description,
		Tags:        ref.Tags,
	}, version)
	reconcile.Report(ctx, ref.Name, version.Name, d)
}

// wantHydrated decides whether a fetch needs metadata-bearing fields: only
// when a declared description must be reconciled against the stored one.
func (r *Resolver) wantHydrated(ref *modelref.Ref) bool {
	return ref.Description != ""
}

// validateCreatableName refuses creation under reserved names. An empty name
// asks the store to derive one and is always legal.
func validateCreatableName(modelName, name string) error {
	if name == "" {
		return nil
	}
	if stage.Is(name) {
		return &ReservedNameError{ModelName: modelName, Requested: name, IsStage: true}
	}
	if _, err := strconv.Atoi(name); err == nil {
		return &ReservedNameError{ModelName: modelName, Requested: name}
	}
	return nil
}

func resolutionFromVersion(v *store.ModelVersion, created bool) modelref.Resolution {
	return modelref.Resolution{
		ModelID:     v.ModelID,
		VersionID:   v.ID,
		VersionName: v.Name,
		Number:      v.Number,
		Stage:       v.Stage,
		Created:     created,
	}
}

func resolutionFromHit(hit reuse.Hit, modelID uuid.UUID) modelref.Resolution {
	if hit.ModelID != uuid.Nil {
		modelID = hit.ModelID
	}
	return modelref.Resolution{
		ModelID:     modelID,
		VersionID:   hit.VersionID,
		VersionName: hit.VersionName,
		Number:      hit.Number,
	}
}
