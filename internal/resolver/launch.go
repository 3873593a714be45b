package resolver

import (
	"context"

	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/nametmpl"
	"github.com/modelgrid/modelgrid/internal/runctx"
)

// PrepareForLaunch readies a declared reference just before a run or step
// launches. It works on a copy so the declaring configuration survives
// reuse across runs, then:
//
//   - adopts the run-level binding when preparing a step that declared no
//     override of its own (step == nil means the step rides the run-level
//     reference),
//   - fills {date}/{time} placeholders in an explicit version name from the
//     run's start time, so every step of the run formats the same name,
//   - resolves the reference when it has no binding yet, allowing a fresh
//     templated name to create its version, and
//   - records the resulting binding on the step or the run in the store.
//
// The prepared copy is returned for the caller to install into the run's
// configuration.
func (r *Resolver) PrepareForLaunch(ctx context.Context, ref *modelref.Ref, step *runctx.StepConfig) (*modelref.Ref, error) {
	run, ok := runctx.Current(ctx)
	if !ok {
		return nil, &modelref.InvalidRefError{
			Field:  "run",
			Detail: "PrepareForLaunch called outside an execution context",
		}
	}

	prepared := ref.Copy()

	if step == nil && run.Ref != nil {
		if res, resolved := run.Ref.Resolved(); resolved {
			// Riding the run-level binding is a reuse, not a creation. The
			// copy may already carry the binding when ref is the run-level
			// reference itself; rebuild it so the reuse marking sticks.
			res.Created = false
			prepared = ref.CopyForRun()
			prepared.Adopt(res)
		}
	} else if sel := prepared.Selector; sel.Kind() == modelref.SelectorExplicit && nametmpl.HasPlaceholders(sel.Name()) {
		formatted := nametmpl.Format(sel.Name(), run.StartTime)
		prepared.Selector = modelref.ParseSelector(ctx, formatted)
	}

	if _, resolved := prepared.Resolved(); !resolved {
		res, err := r.resolve(ctx, prepared, resolveOptions{createMissing: true})
		if err != nil {
			return nil, err
		}
		prepared.Adopt(res)

		if step != nil {
			if err := r.store.UpdateStepBinding(ctx, step.ID, res.VersionID); err != nil {
				return nil, err
			}
		} else {
			if err := r.store.UpdateRunBinding(ctx, run.ID, res.VersionID); err != nil {
				return nil, err
			}
		}
	}
	return prepared, nil
}
