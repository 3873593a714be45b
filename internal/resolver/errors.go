package resolver

import (
	"fmt"

	"github.com/modelgrid/modelgrid/internal/modelref"
)

// NotFoundError reports that a selector matched nothing. It distinguishes
// "this version does not exist yet" from the selector-less case where a
// missing version would have been created instead.
type NotFoundError struct {
	ModelName string
	Selector  modelref.Selector
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("version %q of model %q does not exist and cannot be fetched from the model control plane",
		e.Selector.Token(), e.ModelName)
}

// ReservedNameError reports an attempt to create a version under a name the
// store reserves: a stage word or a purely numeric token. The refusal
// happens before any create call reaches the store.
type ReservedNameError struct {
	ModelName string
	Requested string
	// IsStage is true when the name collided with a stage word, false when
	// it was numeric.
	IsStage bool
}

// Error implements the error interface.
func (e *ReservedNameError) Error() string {
	if e.IsStage {
		return fmt.Sprintf("cannot create version %q of model %q: the name matches a model stage; "+
			"to fetch a version by stage, make sure a version was promoted to that stage first",
			e.Requested, e.ModelName)
	}
	return fmt.Sprintf("cannot create version %q of model %q: numeric names are reserved for "+
		"store-assigned version numbers; to fetch a version by number, make sure that version exists",
		e.Requested, e.ModelName)
}

// ExhaustedRetriesError reports that version creation conflicted on every
// attempt up to the budget. It carries enough identity to tell a race
// exhaustion apart from a plain miss.
type ExhaustedRetriesError struct {
	ModelName   string
	VersionName string
	Attempts    int
	Err         error
}

// Error implements the error interface.
func (e *ExhaustedRetriesError) Error() string {
	name := e.VersionName
	if name == "" {
		name = "new"
	}
	return fmt.Sprintf("failed to create version %q of model %q after %d attempts; "+
		"this points at exceptionally high concurrency of runs against the same model",
		name, e.ModelName, e.Attempts)
}

// Unwrap exposes the final conflict error.
func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}
