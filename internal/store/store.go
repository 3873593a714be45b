// Package store defines the contract between the resolver and the versioned
// entity store of the model control plane. Implementations live in the
// memory and rest subpackages.
//
// The interface is deliberately small: the resolver treats the store as the
// single source of truth for name uniqueness and version numbering, and
// relies on ErrAlreadyExists as its only conflict-detection signal. No
// client-side locking is layered on top.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/stage"
)

// ErrNotFound is returned when no entity matches a lookup.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a create collides with an existing
// entity. For version creation this is the signal that another run won the
// race and the caller should retry or re-fetch.
var ErrAlreadyExists = errors.New("already exists")

// Model is a named model entity. It is created at most once per name;
// the store enforces uniqueness.
type Model struct {
	ID          uuid.UUID
	Name        string
	License     string
	Description string
	Audience    string
	UseCases    string
	Limitations string
	TradeOffs   string
	Ethics      string
}

// ModelVersion is a single version of a model. Number is assigned by the
// store atomically at creation, monotonic per model, and immutable.
type ModelVersion struct {
	ID          uuid.UUID
	ModelID     uuid.UUID
	Number      int
	Name        string
	Stage       stage.Stage
	Description string
	Tags        []string
	Metadata    map[string]string
	// Hydrated reports whether metadata-bearing fields were populated by the
	// lookup that produced this value.
	Hydrated bool
}

// ModelSpec is the request payload for creating a model.
type ModelSpec struct {
	Name        string
	License     string
	Description string
	Audience    string
	UseCases    string
	Limitations string
	TradeOffs   string
	Ethics      string
}

// VersionSpec is the request payload for creating a model version. An empty
// Name asks the store to derive one server-side (the next version number);
// uniqueness of the derived name is what surfaces creation races.
type VersionSpec struct {
	ModelID     uuid.UUID
	ModelName   string
	Name        string
	Description string
	Tags        []string
}

// Store is the versioned-entity store the resolver runs against.
type Store interface {
	// FindModel looks a model up by name. Returns ErrNotFound on a miss.
	FindModel(ctx context.Context, name string) (*Model, error)

	// CreateModel creates a model. Returns ErrAlreadyExists when the name is
	// taken, which callers reconcile by re-fetching.
	CreateModel(ctx context.Context, spec ModelSpec) (*Model, error)

	// FindVersion resolves a selector against a model's versions: explicit
	// selectors match by version name, numeric by number, stage by current
	// stage, and an unset selector matches the newest version. Returns
	// ErrNotFound on a miss. When hydrate is true, metadata-bearing fields
	// are populated.
	FindVersion(ctx context.Context, modelName string, sel modelref.Selector, hydrate bool) (*ModelVersion, error)

	// FindVersionByID fetches a version directly by id.
	FindVersionByID(ctx context.Context, id uuid.UUID, hydrate bool) (*ModelVersion, error)

	// CreateVersion creates a version, assigning its number atomically.
	// Returns ErrAlreadyExists when the (model, name) pair is taken.
	CreateVersion(ctx context.Context, spec VersionSpec) (*ModelVersion, error)

	// UpdateRunBinding records which version a run ultimately used.
	UpdateRunBinding(ctx context.Context, runID, versionID uuid.UUID) error

	// UpdateStepBinding records which version a step ultimately used.
	UpdateStepBinding(ctx context.Context, stepID, versionID uuid.UUID) error
}
