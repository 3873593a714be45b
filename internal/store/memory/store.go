// Package memory provides an ephemeral, thread-safe, in-memory
// implementation of the store.Store interface.
//
// # Purpose
//
// This package backs tests and local single-process runs. It enforces the
// same uniqueness guarantees a remote control plane would: model names are
// unique, version names are unique per model, and version numbers are
// assigned atomically at creation.
//
// # Concurrency Model
//
// Unlike a pure state cache, version creation here must atomically
// check-and-assign the next version number, so the store uses a single
// RWMutex rather than sync.Map: creations are rare and must be serialized,
// lookups take the read lock.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/stage"
	"github.com/modelgrid/modelgrid/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu           sync.RWMutex
	models       map[string]*store.Model          // key: model name
	versions     map[uuid.UUID][]*store.ModelVersion // key: model id, ordered by number
	runBindings  map[uuid.UUID]uuid.UUID
	stepBindings map[uuid.UUID]uuid.UUID
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{
		models:       make(map[string]*store.Model),
		versions:     make(map[uuid.UUID][]*store.ModelVersion),
		runBindings:  make(map[uuid.UUID]uuid.UUID),
		stepBindings: make(map[uuid.UUID]uuid.UUID),
	}
}

// FindModel looks a model up by name.
func (s *Store) FindModel(ctx context.Context, name string) (*store.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

// CreateModel creates a model, enforcing name uniqueness.
func (s *Store) CreateModel(ctx context.Context, spec store.ModelSpec) (*store.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[spec.Name]; ok {
		return nil, store.ErrAlreadyExists
	}
	m := &store.Model{
		ID:          uuid.New(),
		Name:        spec.Name,
		License:     spec.License,
		Description: spec.Description,
		Audience:    spec.Audience,
		UseCases:    spec.UseCases,
		Limitations: spec.Limitations,
		TradeOffs:   spec.TradeOffs,
		Ethics:      spec.Ethics,
	}
	s.models[spec.Name] = m
	clone := *m
	return &clone, nil
}

// FindVersion resolves a selector against a model's versions.
func (s *Store) FindVersion(ctx context.Context, modelName string, sel modelref.Selector, hydrate bool) (*store.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[modelName]
	if !ok {
		return nil, store.ErrNotFound
	}
	versions := s.versions[m.ID]
	if len(versions) == 0 {
		return nil, store.ErrNotFound
	}

	switch sel.Kind() {
	case modelref.SelectorExplicit:
		for _, v := range versions {
			if v.Name == sel.Name() {
				return cloneVersion(v, hydrate), nil
			}
		}
	case modelref.SelectorNumeric:
		for _, v := range versions {
			if v.Number == sel.Number() {
				return cloneVersion(v, hydrate), nil
			}
		}
	case modelref.SelectorStage:
		if sel.Stage() == stage.Latest {
			return cloneVersion(versions[len(versions)-1], hydrate), nil
		}
		// Newest version holding the stage wins.
		for i := len(versions) - 1; i >= 0; i-- {
			if versions[i].Stage == sel.Stage() {
				return cloneVersion(versions[i], hydrate), nil
			}
		}
	case modelref.SelectorUnset:
		return cloneVersion(versions[len(versions)-1], hydrate), nil
	}
	return nil, store.ErrNotFound
}

// FindVersionByID fetches a version directly by id.
func (s *Store) FindVersionByID(ctx context.Context, id uuid.UUID, hydrate bool) (*store.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, versions := range s.versions {
		for _, v := range versions {
			if v.ID == id {
				return cloneVersion(v, hydrate), nil
			}
		}
	}
	return nil, store.ErrNotFound
}

// CreateVersion creates a version, assigning the next number atomically.
// An empty spec name derives the server-side name from the assigned number.
func (s *Store) CreateVersion(ctx context.Context, spec store.VersionSpec) (*store.ModelVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	modelID := spec.ModelID
	if modelID == uuid.Nil {
		m, ok := s.models[spec.ModelName]
		if !ok {
			return nil, store.ErrNotFound
		}
		modelID = m.ID
	}

	versions := s.versions[modelID]
	number := len(versions) + 1
	name := spec.Name
	if name == "" {
		name = strconv.Itoa(number)
	}
	for _, v := range versions {
		if v.Name == name {
			return nil, store.ErrAlreadyExists
		}
	}

	v := &store.ModelVersion{
		ID:          uuid.New(),
		ModelID:     modelID,
		Number:      number,
		Name:        name,
		Stage:       stage.None,
		Description: spec.Description,
		Tags:        append([]string(nil), spec.Tags...),
		Metadata:    map[string]string{},
	}
	s.versions[modelID] = append(versions, v)
	return cloneVersion(v, true), nil
}

// UpdateRunBinding records which version a run ultimately used.
func (s *Store) UpdateRunBinding(ctx context.Context, runID, versionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runBindings[runID] = versionID
	return nil
}

// UpdateStepBinding records which version a step ultimately used.
func (s *Store) UpdateStepBinding(ctx context.Context, stepID, versionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepBindings[stepID] = versionID
	return nil
}

// RunBinding returns the version recorded for a run, if any.
func (s *Store) RunBinding(runID uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.runBindings[runID]
	return id, ok
}

// StepBinding returns the version recorded for a step, if any.
func (s *Store) StepBinding(stepID uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.stepBindings[stepID]
	return id, ok
}

// SetVersionStage promotes a version to a stage. Used to seed stage-based
// lookups; promotion workflows themselves live outside this package.
func (s *Store) SetVersionStage(versionID uuid.UUID, st stage.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, versions := range s.versions {
		for _, v := range versions {
			if v.ID == versionID {
				v.Stage = st
				return nil
			}
		}
	}
	return store.ErrNotFound
}

// cloneVersion copies a version so callers cannot mutate stored state. A
// non-hydrated clone omits metadata-bearing fields, mirroring how a remote
// control plane elides them unless asked.
func cloneVersion(v *store.ModelVersion, hydrate bool) *store.ModelVersion {
	clone := *v
	clone.Tags = append([]string(nil), v.Tags...)
	clone.Hydrated = hydrate
	if hydrate {
		clone.Metadata = make(map[string]string, len(v.Metadata))
		for k, val := range v.Metadata {
			clone.Metadata[k] = val
		}
	} else {
		clone.Description = ""
		clone.Metadata = nil
	}
	return &clone
}
