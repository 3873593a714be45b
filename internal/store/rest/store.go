// Package rest implements store.Store against a remote model control plane
// over HTTP.
//
// Conflict detection relies on the server's status codes: 404 maps to
// store.ErrNotFound and 409 to store.ErrAlreadyExists, so the resolver's
// optimistic-concurrency loop works unchanged against a remote store.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/stage"
	"github.com/modelgrid/modelgrid/internal/store"
	"resty.dev/v3"
)

// Store is a REST client for a remote model control plane.
type Store struct {
	client *resty.Client
}

// Option configures the Store.
type Option func(*Store)

// WithAuthToken sets a bearer token on every request.
func WithAuthToken(token string) Option {
	return func(s *Store) {
		s.client.SetAuthToken(token)
	}
}

// New creates a REST store for the control plane at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying client resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// wire types mirror the control plane's JSON payloads.

type wireModel struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	License     string    `json:"license,omitempty"`
	Description string    `json:"description,omitempty"`
	Audience    string    `json:"audience,omitempty"`
	UseCases    string    `json:"use_cases,omitempty"`
	Limitations string    `json:"limitations,omitempty"`
	TradeOffs   string    `json:"trade_offs,omitempty"`
	Ethics      string    `json:"ethics,omitempty"`
}

type wireVersion struct {
	ID          uuid.UUID         `json:"id"`
	ModelID     uuid.UUID         `json:"model_id"`
	Number      int               `json:"number"`
	Name        string            `json:"name"`
	Stage       string            `json:"stage,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type wireError struct {
	Detail string `json:"detail"`
}

// FindModel looks a model up by name.
func (s *Store) FindModel(ctx context.Context, name string) (*store.Model, error) {
	var out wireModel
	res, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("name", name).
		Get("/api/v1/models/{name}")
	if err != nil {
		return nil, fmt.Errorf("find model %q: %w", name, err)
	}
	if err := statusErr(res, "find model "+name); err != nil {
		return nil, err
	}
	return modelFromWire(&out), nil
}

// CreateModel creates a model.
func (s *Store) CreateModel(ctx context.Context, spec store.ModelSpec) (*store.Model, error) {
	var out wireModel
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(wireModel{
			Name:        spec.Name,
			License:     spec.License,
			Description: spec.Description,
			Audience:    spec.Audience,
			UseCases:    spec.UseCases,
			Limitations: spec.Limitations,
			TradeOffs:   spec.TradeOffs,
			Ethics:      spec.Ethics,
		}).
		SetResult(&out).
		Post("/api/v1/models")
	if err != nil {
		return nil, fmt.Errorf("create model %q: %w", spec.Name, err)
	}
	if err := statusErr(res, "create model "+spec.Name); err != nil {
		return nil, err
	}
	return modelFromWire(&out), nil
}

// FindVersion resolves a selector against a model's versions. The selector's
// raw token travels as the path segment; the server applies the same
// stage/number/name precedence the selector was classified with.
func (s *Store) FindVersion(ctx context.Context, modelName string, sel modelref.Selector, hydrate bool) (*store.ModelVersion, error) {
	token := sel.Token()
	if token == "" {
		token = "latest"
	}
	var out wireVersion
	res, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("model", modelName).
		SetPathParam("version", token).
		SetQueryParam("hydrate", strconv.FormatBool(hydrate)).
		Get("/api/v1/models/{model}/versions/{version}")
	if err != nil {
		return nil, fmt.Errorf("find version %q of model %q: %w", token, modelName, err)
	}
	if err := statusErr(res, fmt.Sprintf("find version %q of model %q", token, modelName)); err != nil {
		return nil, err
	}
	return versionFromWire(&out, hydrate), nil
}

// FindVersionByID fetches a version directly by id.
func (s *Store) FindVersionByID(ctx context.Context, id uuid.UUID, hydrate bool) (*store.ModelVersion, error) {
	var out wireVersion
	res, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("id", id.String()).
		SetQueryParam("hydrate", strconv.FormatBool(hydrate)).
		Get("/api/v1/model_versions/{id}")
	if err != nil {
		return nil, fmt.Errorf("find version %s: %w", id, err)
	}
	if err := statusErr(res, "find version "+id.String()); err != nil {
		return nil, err
	}
	return versionFromWire(&out, hydrate), nil
}

// CreateVersion creates a version. The server assigns the number and, when
// the spec's name is empty, derives the name from it.
func (s *Store) CreateVersion(ctx context.Context, spec store.VersionSpec) (*store.ModelVersion, error) {
	var out wireVersion
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model_id":    spec.ModelID,
			"model":       spec.ModelName,
			"name":        spec.Name,
			"description": spec.Description,
			"tags":        spec.Tags,
		}).
		SetResult(&out).
		SetPathParam("model", spec.ModelName).
		Post("/api/v1/models/{model}/versions")
	if err != nil {
		return nil, fmt.Errorf("create version for model %q: %w", spec.ModelName, err)
	}
	if err := statusErr(res, "create version for model "+spec.ModelName); err != nil {
		return nil, err
	}
	return versionFromWire(&out, true), nil
}

// UpdateRunBinding records which version a run ultimately used.
func (s *Store) UpdateRunBinding(ctx context.Context, runID, versionID uuid.UUID) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"model_version_id": versionID}).
		SetPathParam("id", runID.String()).
		Patch("/api/v1/runs/{id}")
	if err != nil {
		return fmt.Errorf("update run binding %s: %w", runID, err)
	}
	return statusErr(res, "update run binding "+runID.String())
}

// UpdateStepBinding records which version a step ultimately used.
func (s *Store) UpdateStepBinding(ctx context.Context, stepID, versionID uuid.UUID) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"model_version_id": versionID}).
		SetPathParam("id", stepID.String()).
		Patch("/api/v1/steps/{id}")
	if err != nil {
		return fmt.Errorf("update step binding %s: %w", stepID, err)
	}
	return statusErr(res, "update step binding "+stepID.String())
}

// statusErr maps HTTP status codes onto the store's sentinel errors.
func statusErr(res *resty.Response, op string) error {
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case res.StatusCode() == http.StatusConflict:
		return fmt.Errorf("%s: %w", op, store.ErrAlreadyExists)
	case res.IsError():
		return fmt.Errorf("%s: control plane returned %s", op, res.Status())
	}
	return nil
}

func modelFromWire(w *wireModel) *store.Model {
	return &store.Model{
		ID:          w.ID,
		Name:        w.Name,
		License:     w.License,
		Description: w.Description,
		Audience:    w.Audience,
		UseCases:    w.UseCases,
		Limitations: w.Limitations,
		TradeOffs:   w.TradeOffs,
		Ethics:      w.Ethics,
	}
}

func versionFromWire(w *wireVersion, hydrated bool) *store.ModelVersion {
	v := &store.ModelVersion{
		ID:          w.ID,
		ModelID:     w.ModelID,
		Number:      w.Number,
		Name:        w.Name,
		Description: w.Description,
		Tags:        w.Tags,
		Metadata:    w.Metadata,
		Hydrated:    hydrated,
	}
	if st, ok := stage.Parse(w.Stage); ok {
		v.Stage = st
	}
	return v
}
