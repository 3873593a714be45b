// Package runctx carries the ambient execution state a resolution call can
// query: whether the pipeline is currently being defined or executed, and,
// during execution, the current run with its already-configured steps.
//
// The state travels on context.Context under unexported keys, the same
// pattern used for loggers in internal/ctxlog. Nothing here performs I/O;
// the run's step list is a view over configuration that earlier steps have
// already materialized.
package runctx

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/modelref"
)

type definitionKey struct{}
type runKey struct{}

// StepConfig is the already-materialized configuration of one step in a run,
// as far as model resolution is concerned.
type StepConfig struct {
	ID   uuid.UUID
	Name string
	// Ref is the step's declared model reference, nil when the step declares
	// none of its own.
	Ref *modelref.Ref
}

// Run is the execution-scoped state of one pipeline run. Steps are recorded
// in declaration order as they are configured; the reuse index scans them in
// that same order.
type Run struct {
	ID        uuid.UUID
	Name      string
	StartTime time.Time

	// Ref is the run-level declared model reference, nil when the pipeline
	// declares none.
	Ref *modelref.Ref

	mu    sync.RWMutex
	steps []*StepConfig
}

// NewRun creates run state for a pipeline run starting now.
func NewRun(pipelineName string) *Run {
	return &Run{
		ID:        uuid.New(),
		Name:      NewRunName(pipelineName),
		StartTime: time.Now().UTC(),
	}
}

// RecordStep appends a step's configuration to the run. Steps must be
// recorded in declaration order.
func (r *Run) RecordStep(step *StepConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

// Steps returns a snapshot of the recorded step configurations, in order.
func (r *Run) Steps() []*StepConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*StepConfig(nil), r.steps...)
}

// WithDefinition marks the context as a pipeline definition context.
// Resolution requests made under it must defer rather than touch the store.
func WithDefinition(ctx context.Context) context.Context {
	return context.WithValue(ctx, definitionKey{}, true)
}

// IsDefinition reports whether the context is a definition context.
func IsDefinition(ctx context.Context) bool {
	v, ok := ctx.Value(definitionKey{}).(bool)
	return ok && v
}

// WithRun returns a context carrying the given run as the current execution
// scope. It clears any definition marker.
func WithRun(ctx context.Context, run *Run) context.Context {
	ctx = context.WithValue(ctx, definitionKey{}, false)
	return context.WithValue(ctx, runKey{}, run)
}

// Current returns the run the context is executing under, if any.
func Current(ctx context.Context) (*Run, bool) {
	run, ok := ctx.Value(runKey{}).(*Run)
	return run, ok && run != nil
}

// NewRunName derives a display run name from the pipeline name plus 128
// random bits, hex-encoded.
func NewRunName(pipelineName string) string {
	var buf [16]byte
	// rand.Read on crypto/rand never fails on supported platforms.
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%s_%032x", pipelineName, buf)
}
