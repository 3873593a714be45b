// Package config loads a run grid from the user's .hcl files: a `pipeline`
// block naming the pipeline and optionally declaring a run-level model
// reference, plus `step` blocks that may declare their own overrides.
//
// Selector classification happens here, at decode time, so by the time a
// grid reaches the resolver every version token has already been classified
// exactly once.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/zclconf/go-cty/cty"
)

// Grid is the decoded run configuration.
type Grid struct {
	Pipeline *Pipeline
	Steps    []*Step
}

// Pipeline is the decoded `pipeline` block.
type Pipeline struct {
	Name  string
	Model *modelref.Ref
}

// Step is a decoded `step` block.
type Step struct {
	Name  string
	Model *modelref.Ref
}

// hclGrid represents the top-level structure of a grid file for decoding.
type hclGrid struct {
	Pipeline *hclPipeline `hcl:"pipeline,block"`
	Steps    []*hclStep   `hcl:"step,block"`
}

// hclPipeline represents a single `pipeline` block.
type hclPipeline struct {
	Name  string    `hcl:"name,label"`
	Model *hclModel `hcl:"model,block"`
}

// hclStep represents a single `step` block.
type hclStep struct {
	Name  string    `hcl:"name,label"`
	Model *hclModel `hcl:"model,block"`
}

// hclModel represents a `model` block. Tags stay an expression until decode
// so list syntax is validated with a proper source range in diagnostics.
type hclModel struct {
	Name        string         `hcl:"name"`
	Version     *string        `hcl:"version,optional"`
	License     *string        `hcl:"license,optional"`
	Description *string        `hcl:"description,optional"`
	Audience    *string        `hcl:"audience,optional"`
	UseCases    *string        `hcl:"use_cases,optional"`
	Limitations *string        `hcl:"limitations,optional"`
	TradeOffs   *string        `hcl:"trade_offs,optional"`
	Ethics      *string        `hcl:"ethics,optional"`
	Tags        hcl.Expression `hcl:"tags,optional"`

	// model_version_id is accepted by the schema only so we can reject it
	// with a targeted message: the field is assigned by resolution, not
	// declared by users.
	ModelVersionID *string `hcl:"model_version_id,optional"`
}

// LoadGrid reads and decodes a grid file from disk.
func LoadGrid(ctx context.Context, path string) (*Grid, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file: %w", err)
	}
	return ParseGrid(ctx, src, path)
}

// ParseGrid decodes grid HCL source into a Grid.
func ParseGrid(ctx context.Context, src []byte, filename string) (*Grid, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}

	var raw hclGrid
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, diags)
	}
	if raw.Pipeline == nil {
		return nil, fmt.Errorf("%s: a grid requires exactly one pipeline block", filename)
	}

	grid := &Grid{Pipeline: &Pipeline{Name: raw.Pipeline.Name}}
	if raw.Pipeline.Model != nil {
		ref, err := refFromHCL(ctx, raw.Pipeline.Model)
		if err != nil {
			return nil, err
		}
		grid.Pipeline.Model = ref
	}

	for _, rawStep := range raw.Steps {
		step := &Step{Name: rawStep.Name}
		if rawStep.Model != nil {
			ref, err := refFromHCL(ctx, rawStep.Model)
			if err != nil {
				return nil, err
			}
			step.Model = ref
		}
		grid.Steps = append(grid.Steps, step)
	}
	return grid, nil
}

// refFromHCL converts a decoded model block into a reference, classifying
// the version token once.
func refFromHCL(ctx context.Context, raw *hclModel) (*modelref.Ref, error) {
	if raw.ModelVersionID != nil {
		return nil, &modelref.InvalidRefError{
			Field:  "model_version_id",
			Detail: "this field is assigned during resolution and cannot be declared",
		}
	}

	ref := &modelref.Ref{
		Name:        raw.Name,
		License:     deref(raw.License),
		Description: deref(raw.Description),
		Audience:    deref(raw.Audience),
		UseCases:    deref(raw.UseCases),
		Limitations: deref(raw.Limitations),
		TradeOffs:   deref(raw.TradeOffs),
		Ethics:      deref(raw.Ethics),
	}
	ref.Selector = modelref.ParseSelector(ctx, deref(raw.Version))

	tags, err := tagsFromExpression(raw.Tags)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", raw.Name, err)
	}
	ref.Tags = tags

	return ref, nil
}

// tagsFromExpression evaluates the tags attribute to a list of strings.
func tagsFromExpression(expr hcl.Expression) ([]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate tags: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("tags must be a list of strings, got %s", val.Type().FriendlyName())
	}

	var tags []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String {
			return nil, fmt.Errorf("tags must be a list of strings, got element of type %s", elem.Type().FriendlyName())
		}
		tags = append(tags, elem.AsString())
	}
	return tags, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
