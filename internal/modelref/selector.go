package modelref

import (
	"context"
	"strconv"
	"strings"

	"github.com/modelgrid/modelgrid/internal/ctxlog"
	"github.com/modelgrid/modelgrid/internal/stage"
)

// SelectorKind enumerates the ways a version token can be interpreted.
type SelectorKind int

const (
	// SelectorUnset means no version token was given; resolution will create
	// a new version (or reuse one created earlier in the same run).
	SelectorUnset SelectorKind = iota
	// SelectorExplicit matches a version by its literal name.
	SelectorExplicit
	// SelectorNumeric matches a version by its store-assigned number.
	SelectorNumeric
	// SelectorStage matches the version currently holding a lifecycle stage.
	SelectorStage
)

// String implements fmt.Stringer for log output.
func (k SelectorKind) String() string {
	switch k {
	case SelectorUnset:
		return "unset"
	case SelectorExplicit:
		return "explicit"
	case SelectorNumeric:
		return "numeric"
	case SelectorStage:
		return "stage"
	}
	return "unknown"
}

// Selector is the classified form of a raw version token. It is immutable
// once parsed; all resolution decisions key off the kind assigned here.
//
// A token that names a stage (case-insensitively) always classifies as a
// stage selector, even when the caller meant it as a literal version name.
// This is deliberate, caller-visible behavior inherited from the control
// plane's naming rules: stage words and pure numbers are reserved and can
// never name a version.
type Selector struct {
	kind   SelectorKind
	name   string
	number int
	stage  stage.Stage
}

// ParseSelector classifies a raw version token. Classification is pure and
// happens once, at construction; it never performs I/O. Stage and numeric
// classifications emit an informational notice so a caller who intended a
// literal name can see what will actually happen.
func ParseSelector(ctx context.Context, token string) Selector {
	token = strings.TrimSpace(token)
	if token == "" {
		return Selector{kind: SelectorUnset}
	}

	logger := ctxlog.FromContext(ctx)

	if st, ok := stage.Parse(token); ok {
		logger.Info("Version token matches a model stage and will be fetched by stage.",
			"version", token, "stage", st.String())
		return Selector{kind: SelectorStage, stage: st}
	}

	if number, err := strconv.Atoi(token); err == nil && number >= 0 {
		logger.Info("Version token is numeric and will be fetched by version number.",
			"version", token)
		return Selector{kind: SelectorNumeric, number: number}
	}

	return Selector{kind: SelectorExplicit, name: token}
}

// ExplicitSelector builds an explicit-name selector without reclassification.
// It is used when adopting a store-assigned version name, which is trusted to
// be outside the reserved stage/numeric namespace.
func ExplicitSelector(name string) Selector {
	return Selector{kind: SelectorExplicit, name: name}
}

// Kind returns the classification of the selector.
func (s Selector) Kind() SelectorKind {
	return s.kind
}

// IsUnset reports whether no version token was given.
func (s Selector) IsUnset() bool {
	return s.kind == SelectorUnset
}

// Name returns the literal version name for explicit selectors.
func (s Selector) Name() string {
	return s.name
}

// Number returns the version number for numeric selectors.
func (s Selector) Number() int {
	return s.number
}

// Stage returns the target stage for stage selectors.
func (s Selector) Stage() stage.Stage {
	return s.stage
}

// Token returns the raw wire form of the selector: the name, the decimal
// number, or the stage word. Unset selectors return "".
func (s Selector) Token() string {
	switch s.kind {
	case SelectorExplicit:
		return s.name
	case SelectorNumeric:
		return strconv.Itoa(s.number)
	case SelectorStage:
		return string(s.stage)
	}
	return ""
}

// Equal reports whether two selectors classify the same token.
func (s Selector) Equal(other Selector) bool {
	return s.kind == other.kind &&
		s.name == other.name &&
		s.number == other.number &&
		s.stage == other.stage
}
