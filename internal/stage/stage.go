// Package stage defines the lifecycle stages a model version can be promoted
// to, and the parsing rules that decide whether a raw version token names one
// of them.
package stage

import "strings"

// Stage is a named lifecycle position of a model version.
type Stage string

const (
	// None marks a version that has not been promoted to any stage.
	None Stage = "none"
	// Staging marks a version under evaluation before promotion.
	Staging Stage = "staging"
	// Production marks the version currently serving production traffic.
	Production Stage = "production"
	// Latest is a virtual stage that always points at the newest version.
	Latest Stage = "latest"
	// Archived marks a version that was demoted out of rotation.
	Archived Stage = "archived"
)

// all lists every stage in promotion order.
var all = []Stage{None, Staging, Production, Latest, Archived}

// Values returns the string values of all known stages.
func Values() []string {
	out := make([]string, len(all))
	for i, s := range all {
		out[i] = string(s)
	}
	return out
}

// Parse matches a raw token against the known stages, case-insensitively.
// The second return value reports whether the token named a stage.
func Parse(token string) (Stage, bool) {
	lowered := strings.ToLower(strings.TrimSpace(token))
	for _, s := range all {
		if lowered == string(s) {
			return s, true
		}
	}
	return "", false
}

// Is reports whether the token names a known stage.
func Is(token string) bool {
	_, ok := Parse(token)
	return ok
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}
