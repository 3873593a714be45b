package modelref

import "fmt"

// InvalidRefError reports a malformed reference declaration, such as an
// internal-only field supplied by external configuration.
type InvalidRefError struct {
	Field  string
	Detail string
}

// Error implements the error interface.
func (e *InvalidRefError) Error() string {
	return fmt.Sprintf("invalid model reference: field %q: %s", e.Field, e.Detail)
}
