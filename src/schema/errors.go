package schema

import (
	"fmt"
	"strings"
)

// SchemaError reports a malformed JSON-Schema fragment in a tool's input description.
type SchemaError struct {
	Path string // location of the fragment, e.g. "properties.city.type"
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "invalid input schema: " + e.Msg
	}
	return fmt.Sprintf("invalid input schema at %s: %s", e.Path, e.Msg)
}

// FieldError describes why a single argument was rejected.
type FieldError struct {
	Field  string
	Reason string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Reason
}

// ValidationError is returned when call arguments do not satisfy an ArgsSchema.
type ValidationError struct {
	Schema   string
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	noun := "error"
	if len(e.Problems) != 1 {
		noun = "errors"
	}
	return fmt.Sprintf("%d validation %s for %s: %s", len(e.Problems), noun, e.Schema, strings.Join(parts, "; "))
}

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}
