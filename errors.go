package adapters

import "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/schema"

type (
	// SchemaError reports a tool whose input description cannot be translated.
	SchemaError = schema.SchemaError
	// ValidationError reports call arguments rejected before reaching the client.
	ValidationError = schema.ValidationError
)

// InvocationError carries the error payload a tool returned instead of a result.
type InvocationError struct {
	Message string
	Payload any // the raw "error" value
}

func (e *InvocationError) Error() string { return e.Message }
