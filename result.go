package adapters

import (
	"fmt"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
)

// NormalizeResult turns a raw tool result into the string handed back to the agent.
// Strings pass through, a mapping with an "error" key becomes an *InvocationError and
// everything else is rendered as indented JSON.
func NormalizeResult(result any) (string, error) {
	switch v := result.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	if payload, ok := errorPayload(result); ok {
		return "", &InvocationError{Message: errorMessage(payload), Payload: payload}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(data), nil
}

// errorPayload reports the "error" entry of a mapping; presence alone counts.
func errorPayload(result any) (any, bool) {
	switch m := result.(type) {
	case map[string]any:
		v, ok := m["error"]
		return v, ok
	case map[string]string:
		v, ok := m["error"]
		return v, ok
	}
	return nil, false
}

func errorMessage(payload any) string {
	if s, ok := payload.(string); ok {
		return s
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(data)
}
