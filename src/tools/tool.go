package tools

import (
	"fmt"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/helpers"
)

// ToolInputOutputSchema is the JSON-Schema subset UTCP uses to describe tool inputs and outputs.
type ToolInputOutputSchema struct {
	Type        string                 `json:"type"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Description string                 `json:"description,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Items       map[string]interface{} `json:"items,omitempty"`
	Enum        []interface{}          `json:"enum,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Format      string                 `json:"format,omitempty"`
}

// Tool holds the metadata for a single UTCP tool.
type Tool struct {
	Name                string                `json:"name"`
	Description         string                `json:"description"`
	Inputs              ToolInputOutputSchema `json:"inputs"`
	Outputs             ToolInputOutputSchema `json:"outputs"`
	Tags                []string              `json:"tags"`
	AverageResponseSize *int                  `json:"average_response_size,omitempty"`
	Provider            base.Provider         `json:"tool_provider,omitempty"`
}

// QualifiedName returns "{provider}.{tool}", or the bare name for a tool without provider.
func (t Tool) QualifiedName() string {
	if t.Provider == nil {
		return t.Name
	}
	return t.Provider.GetName() + "." + t.Name
}

// UnmarshalJSON decodes the polymorphic tool_provider field by its provider_type.
func (t *Tool) UnmarshalJSON(data []byte) error {
	type Alias Tool
	aux := struct {
		*Alias
		Provider json.RawMessage `json:"tool_provider"`
	}{Alias: (*Alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Provider) == 0 || string(aux.Provider) == "null" {
		t.Provider = nil
		return nil
	}
	p, err := helpers.UnmarshalProvider(aux.Provider)
	if err != nil {
		return fmt.Errorf("tool %q: %w", t.Name, err)
	}
	t.Provider = p
	return nil
}
