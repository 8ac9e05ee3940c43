package manual

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// UtcpManual is the document a provider serves to describe its tools.
type UtcpManual struct {
	Version string       `json:"version"`
	Tools   []tools.Tool `json:"tools"`
}

// Parse decodes a manual from JSON, or from YAML when yamlFormat is set.
func Parse(data []byte, yamlFormat bool) (*UtcpManual, error) {
	if yamlFormat {
		blob, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML manual: %w", err)
		}
		data = blob
	}
	var m UtcpManual
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manual: %w", err)
	}
	if m.Tools == nil {
		m.Tools = []tools.Tool{}
	}
	return &m, nil
}

// Decode reads a discovery document into its generic map form.
func Decode(data []byte, yamlFormat bool) (map[string]any, error) {
	if yamlFormat {
		blob, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = blob
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// NewUtcpManualFromMap constructs a UtcpManual from its generic map form.
func NewUtcpManualFromMap(m map[string]any) (*UtcpManual, error) {
	blob, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return Parse(blob, false)
}
