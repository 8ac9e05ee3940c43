package helpers

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/graphql"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/http"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/mcp"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/sse"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/streamable"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/text"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/websocket"
)

// UnmarshalProvider inspects "provider_type" and returns the right struct.
func UnmarshalProvider(data []byte) (base.Provider, error) {
	var head struct {
		ProviderType base.ProviderType `json:"provider_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.ProviderType {
	case base.ProviderHTTP:
		return http.UnmarshalHttpProvider(data)
	case base.ProviderSSE:
		return sse.UnmarshalSSEProvider(data)
	case base.ProviderHTTPStream:
		return streamable.UnmarshalStreamableHttpProvider(data)
	case base.ProviderWebSocket:
		return websocket.UnmarshalWebSocketProvider(data)
	case base.ProviderGraphQL:
		return graphql.UnmarshalGraphQLProvider(data)
	case base.ProviderMCP:
		return mcp.UnmarshalMCPProvider(data)
	case base.ProviderText:
		return text.UnmarshalTextProvider(data)
	case "":
		return nil, fmt.Errorf("missing provider_type")
	default:
		return nil, fmt.Errorf("unsupported provider_type %q", head.ProviderType)
	}
}

// ProviderFromMap decodes a provider from its generic map form.
func ProviderFromMap(raw map[string]any) (base.Provider, error) {
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode provider: %w", err)
	}
	return UnmarshalProvider(blob)
}

// ProviderToMap renders a provider back to its generic map form.
func ProviderToMap(p base.Provider) (map[string]any, error) {
	blob, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeProviderMaps reads a providers definition: a list of provider
// objects or a single object, as JSON or, when yamlFormat is set, YAML.
func DecodeProviderMaps(data []byte, yamlFormat bool) ([]map[string]any, error) {
	if yamlFormat {
		return decodeYAML(data)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var one map[string]any
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []map[string]any{one}, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeYAML(data []byte) ([]map[string]any, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	switch v := node.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("provider #%d is not a mapping", i)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("providers definition must be a list or a mapping, got %T", node)
	}
}

// DecodeProviderList decodes every provider of a providers definition.
func DecodeProviderList(data []byte, yamlFormat bool) ([]base.Provider, error) {
	raws, err := DecodeProviderMaps(data, yamlFormat)
	if err != nil {
		return nil, err
	}
	out := make([]base.Provider, 0, len(raws))
	for i, raw := range raws {
		p, err := ProviderFromMap(raw)
		if err != nil {
			return nil, fmt.Errorf("provider #%d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
