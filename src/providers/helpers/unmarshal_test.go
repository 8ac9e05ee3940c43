package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/graphql"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/http"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/mcp"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/sse"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/streamable"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/text"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/websocket"
)

func TestUnmarshalProvider_Kinds(t *testing.T) {
	tests := []struct {
		name string
		data string
		want any
	}{
		{"http", `{"name":"a","provider_type":"http","url":"http://localhost"}`, &http.HttpProvider{}},
		{"text", `{"name":"b","provider_type":"text","file_path":"m.json"}`, &text.TextProvider{}},
		{"websocket", `{"name":"c","provider_type":"websocket","url":"ws://localhost"}`, &websocket.WebSocketProvider{}},
		{"graphql", `{"name":"d","provider_type":"graphql","url":"http://localhost/graphql"}`, &graphql.GraphQLProvider{}},
		{"mcp", `{"name":"e","provider_type":"mcp","url":"http://localhost/mcp"}`, &mcp.MCPProvider{}},
		{"sse", `{"name":"f","provider_type":"sse","url":"http://localhost/events"}`, &sse.SSEProvider{}},
		{"http_stream", `{"name":"g","provider_type":"http_stream","url":"http://localhost/stream"}`, &streamable.StreamableHttpProvider{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := UnmarshalProvider([]byte(tc.data))
			require.NoError(t, err)
			assert.IsType(t, tc.want, p)
			assert.Equal(t, base.ProviderType(tc.name), p.Type())
		})
	}
}

func TestUnmarshalProvider_Unsupported(t *testing.T) {
	_, err := UnmarshalProvider([]byte(`{"name":"x","provider_type":"webrtc"}`))
	assert.ErrorContains(t, err, "webrtc")

	_, err = UnmarshalProvider([]byte(`{"name":"x"}`))
	assert.ErrorContains(t, err, "missing provider_type")
}

func TestProviderFromMap_WithAuth(t *testing.T) {
	p, err := ProviderFromMap(map[string]any{
		"name":          "secure",
		"provider_type": "http",
		"url":           "https://api.example.com",
		"auth":          map[string]any{"auth_type": "basic", "username": "u", "password": "p"},
	})
	require.NoError(t, err)
	hp := p.(*http.HttpProvider)
	assert.IsType(t, &auth.BasicAuth{}, hp.Auth)
}

func TestProviderToMap(t *testing.T) {
	m, err := ProviderToMap(&text.TextProvider{
		BaseProvider: base.BaseProvider{Name: "local", ProviderType: base.ProviderText},
		FilePath:     "tools.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "local", m["name"])
	assert.Equal(t, "text", m["provider_type"])
	assert.Equal(t, "tools.json", m["file_path"])
}

func TestDecodeProviderMaps_JSON(t *testing.T) {
	list, err := DecodeProviderMaps([]byte(`[{"name":"a","provider_type":"text"},{"name":"b","provider_type":"http"}]`), false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[1]["name"])

	single, err := DecodeProviderMaps([]byte(` {"name":"a","provider_type":"text"}`), false)
	require.NoError(t, err)
	assert.Len(t, single, 1)

	empty, err := DecodeProviderMaps([]byte("  "), false)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeProviderList_YAML(t *testing.T) {
	data := []byte(`
- name: local
  provider_type: text
  file_path: tools.json
- name: api
  provider_type: http
  url: http://localhost:8080/utcp
  headers:
    X-Trace: "1"
`)
	list, err := DecodeProviderList(data, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "local", list[0].GetName())
	hp, ok := list[1].(*http.HttpProvider)
	require.True(t, ok)
	assert.Equal(t, "1", hp.Headers["X-Trace"])
}

func TestDecodeProviderList_YAMLNotMapping(t *testing.T) {
	_, err := DecodeProviderList([]byte("- 1\n- 2\n"), true)
	assert.ErrorContains(t, err, "not a mapping")
}

func TestProviderToMap_KeepsAuth(t *testing.T) {
	p, err := ProviderFromMap(map[string]any{
		"name":          "secure",
		"provider_type": "http",
		"url":           "https://api.example.com",
		"auth":          map[string]any{"auth_type": "api_key", "api_key": "${KEY}", "var_name": "X-Api-Key", "location": "header"},
	})
	require.NoError(t, err)

	m, err := ProviderToMap(p)
	require.NoError(t, err)
	a, ok := m["auth"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "${KEY}", a["api_key"])

	back, err := ProviderFromMap(m)
	require.NoError(t, err)
	assert.IsType(t, &auth.ApiKeyAuth{}, back.(*http.HttpProvider).Auth)
}
