package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/http"
)

func TestTool_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"name": "get_weather",
		"description": "Current weather",
		"inputs": {"type": "object", "properties": {"city": {"type": "string"}}, "required": ["city"]},
		"outputs": {"type": "object"},
		"tags": ["weather"],
		"tool_provider": {"name": "weather", "provider_type": "http", "url": "http://localhost/weather", "http_method": "POST"}
	}`)
	var tool Tool
	require.NoError(t, json.Unmarshal(data, &tool))
	assert.Equal(t, "get_weather", tool.Name)
	assert.Equal(t, []string{"city"}, tool.Inputs.Required)
	assert.Contains(t, tool.Inputs.Properties, "city")

	hp, ok := tool.Provider.(*http.HttpProvider)
	require.True(t, ok, "expected HttpProvider got %T", tool.Provider)
	assert.Equal(t, "POST", hp.HTTPMethod)
	assert.Equal(t, "weather.get_weather", tool.QualifiedName())
}

func TestTool_UnmarshalJSON_NoProvider(t *testing.T) {
	var tool Tool
	require.NoError(t, json.Unmarshal([]byte(`{"name":"bare","inputs":{"type":"object"}}`), &tool))
	assert.Nil(t, tool.Provider)
	assert.Equal(t, "bare", tool.QualifiedName())
}

func TestTool_UnmarshalJSON_BadProvider(t *testing.T) {
	var tool Tool
	err := json.Unmarshal([]byte(`{"name":"x","tool_provider":{"name":"p","provider_type":"carrier_pigeon"}}`), &tool)
	assert.ErrorContains(t, err, "carrier_pigeon")
}

func TestTool_MarshalRoundTrip(t *testing.T) {
	tool := Tool{
		Name:     "echo",
		Inputs:   ToolInputOutputSchema{Type: "object"},
		Tags:     []string{},
		Provider: &http.HttpProvider{BaseProvider: base.BaseProvider{Name: "svc", ProviderType: base.ProviderHTTP}, URL: "http://localhost", HTTPMethod: "GET"},
	}
	blob, err := json.Marshal(tool)
	require.NoError(t, err)

	var back Tool
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, "svc.echo", back.QualifiedName())
	assert.Equal(t, base.ProviderHTTP, back.Provider.Type())
}
