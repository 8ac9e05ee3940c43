package streamable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

func TestUnmarshalStreamableHttpProvider(t *testing.T) {
	p, err := UnmarshalStreamableHttpProvider([]byte(`{"provider_type":"http_stream","name":"s","url":"http://localhost:9000","http_method":"GET","timeout":100}`))
	require.NoError(t, err)
	assert.Equal(t, base.ProviderHTTPStream, p.Type())
	assert.Equal(t, "GET", p.HTTPMethod)
	assert.Equal(t, 100, p.Timeout)
	assert.Equal(t, 4096, p.ChunkSize)
	assert.Equal(t, "application/json", p.ContentType)
}

func TestUnmarshalStreamableHttpProvider_BadAuth(t *testing.T) {
	_, err := UnmarshalStreamableHttpProvider([]byte(`{"name":"s","url":"u","auth":{"auth_type":"magic"}}`))
	assert.Error(t, err)
}
