package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
)

func TestUnmarshalWebSocketProvider(t *testing.T) {
	p, err := UnmarshalWebSocketProvider([]byte(`{
		"name": "ws",
		"provider_type": "websocket",
		"url": "ws://localhost:9000/tools",
		"protocol": "utcp.v1",
		"keep_alive": true,
		"auth": {"auth_type": "basic", "username": "u", "password": "p"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:9000/tools", p.URL)
	require.NotNil(t, p.Protocol)
	assert.Equal(t, "utcp.v1", *p.Protocol)
	assert.True(t, p.KeepAlive)
	assert.IsType(t, &auth.BasicAuth{}, p.Auth)
}
