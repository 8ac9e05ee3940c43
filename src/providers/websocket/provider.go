package websocket

import (
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// WebSocketProvider represents a WebSocket endpoint. Discovery sends a "manual"
// text frame; calls dial URL/{tool} and send the arguments as one JSON frame.
type WebSocketProvider struct {
	base.BaseProvider
	URL          string            `json:"url"`
	Protocol     *string           `json:"protocol,omitempty"`
	KeepAlive    bool              `json:"keep_alive"`
	Auth         auth.Auth         `json:"auth,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	HeaderFields []string          `json:"header_fields,omitempty"`
}

func UnmarshalWebSocketProvider(data []byte) (*WebSocketProvider, error) {
	type Alias WebSocketProvider
	aux := struct {
		*Alias
		Auth json.RawMessage `json:"auth"`
	}{Alias: (*Alias)(&WebSocketProvider{})}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	wp := (*WebSocketProvider)(aux.Alias)
	if wp.ProviderType == "" {
		wp.ProviderType = base.ProviderWebSocket
	}
	if len(aux.Auth) > 0 && string(aux.Auth) != "null" {
		a, err := auth.UnmarshalAuth(aux.Auth)
		if err != nil {
			return nil, err
		}
		wp.Auth = a
	}
	return wp, nil
}
