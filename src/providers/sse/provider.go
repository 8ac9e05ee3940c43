package sse

import (
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// SSEProvider represents an endpoint that answers tool calls with a Server-Sent
// Events stream. URL serves the manual; calls POST to URL/{tool}.
type SSEProvider struct {
	base.BaseProvider
	URL          string            `json:"url"`
	EventType    *string           `json:"event_type,omitempty"`
	Reconnect    bool              `json:"reconnect"`
	RetryTimeout int               `json:"retry_timeout"` // ms
	Auth         auth.Auth         `json:"auth,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	BodyField    *string           `json:"body_field,omitempty"`
	HeaderFields []string          `json:"header_fields,omitempty"`
}

func UnmarshalSSEProvider(data []byte) (*SSEProvider, error) {
	type Alias SSEProvider
	aux := struct {
		*Alias
		Auth json.RawMessage `json:"auth"`
	}{Alias: (*Alias)(&SSEProvider{Reconnect: true, RetryTimeout: 30000})}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	sp := (*SSEProvider)(aux.Alias)
	if sp.ProviderType == "" {
		sp.ProviderType = base.ProviderSSE
	}
	if len(aux.Auth) > 0 && string(aux.Auth) != "null" {
		a, err := auth.UnmarshalAuth(aux.Auth)
		if err != nil {
			return nil, err
		}
		sp.Auth = a
	}
	return sp, nil
}
