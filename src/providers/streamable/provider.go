package streamable

import (
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// StreamableHttpProvider represents an HTTP endpoint whose tool responses are
// streamed as NDJSON or JSON sequences. URL serves the manual; calls go to URL/{tool}.
type StreamableHttpProvider struct {
	base.BaseProvider
	URL          string            `json:"url"`
	HTTPMethod   string            `json:"http_method"`  // GET or POST
	ContentType  string            `json:"content_type"` // request body type
	ChunkSize    int               `json:"chunk_size"`   // bytes
	Timeout      int               `json:"timeout"`      // ms
	Headers      map[string]string `json:"headers,omitempty"`
	Auth         auth.Auth         `json:"auth,omitempty"`
	BodyField    *string           `json:"body_field,omitempty"`
	HeaderFields []string          `json:"header_fields,omitempty"`
}

func UnmarshalStreamableHttpProvider(data []byte) (*StreamableHttpProvider, error) {
	type Alias StreamableHttpProvider
	aux := struct {
		*Alias
		Auth json.RawMessage `json:"auth"`
	}{Alias: (*Alias)(&StreamableHttpProvider{
		HTTPMethod:  "POST",
		ContentType: "application/json",
		ChunkSize:   4096,
		Timeout:     60000,
	})}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	sp := (*StreamableHttpProvider)(aux.Alias)
	if sp.ProviderType == "" {
		sp.ProviderType = base.ProviderHTTPStream
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
