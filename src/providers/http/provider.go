package http

import (
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// HttpProvider describes a RESTful HTTP/HTTPS API. Its URL serves the UTCP manual
// on discovery and each tool's own provider is called on invocation.
type HttpProvider struct {
	base.BaseProvider
	HTTPMethod   string            `json:"http_method"`  // GET, POST, PUT, DELETE, PATCH
	URL          string            `json:"url"`
	ContentType  string            `json:"content_type"` // default application/json
	Auth         auth.Auth         `json:"auth,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	BodyField    *string           `json:"body_field,omitempty"`
	HeaderFields []string          `json:"header_fields,omitempty"`
}

func UnmarshalHttpProvider(data []byte) (*HttpProvider, error) {
	type Alias HttpProvider
	aux := struct {
		*Alias
		Auth json.RawMessage `json:"auth"`
	}{Alias: (*Alias)(&HttpProvider{})}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	hp := (*HttpProvider)(aux.Alias)
	if hp.ProviderType == "" {
		hp.ProviderType = base.ProviderHTTP
	}
	if hp.HTTPMethod == "" {
		hp.HTTPMethod = "GET"
	}
	if hp.ContentType == "" {
		hp.ContentType = "application/json"
	}
	if len(aux.Auth) > 0 && string(aux.Auth) != "null" {
		a, err := auth.UnmarshalAuth(aux.Auth)
		if err != nil {
			return nil, err
		}
		hp.Auth = a
	}
	return hp, nil
}
