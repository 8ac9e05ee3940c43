package graphql

import (
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// GraphQLProvider represents a GraphQL endpoint whose root fields are exposed as tools.
type GraphQLProvider struct {
	base.BaseProvider
	URL           string            `json:"url"`
	OperationType string            `json:"operation_type"` // query, mutation
	OperationName *string           `json:"operation_name,omitempty"`
	Auth          auth.Auth         `json:"auth,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	HeaderFields  []string          `json:"header_fields,omitempty"`
}

func UnmarshalGraphQLProvider(data []byte) (*GraphQLProvider, error) {
	type Alias GraphQLProvider
	aux := struct {
		*Alias
		Auth json.RawMessage `json:"auth"`
	}{Alias: (*Alias)(&GraphQLProvider{})}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil, err
	}
	gp := (*GraphQLProvider)(aux.Alias)
	if gp.ProviderType == "" {
		gp.ProviderType = base.ProviderGraphQL
	}
	if gp.OperationType == "" {
		gp.OperationType = "query"
	}
	if len(aux.Auth) > 0 && string(aux.Auth) != "null" {
		a, err := auth.UnmarshalAuth(aux.Auth)
		if err != nil {
			return nil, err
		}
		gp.Auth = a
	}
	return gp, nil
}
