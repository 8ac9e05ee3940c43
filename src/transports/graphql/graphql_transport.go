package graphql

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/machinebox/graphql"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/graphql"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

const introspectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { fields { ...FieldInfo } }
    mutationType { fields { ...FieldInfo } }
  }
}
fragment FieldInfo on __Field {
  name
  description
  args { name description type { ...TypeRef } }
}
fragment TypeRef on __Type {
  kind name
  ofType { kind name ofType { kind name ofType { kind name } } }
}`

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   *string  `json:"name"`
	OfType *typeRef `json:"ofType"`
}

type inputValue struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Type        typeRef `json:"type"`
}

type field struct {
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Args        []inputValue `json:"args"`
}

type fieldList struct {
	Fields []field `json:"fields"`
}

// operation remembers how a discovered field must be called.
type operation struct {
	kind     string            // query or mutation
	argTypes map[string]string // argument -> GraphQL type literal
}

// GraphQLClientTransport exposes the root query and mutation fields of a GraphQL endpoint as tools.
type GraphQLClientTransport struct {
	httpClient *http.Client
	log        logr.Logger
	tokens     *auth.TokenCache

	mu         sync.RWMutex
	operations map[string]map[string]operation // provider -> field -> operation
}

func NewGraphQLClientTransport(logger logr.Logger) *GraphQLClientTransport {
	return &GraphQLClientTransport{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.WithName("graphql"),
		tokens:     auth.NewTokenCache(),
		operations: make(map[string]map[string]operation),
	}
}

func enforceHTTPSOrLocalhost(u string) error {
	if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://localhost") || strings.HasPrefix(u, "http://127.0.0.1") {
		return nil
	}
	return fmt.Errorf("security error: URL must use HTTPS or start with 'http://localhost' or 'http://127.0.0.1'. Got: %s", u)
}

func (t *GraphQLClientTransport) client(url string) *graphql.Client {
	c := graphql.NewClient(url, graphql.WithHTTPClient(t.httpClient))
	c.Log = func(s string) { t.log.V(2).Info(s) }
	return c
}

func (t *GraphQLClientTransport) headers(ctx context.Context, prov *providers.GraphQLProvider) (map[string]string, error) {
	headers := make(map[string]string, len(prov.Headers)+1)
	for k, v := range prov.Headers {
		headers[k] = v
	}
	switch a := prov.Auth.(type) {
	case nil:
	case *auth.ApiKeyAuth:
		if !strings.EqualFold(a.Location, "header") {
			return nil, fmt.Errorf("apikey location %q not supported for graphql providers", a.Location)
		}
		headers[a.VarName] = a.APIKey
	case *auth.BasicAuth:
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(a.Username+":"+a.Password))
	case *auth.OAuth2Auth:
		tok, err := t.tokens.Token(ctx, t.httpClient, a)
		if err != nil {
			return nil, fmt.Errorf("oauth2 token error: %w", err)
		}
		headers["Authorization"] = tok.Type() + " " + tok.AccessToken
	default:
		return nil, fmt.Errorf("unrecognized auth type %T", a)
	}
	return headers, nil
}

// RegisterToolProvider introspects the schema and turns each root query and
// mutation field into a tool whose inputs mirror the field arguments.
func (t *GraphQLClientTransport) RegisterToolProvider(ctx context.Context, manualProv base.Provider) ([]tools.Tool, error) {
	prov, ok := manualProv.(*providers.GraphQLProvider)
	if !ok {
		return nil, errors.New("GraphQLClientTransport can only be used with GraphQLProvider")
	}
	if err := enforceHTTPSOrLocalhost(prov.URL); err != nil {
		return nil, err
	}
	headers, err := t.headers(ctx, prov)
	if err != nil {
		return nil, err
	}

	req := graphql.NewRequest(introspectionQuery)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	var resp struct {
		Schema struct {
			QueryType    *fieldList `json:"queryType"`
			MutationType *fieldList `json:"mutationType"`
		} `json:"__schema"`
	}
	if err := t.client(prov.URL).Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("introspection failed: %w", err)
	}

	ops := make(map[string]operation)
	out := []tools.Tool{}
	add := func(kind string, list *fieldList) {
		if list == nil {
			return
		}
		for _, f := range list.Fields {
			if _, dup := ops[f.Name]; dup {
				continue
			}
			tool, op := toTool(kind, f, prov)
			ops[f.Name] = op
			out = append(out, tool)
		}
	}
	add("query", resp.Schema.QueryType)
	add("mutation", resp.Schema.MutationType)

	t.mu.Lock()
	t.operations[prov.Name] = ops
	t.mu.Unlock()
	t.log.V(1).Info("discovered tools", "provider", prov.Name, "tools", len(out))
	return out, nil
}

func toTool(kind string, f field, prov *providers.GraphQLProvider) (tools.Tool, operation) {
	op := operation{kind: kind, argTypes: make(map[string]string, len(f.Args))}
	inputs := tools.ToolInputOutputSchema{Type: "object", Properties: map[string]interface{}{}}
	for _, a := range f.Args {
		op.argTypes[a.Name] = a.Type.literal()
		prop := a.Type.jsonSchema()
		if a.Description != nil && *a.Description != "" {
			prop["description"] = *a.Description
		}
		inputs.Properties[a.Name] = prop
		if a.Type.Kind == "NON_NULL" {
			inputs.Required = append(inputs.Required, a.Name)
		}
	}
	desc := ""
	if f.Description != nil {
		desc = *f.Description
	}
	return tools.Tool{
		Name:        f.Name,
		Description: desc,
		Inputs:      inputs,
		Tags:        []string{"graphql", kind},
		Provider:    prov,
	}, op
}

// literal renders the type as written in a variable definition, e.g. "[String!]!".
func (r typeRef) literal() string {
	switch r.Kind {
	case "NON_NULL":
		if r.OfType != nil {
			return r.OfType.literal() + "!"
		}
	case "LIST":
		if r.OfType != nil {
			return "[" + r.OfType.literal() + "]"
		}
	}
	if r.Name != nil {
		return *r.Name
	}
	return "String"
}

func (r typeRef) jsonSchema() map[string]interface{} {
	switch r.Kind {
	case "NON_NULL":
		if r.OfType != nil {
			return r.OfType.jsonSchema()
		}
	case "LIST":
		s := map[string]interface{}{"type": "array"}
		if r.OfType != nil {
			s["items"] = r.OfType.jsonSchema()
		}
		return s
	case "INPUT_OBJECT":
		return map[string]interface{}{"type": "object"}
	case "ENUM":
		return map[string]interface{}{"type": "string"}
	}
	name := ""
	if r.Name != nil {
		name = *r.Name
	}
	switch name {
	case "Int":
		return map[string]interface{}{"type": "integer"}
	case "Float":
		return map[string]interface{}{"type": "number"}
	case "Boolean":
		return map[string]interface{}{"type": "boolean"}
	case "String", "ID":
		return map[string]interface{}{"type": "string"}
	}
	return map[string]interface{}{}
}

// inferType guesses a GraphQL type for arguments of fields that were not introspected.
func inferType(v any) string {
	if v == nil {
		return "String"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Int"
	case reflect.Float32, reflect.Float64:
		return "Float"
	case reflect.Bool:
		return "Boolean"
	default:
		return "String"
	}
}

func (t *GraphQLClientTransport) DeregisterToolProvider(ctx context.Context, manualProv base.Provider) error {
	t.mu.Lock()
	delete(t.operations, manualProv.GetName())
	t.mu.Unlock()
	if prov, ok := manualProv.(*providers.GraphQLProvider); ok {
		if oauth, ok := prov.Auth.(*auth.OAuth2Auth); ok {
			t.tokens.Forget(oauth.ClientID)
		}
	}
	return nil
}

// BuildOperation renders the document sent for a call of field with args.
func BuildOperation(kind string, name *string, field string, argTypes map[string]string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(kind)
	if name != nil && *name != "" {
		b.WriteString(" " + *name)
	}
	if len(keys) > 0 {
		defs := make([]string, 0, len(keys))
		for _, k := range keys {
			typ, ok := argTypes[k]
			if !ok {
				typ = inferType(args[k])
			}
			defs = append(defs, fmt.Sprintf("$%s: %s", k, typ))
		}
		b.WriteString("(" + strings.Join(defs, ", ") + ")")
	}
	b.WriteString(" { " + field)
	if len(keys) > 0 {
		passes := make([]string, 0, len(keys))
		for _, k := range keys {
			passes = append(passes, fmt.Sprintf("%s: $%s", k, k))
		}
		b.WriteString("(" + strings.Join(passes, ", ") + ")")
	}
	b.WriteString(" }")
	return b.String()
}

// CallTool runs the query or mutation for toolName and returns the field's data.
func (t *GraphQLClientTransport) CallTool(ctx context.Context, toolName string, arguments map[string]any, toolProvider base.Provider) (any, error) {
	prov, ok := toolProvider.(*providers.GraphQLProvider)
	if !ok {
		return nil, errors.New("GraphQLClientTransport can only be used with GraphQLProvider")
	}
	if err := enforceHTTPSOrLocalhost(prov.URL); err != nil {
		return nil, err
	}
	headers, err := t.headers(ctx, prov)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	op, known := t.operations[prov.Name][toolName]
	t.mu.RUnlock()
	if !known {
		op = operation{kind: strings.ToLower(prov.OperationType)}
		if op.kind == "" {
			op.kind = "query"
		}
	}
	switch op.kind {
	case "query", "mutation":
	case "subscription":
		return nil, errors.New("graphql subscriptions are not supported")
	default:
		return nil, fmt.Errorf("invalid operation type: %s. Must be query or mutation", op.kind)
	}

	req := graphql.NewRequest(BuildOperation(op.kind, prov.OperationName, toolName, op.argTypes, arguments))
	for k, v := range arguments {
		req.Var(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	var resp map[string]interface{}
	if err := t.client(prov.URL).Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", op.kind, toolName, err)
	}
	if data, ok := resp[toolName]; ok {
		return data, nil
	}
	return resp, nil
}
