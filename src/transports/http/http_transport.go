package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/manual"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/openapi"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/http"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// HttpClientTransport discovers and calls tools served by HTTP providers.
type HttpClientTransport struct {
	httpClient *http.Client
	log        logr.Logger
	tokens     *auth.TokenCache
}

func NewHttpClientTransport(logger logr.Logger) *HttpClientTransport {
	return &HttpClientTransport{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.WithName("http"),
		tokens:     auth.NewTokenCache(),
	}
}

// WithHTTPClient replaces the client used for discovery, calls and token requests.
func (t *HttpClientTransport) WithHTTPClient(c *http.Client) *HttpClientTransport {
	t.httpClient = c
	return t
}

func (t *HttpClientTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	hp, ok := prov.(*providers.HttpProvider)
	if !ok {
		return nil
	}
	if oauth, ok := hp.Auth.(*auth.OAuth2Auth); ok {
		t.tokens.Forget(oauth.ClientID)
	}
	return nil
}

func secureURL(u string) bool {
	return strings.HasPrefix(u, "https://") ||
		strings.HasPrefix(u, "http://localhost") ||
		strings.HasPrefix(u, "http://127.0.0.1")
}

// RegisterToolProvider fetches the UTCP manual served at the provider URL.
// Tools without their own tool_provider are called through the discovering provider.
func (t *HttpClientTransport) RegisterToolProvider(ctx context.Context, p base.Provider) ([]tools.Tool, error) {
	hp, ok := p.(*providers.HttpProvider)
	if !ok {
		return nil, errors.New("HttpTransport can only be used with HttpProvider")
	}
	if !secureURL(hp.URL) {
		return nil, fmt.Errorf("security error: URL must use HTTPS or localhost; got: %s", hp.URL)
	}
	t.log.V(1).Info("discovering tools", "provider", hp.Name, "url", hp.URL)

	req, err := http.NewRequestWithContext(ctx, hp.HTTPMethod, hp.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range hp.Headers {
		req.Header.Set(k, v)
	}
	if err := t.tokens.Apply(ctx, t.httpClient, req, hp.Auth); err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discover tools from %s: %w", hp.Name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("discover tools from %s: %s", hp.Name, resp.Status)
	}

	ct := resp.Header.Get("Content-Type")
	ext := path.Ext(req.URL.Path)
	yamlFormat := strings.Contains(ct, "yaml") || ext == ".yaml" || ext == ".yml"
	if doc, err := manual.Decode(body, yamlFormat); err == nil && openapi.IsSpec(doc) {
		return t.fromOpenAPI(doc, hp), nil
	}
	m, err := manual.Parse(body, yamlFormat)
	if err != nil {
		return nil, fmt.Errorf("discover tools from %s: %w", hp.Name, err)
	}
	for i := range m.Tools {
		if m.Tools[i].Provider == nil {
			m.Tools[i].Provider = hp
		}
	}
	return m.Tools, nil
}

// fromOpenAPI converts an OpenAPI document served by hp. Credentials and
// headers configured on hp take precedence over the document's security schemes.
func (t *HttpClientTransport) fromOpenAPI(doc map[string]any, hp *providers.HttpProvider) []tools.Tool {
	conv := openapi.NewConverter(doc, hp.URL, hp.Name)
	converted := conv.Convert().Tools
	for i := range converted {
		tp := converted[i].Provider.(*providers.HttpProvider)
		if hp.Auth != nil {
			tp.Auth = hp.Auth
		}
		if len(hp.Headers) > 0 {
			tp.Headers = make(map[string]string, len(hp.Headers))
			for k, v := range hp.Headers {
				tp.Headers[k] = v
			}
		}
	}
	t.log.V(1).Info("converted OpenAPI document", "provider", hp.Name, "tools", len(converted))
	return converted
}

// CallTool calls a tool on its HTTP provider. Arguments named in the URL as
// {arg} are substituted into the path, header_fields become headers, body_field
// becomes the request body, and the rest is sent as JSON body or query string.
func (t *HttpClientTransport) CallTool(ctx context.Context, toolName string, args map[string]any, p base.Provider) (any, error) {
	hp, ok := p.(*providers.HttpProvider)
	if !ok {
		return nil, errors.New("HttpTransport can only be used with HttpProvider")
	}

	remaining := make(map[string]any, len(args))
	for k, v := range args {
		remaining[k] = v
	}

	rawURL := hp.URL
	for key, val := range args {
		placeholder := "{" + key + "}"
		if strings.Contains(rawURL, placeholder) {
			rawURL = strings.ReplaceAll(rawURL, placeholder, url.PathEscape(fmt.Sprint(val)))
			delete(remaining, key)
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	for k, v := range hp.Headers {
		headers.Set(k, v)
	}
	for _, field := range hp.HeaderFields {
		if v, ok := remaining[field]; ok {
			headers.Set(field, fmt.Sprint(v))
			delete(remaining, field)
		}
	}

	var body io.Reader
	switch {
	case hp.BodyField != nil:
		if v, ok := remaining[*hp.BodyField]; ok {
			delete(remaining, *hp.BodyField)
			blob, err := encodeBody(v)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(blob)
			headers.Set("Content-Type", hp.ContentType)
		}
		setQuery(u, remaining)
	case hasBody(hp.HTTPMethod) && len(remaining) > 0:
		blob, err := json.Marshal(remaining)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(blob)
		headers.Set("Content-Type", "application/json")
	default:
		setQuery(u, remaining)
	}

	req, err := http.NewRequestWithContext(ctx, hp.HTTPMethod, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	if err := t.tokens.Apply(ctx, t.httpClient, req, hp.Auth); err != nil {
		return nil, err
	}

	t.log.V(1).Info("calling tool", "tool", toolName, "method", hp.HTTPMethod, "url", u.Redacted())
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", toolName, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tool %s returned error status: %s: %s", toolName, resp.Status, strings.TrimSpace(string(data)))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}

	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return string(data), nil
	}
	return result, nil
}

func hasBody(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func setQuery(u *url.URL, args map[string]any) {
	if len(args) == 0 {
		return
	}
	q := u.Query()
	for k, v := range args {
		q.Set(k, fmt.Sprint(v))
	}
	u.RawQuery = q.Encode()
}

func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(v)
	}
}
