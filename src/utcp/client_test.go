package utcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/text"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

const manual = `{
	"version": "1.0",
	"tools": [
		{"name": "weather", "description": "Get the weather forecast", "tags": ["weather", "forecast"],
		 "inputs": {"type": "object", "properties": {"city": {"type": "string"}}, "required": ["city"]}},
		{"name": "news", "description": "Latest headlines", "tags": ["news"], "inputs": {"type": "object"}}
	]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// recordingTransport answers every call with its arguments and remembers what it saw.
type recordingTransport struct {
	tools        []tools.Tool
	calls        []string
	providers    []base.Provider
	deregistered []string
}

func (r *recordingTransport) RegisterToolProvider(ctx context.Context, p base.Provider) ([]tools.Tool, error) {
	return append([]tools.Tool(nil), r.tools...), nil
}

func (r *recordingTransport) DeregisterToolProvider(ctx context.Context, p base.Provider) error {
	r.deregistered = append(r.deregistered, p.GetName())
	return nil
}

func (r *recordingTransport) CallTool(ctx context.Context, toolName string, args map[string]any, p base.Provider) (any, error) {
	r.calls = append(r.calls, toolName)
	r.providers = append(r.providers, p)
	return args, nil
}

// cancellingTransport cancels the start context on its second registration.
type cancellingTransport struct {
	recordingTransport
	cancel     context.CancelFunc
	registered int
	closed     int
}

func (c *cancellingTransport) RegisterToolProvider(ctx context.Context, p base.Provider) ([]tools.Tool, error) {
	c.registered++
	if c.registered == 2 {
		c.cancel()
		return nil, ctx.Err()
	}
	return nil, nil
}

func (c *cancellingTransport) Close() error {
	c.closed++
	return nil
}

func TestNewUtcpClient_ClosesTransportsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "providers.json", `[
		{"name": "a", "provider_type": "text", "file_path": "a.json"},
		{"name": "b", "provider_type": "text", "file_path": "b.json"},
		{"name": "c", "provider_type": "text", "file_path": "c.json"}
	]`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := &cancellingTransport{cancel: cancel}

	cfg := NewClientConfig()
	cfg.ProvidersFilePath = path
	c, err := NewUtcpClient(ctx, cfg, nil, nil, WithTransport(base.ProviderText, tr))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, c)
	assert.Equal(t, 2, tr.registered)
	assert.Equal(t, 1, tr.closed)
}

func TestNewUtcpClient_LoadsJSONProviders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tools.json", manual)
	path := writeFile(t, dir, "providers.json", `[
		{"name": "local", "provider_type": "text", "file_path": "tools.json", "templates": {"greet": "Hello, {{.name}}!"}},
		{"name": "broken", "provider_type": "text", "file_path": "missing.json"},
		{"name": "odd", "provider_type": "carrier_pigeon"}
	]`)

	c, err := NewUtcpClient(context.Background(), &UtcpClientConfig{ProvidersFilePath: path}, nil, nil, WithLogger(logr.Discard()))
	require.NoError(t, err)

	provs, err := c.ToolRepository().GetProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, provs, 1)
	assert.Equal(t, "local", provs[0].GetName())

	all, err := c.ToolRepository().GetTools(context.Background())
	require.NoError(t, err)
	var names []string
	for _, tool := range all {
		names = append(names, tool.QualifiedName())
	}
	assert.Equal(t, []string{"local.weather", "local.news", "local.greet"}, names)

	out, err := c.CallTool(context.Background(), "local.greet", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", out)
}

func TestNewUtcpClient_LoadsYAMLProvidersWithVariables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tools.json", manual)
	path := writeFile(t, dir, "providers.yaml", `
- name: yaml.local
  provider_type: text
  file_path: ${MANUAL}
`)
	cfg := &UtcpClientConfig{ProvidersFilePath: path, Variables: map[string]string{"MANUAL": "tools.json"}}
	c, err := NewUtcpClient(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	prov, err := c.ToolRepository().GetProvider(context.Background(), "yaml_local")
	require.NoError(t, err)
	require.NotNil(t, prov)
	assert.Equal(t, "tools.json", prov.(*text.TextProvider).FilePath)
}

func TestNewUtcpClient_MissingProvidersFile(t *testing.T) {
	_, err := NewUtcpClient(context.Background(), &UtcpClientConfig{ProvidersFilePath: "/nope/providers.json"}, nil, nil)
	assert.ErrorContains(t, err, "could not read providers file")
}

func TestRegisterToolProvider_NamesAndRouting(t *testing.T) {
	rec := &recordingTransport{tools: []tools.Tool{{Name: "echo"}, {Name: "svc_v1.prefixed"}}}
	c, err := NewUtcpClient(context.Background(), nil, nil, nil, WithTransport(base.ProviderHTTP, rec))
	require.NoError(t, err)
	ctx := context.Background()

	registered, err := c.RegisterProviderMap(ctx, map[string]any{"name": "svc.v1", "provider_type": "http", "url": "https://example.com"})
	require.NoError(t, err)
	require.Len(t, registered, 2)
	assert.Equal(t, "svc_v1.echo", registered[0].QualifiedName())
	assert.Equal(t, "prefixed", registered[1].Name)
	assert.Equal(t, []string{}, registered[0].Tags)

	out, err := c.CallTool(ctx, "svc_v1.echo", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, out)
	assert.Equal(t, []string{"echo"}, rec.calls)
	assert.Equal(t, "svc_v1", rec.providers[0].GetName())

	_, err = c.CallTool(ctx, "svc_v1.nope", nil)
	assert.True(t, errors.Is(err, ErrToolNotFound))

	require.NoError(t, c.DeregisterToolProvider(ctx, "svc_v1"))
	assert.Equal(t, []string{"svc_v1"}, rec.deregistered)
	assert.ErrorIs(t, c.DeregisterToolProvider(ctx, "svc_v1"), ErrProviderNotFound)
}

func TestRegisterToolProvider_DefaultName(t *testing.T) {
	rec := &recordingTransport{}
	c, err := NewUtcpClient(context.Background(), nil, nil, nil, WithTransport(base.ProviderText, rec))
	require.NoError(t, err)

	prov := &text.TextProvider{BaseProvider: base.BaseProvider{ProviderType: base.ProviderText}}
	_, err = c.RegisterToolProvider(context.Background(), prov)
	require.NoError(t, err)
	assert.Len(t, prov.GetName(), 36)
}

func TestRegisterToolProvider_UnresolvedVariable(t *testing.T) {
	c, err := NewUtcpClient(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	_, err = c.RegisterProviderMap(context.Background(), map[string]any{
		"name": "p", "provider_type": "text", "file_path": "${UTCP_ADAPTERS_SURELY_UNSET}",
	})
	var notFound *UtcpVariableNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSearchTools(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tools.json", manual)
	path := writeFile(t, dir, "providers.json", `[{"name": "local", "provider_type": "text", "file_path": "tools.json"}]`)
	c, err := NewUtcpClient(context.Background(), &UtcpClientConfig{ProvidersFilePath: path}, nil, nil)
	require.NoError(t, err)
	defer c.Close()

	found, err := c.SearchTools(context.Background(), "weather forecast", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "local.weather", found[0].QualifiedName())
}
