package utcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/helpers"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tag"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
	graphqltr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/graphql"
	httptr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/http"
	mcptr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/mcp"
	ssetr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/sse"
	streamtr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/streamable"
	texttr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/text"
	wstr "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/websocket"
)

var (
	// ErrProviderNotFound is returned when no provider is registered under a name.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrToolNotFound is returned when no tool is registered under a qualified name.
	ErrToolNotFound = errors.New("tool not found")
)

// ToolSearchStrategy ranks the tools of a repository for a free-text query.
type ToolSearchStrategy interface {
	SearchTools(ctx context.Context, query string, limit int) ([]tools.Tool, error)
}

// UtcpClientInterface defines the public API of a UTCP client.
type UtcpClientInterface interface {
	RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error)
	DeregisterToolProvider(ctx context.Context, providerName string) error
	CallTool(ctx context.Context, toolName string, args map[string]any) (any, error)
	SearchTools(ctx context.Context, query string, limit int) ([]tools.Tool, error)
	ToolRepository() repository.ToolRepository
}

// UtcpClient registers providers, keeps their tools and routes calls to the matching transport.
type UtcpClient struct {
	config         *UtcpClientConfig
	transports     map[base.ProviderType]repository.ClientTransport
	toolRepository repository.ToolRepository
	searchStrategy ToolSearchStrategy
	log            logr.Logger
}

// Option customizes a UtcpClient.
type Option func(*UtcpClient)

// WithLogger sets the logger of the client and its default transports.
func WithLogger(l logr.Logger) Option {
	return func(c *UtcpClient) { c.log = l }
}

// WithTransport installs tr for providers of type pt, replacing the default.
func WithTransport(pt base.ProviderType, tr repository.ClientTransport) Option {
	return func(c *UtcpClient) { c.transports[pt] = tr }
}

// NewUtcpClient constructs a client and registers the providers of cfg.ProvidersFilePath.
// Providers that fail to register are logged and skipped.
func NewUtcpClient(
	ctx context.Context,
	cfg *UtcpClientConfig,
	repo repository.ToolRepository,
	strat ToolSearchStrategy,
	opts ...Option,
) (*UtcpClient, error) {
	if cfg == nil {
		cfg = NewClientConfig()
	}
	if repo == nil {
		repo = repository.NewInMemoryToolRepository()
	}
	if strat == nil {
		strat = tag.NewTagSearchStrategy(repo, 1.0)
	}

	client := &UtcpClient{
		config:         cfg,
		transports:     make(map[base.ProviderType]repository.ClientTransport),
		toolRepository: repo,
		searchStrategy: strat,
		log:            logr.Discard(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.log = client.log.WithName("utcp")
	for pt, tr := range client.defaultTransports() {
		if _, ok := client.transports[pt]; !ok {
			client.transports[pt] = tr
		}
	}

	if cfg.ProvidersFilePath != "" {
		if err := client.loadProviders(ctx, cfg.ProvidersFilePath); err != nil {
			if cerr := client.Close(); cerr != nil {
				client.log.Error(cerr, "closing transports after failed start")
			}
			return nil, err
		}
	}
	return client, nil
}

func (c *UtcpClient) defaultTransports() map[base.ProviderType]repository.ClientTransport {
	text := texttr.NewTextTransport(c.log)
	if c.config.ProvidersFilePath != "" {
		text.SetBasePath(filepath.Dir(c.config.ProvidersFilePath))
	}
	return map[base.ProviderType]repository.ClientTransport{
		base.ProviderHTTP:       httptr.NewHttpClientTransport(c.log),
		base.ProviderSSE:        ssetr.NewSSETransport(c.log),
		base.ProviderHTTPStream: streamtr.NewStreamableHTTPTransport(c.log),
		base.ProviderText:       text,
		base.ProviderWebSocket:  wstr.NewWebSocketTransport(c.log),
		base.ProviderGraphQL:    graphqltr.NewGraphQLClientTransport(c.log),
		base.ProviderMCP:        mcptr.NewMCPTransport(c.log),
	}
}

// loadProviders reads a providers definition and registers each provider.
func (c *UtcpClient) loadProviders(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read providers file %q: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	raws, err := helpers.DecodeProviderMaps(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return fmt.Errorf("invalid providers file %q: %w", path, err)
	}
	for i, raw := range raws {
		if _, err := c.RegisterProviderMap(ctx, raw); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error(err, "skipping provider", "index", i, "name", raw["name"])
		}
	}
	return nil
}

// RegisterProviderMap decodes a provider from its generic map form and registers it.
func (c *UtcpClient) RegisterProviderMap(ctx context.Context, raw map[string]any) ([]tools.Tool, error) {
	prov, err := helpers.ProviderFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("decode provider: %w", err)
	}
	return c.RegisterToolProvider(ctx, prov)
}

// substitute returns a copy of p with variables resolved.
func (c *UtcpClient) substitute(p base.Provider) (base.Provider, error) {
	raw, err := helpers.ProviderToMap(p)
	if err != nil {
		return nil, err
	}
	out, err := c.config.replaceVars(raw)
	if err != nil {
		return nil, err
	}
	return helpers.ProviderFromMap(out.(map[string]any))
}

func (c *UtcpClient) transportFor(p base.Provider) (repository.ClientTransport, error) {
	tr, ok := c.transports[p.Type()]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", p.Type())
	}
	return tr, nil
}

// RegisterToolProvider resolves variables, normalizes the provider name, discovers
// the provider's tools and stores them. Unnamed providers get a random name and
// dots in names become underscores so qualified names stay unambiguous.
func (c *UtcpClient) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	if prov.GetName() == "" {
		prov.SetName(uuid.NewString())
	}
	prov.SetName(strings.ReplaceAll(prov.GetName(), ".", "_"))
	resolved, err := c.substitute(prov)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", prov.GetName(), err)
	}
	tr, err := c.transportFor(resolved)
	if err != nil {
		return nil, err
	}

	discovered, err := tr.RegisterToolProvider(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("register provider %s: %w", prov.GetName(), err)
	}
	name := resolved.GetName()
	for i := range discovered {
		t := &discovered[i]
		t.Name = strings.TrimPrefix(t.Name, name+".")
		if t.Provider == nil {
			t.Provider = resolved
		} else if pn := t.Provider.GetName(); strings.Contains(pn, ".") {
			t.Provider.SetName(strings.ReplaceAll(pn, ".", "_"))
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}

	if err := c.toolRepository.SaveProviderWithTools(ctx, resolved, discovered); err != nil {
		return nil, err
	}
	c.log.Info("registered provider", "provider", name, "type", resolved.Type(), "tools", len(discovered))
	return discovered, nil
}

// DeregisterToolProvider releases the provider's transport state and removes its tools.
func (c *UtcpClient) DeregisterToolProvider(ctx context.Context, providerName string) error {
	prov, err := c.toolRepository.GetProvider(ctx, providerName)
	if err != nil {
		return err
	}
	if prov == nil {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}
	tr, err := c.transportFor(prov)
	if err != nil {
		return err
	}
	if err := tr.DeregisterToolProvider(ctx, prov); err != nil {
		return err
	}
	return c.toolRepository.RemoveProvider(ctx, providerName)
}

// CallTool calls the tool registered under the qualified name toolName through its own provider.
func (c *UtcpClient) CallTool(ctx context.Context, toolName string, args map[string]any) (any, error) {
	tool, err := c.toolRepository.GetTool(ctx, toolName)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}
	if tool.Provider == nil {
		return nil, fmt.Errorf("tool %s has no provider", toolName)
	}
	prov, err := c.substitute(tool.Provider)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", toolName, err)
	}
	tr, err := c.transportFor(prov)
	if err != nil {
		return nil, err
	}
	c.log.V(1).Info("calling tool", "tool", toolName, "provider", prov.GetName())
	return tr.CallTool(ctx, tool.Name, args, prov)
}

// SearchTools ranks registered tools for query. limit <= 0 means no limit.
func (c *UtcpClient) SearchTools(ctx context.Context, query string, limit int) ([]tools.Tool, error) {
	return c.searchStrategy.SearchTools(ctx, query, limit)
}

func (c *UtcpClient) ToolRepository() repository.ToolRepository {
	return c.toolRepository
}

// Close releases transports that hold connections.
func (c *UtcpClient) Close() error {
	var errs []error
	for _, tr := range c.transports {
		if closer, ok := tr.(interface{ Close() error }); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
