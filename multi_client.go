package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/helpers"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/utcp"
)

// ErrProviderNotFound is matched by errors about unknown providers.
var ErrProviderNotFound = utcp.ErrProviderNotFound

// Config configures a MultiProviderClient. Either ProvidersFilePath or Providers must be set.
type Config struct {
	// ProvidersFilePath points at a JSON or YAML providers definition.
	ProvidersFilePath string
	// Providers are registered after the providers file, in order.
	Providers []map[string]any
	// Variables are substituted into provider definitions before any other source.
	Variables map[string]string
	// EnvFiles are dotenv files consulted for variables, in order.
	EnvFiles []string
	// Metrics, when set, records the invocations of the tools handed out.
	Metrics *Metrics
	// Logger receives client lifecycle logs.
	Logger logr.Logger
	// ClientOptions are passed to the underlying UTCP client.
	ClientOptions []utcp.Option
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name         string            `json:"name"`
	ProviderType base.ProviderType `json:"provider_type"`
	Config       map[string]any    `json:"config"`
}

// Health values of ProviderHealth.Status.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ProviderHealth is the health of one provider.
type ProviderHealth struct {
	Status    string `json:"status"`
	ToolCount int    `json:"tool_count"`
	Error     string `json:"error,omitempty"`
}

type providerNotFoundError struct{ name string }

func (e *providerNotFoundError) Error() string        { return fmt.Sprintf("provider %q not found", e.name) }
func (e *providerNotFoundError) Is(target error) bool { return target == ErrProviderNotFound }

// MultiProviderClient loads tools from several UTCP providers through one UTCP client.
// The client is created on first use.
type MultiProviderClient struct {
	cfg Config
	log logr.Logger

	mu     sync.Mutex
	client *utcp.UtcpClient
}

// NewMultiProviderClient validates cfg. No provider is contacted until the first call.
func NewMultiProviderClient(cfg Config) (*MultiProviderClient, error) {
	if cfg.ProvidersFilePath == "" && cfg.Providers == nil {
		return nil, errors.New("must provide either a providers file path or a providers list")
	}
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &MultiProviderClient{cfg: cfg, log: log.WithName("multi")}, nil
}

// CreateClient builds a MultiProviderClient for providersFilePath, reading ".env"
// for variables when loadEnv is set.
func CreateClient(providersFilePath string, loadEnv bool) (*MultiProviderClient, error) {
	cfg := Config{ProvidersFilePath: providersFilePath}
	if loadEnv {
		cfg.EnvFiles = []string{".env"}
	}
	return NewMultiProviderClient(cfg)
}

func (m *MultiProviderClient) ensureClient(ctx context.Context) (*utcp.UtcpClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}

	cfg := utcp.NewClientConfig()
	cfg.ProvidersFilePath = m.cfg.ProvidersFilePath
	for k, v := range m.cfg.Variables {
		cfg.Variables[k] = v
	}
	for _, path := range m.cfg.EnvFiles {
		cfg.LoadVariablesFrom = append(cfg.LoadVariablesFrom, utcp.NewDotEnv(path))
	}
	opts := append([]utcp.Option{utcp.WithLogger(m.log)}, m.cfg.ClientOptions...)
	client, err := utcp.NewUtcpClient(ctx, cfg, nil, nil, opts...)
	if err != nil {
		return nil, err
	}
	for i, raw := range m.cfg.Providers {
		if _, err := client.RegisterProviderMap(ctx, raw); err != nil {
			if ctx.Err() != nil {
				if cerr := client.Close(); cerr != nil {
					m.log.Error(cerr, "closing client after cancelled start")
				}
				return nil, ctx.Err()
			}
			m.log.Error(err, "skipping inline provider", "index", i, "name", raw["name"])
		}
	}
	m.client = client
	return client, nil
}

func (m *MultiProviderClient) hostTools(ts []*UTCPTool) []Tool {
	out := make([]Tool, len(ts))
	for i, t := range ts {
		out[i] = Instrument(t, m.cfg.Metrics)
	}
	return out
}

// GetTools returns the tools of every provider, or of providerName when it is not empty.
func (m *MultiProviderClient) GetTools(ctx context.Context, providerName string) ([]Tool, error) {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	wrapped, err := LoadAllTools(ctx, client, providerName)
	return m.hostTools(wrapped), err
}

// SearchTools searches all tools for query, then keeps those of providerName
// (when not empty) and at most maxResults of them (DefaultMaxResults when <= 0).
func (m *MultiProviderClient) SearchTools(ctx context.Context, query, providerName string, maxResults int) ([]Tool, error) {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	found, err := client.SearchTools(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	kept := make([]tools.Tool, 0, len(found))
	for _, t := range found {
		if providerName != "" && (t.Provider == nil || t.Provider.GetName() != providerName) {
			continue
		}
		kept = append(kept, t)
		if len(kept) == maxResults {
			break
		}
	}
	wrapped, err := wrapAll(ctx, client, kept)
	return m.hostTools(wrapped), err
}

// GetProviders lists the registered provider names in registration order.
func (m *MultiProviderClient) GetProviders(ctx context.Context) ([]string, error) {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	provs, err := client.ToolRepository().GetProviders(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(provs))
	for i, p := range provs {
		names[i] = p.GetName()
	}
	return names, nil
}

// GetProviderInfo describes the provider registered as name.
func (m *MultiProviderClient) GetProviderInfo(ctx context.Context, name string) (*ProviderInfo, error) {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	prov, err := client.ToolRepository().GetProvider(ctx, name)
	if err != nil {
		return nil, err
	}
	if prov == nil {
		return nil, &providerNotFoundError{name: name}
	}
	raw, err := helpers.ProviderToMap(prov)
	if err != nil {
		return nil, err
	}
	return &ProviderInfo{Name: prov.GetName(), ProviderType: prov.Type(), Config: raw}, nil
}

// CallTool calls a tool by qualified name and returns its raw result.
func (m *MultiProviderClient) CallTool(ctx context.Context, toolName string, args map[string]any) (any, error) {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.CallTool(ctx, toolName, args)
}

// RegisterProvider registers a provider from its configuration map and returns its tools.
func (m *MultiProviderClient) RegisterProvider(ctx context.Context, providerConfig map[string]any) ([]Tool, error) {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	registered, err := client.RegisterProviderMap(ctx, providerConfig)
	if err != nil {
		return nil, err
	}
	wrapped, err := wrapAll(ctx, client, registered)
	return m.hostTools(wrapped), err
}

// DeregisterProvider removes a provider and its tools.
func (m *MultiProviderClient) DeregisterProvider(ctx context.Context, name string) error {
	client, err := m.ensureClient(ctx)
	if err != nil {
		return err
	}
	if err := client.DeregisterToolProvider(ctx, name); err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return &providerNotFoundError{name: name}
		}
		return err
	}
	return nil
}

// HealthCheck loads the tools of each provider and reports the outcome per provider.
func (m *MultiProviderClient) HealthCheck(ctx context.Context) (map[string]ProviderHealth, error) {
	names, err := m.GetProviders(ctx)
	if err != nil {
		return nil, err
	}
	status := make(map[string]ProviderHealth, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts, err := m.GetTools(ctx, name)
		if err != nil {
			status[name] = ProviderHealth{Status: StatusUnhealthy, Error: err.Error()}
			continue
		}
		status[name] = ProviderHealth{Status: StatusHealthy, ToolCount: len(ts)}
	}
	return status, nil
}

// Close releases the underlying client. A later call creates a new one.
func (m *MultiProviderClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	return err
}
