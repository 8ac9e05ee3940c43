package repository

import (
	"context"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// ToolRepository defines the contract for persisting providers and their tools.
type ToolRepository interface {
	// SaveProviderWithTools saves a provider and its associated tools,
	// replacing any previous registration under the same provider name.
	SaveProviderWithTools(ctx context.Context, provider base.Provider, tools []tools.Tool) error

	// RemoveProvider removes a provider and all its tools by name.
	// Returns an error if the provider does not exist.
	RemoveProvider(ctx context.Context, providerName string) error

	// RemoveTool removes a single tool by qualified name.
	// Returns an error if the tool does not exist.
	RemoveTool(ctx context.Context, toolName string) error

	// GetTool retrieves a tool by qualified name ("provider.tool").
	// Returns (nil, nil) if the tool is not found.
	GetTool(ctx context.Context, toolName string) (*tools.Tool, error)

	// GetTools returns all tools in registration order.
	GetTools(ctx context.Context) ([]tools.Tool, error)

	// GetToolsByProvider returns all tools for a specific provider.
	// Returns (nil, nil) if the provider is not found.
	GetToolsByProvider(ctx context.Context, providerName string) ([]tools.Tool, error)

	// GetProvider retrieves a provider by name.
	// Returns (nil, nil) if the provider is not found.
	GetProvider(ctx context.Context, providerName string) (base.Provider, error)

	// GetProviders returns all providers in registration order.
	GetProviders(ctx context.Context) ([]base.Provider, error)
}

// ClientTransport defines how a client registers, deregisters, and invokes UTCP tools
// for one provider type.
type ClientTransport interface {
	// RegisterToolProvider discovers the tools a manual provider exposes.
	RegisterToolProvider(ctx context.Context, manualProvider base.Provider) ([]tools.Tool, error)

	// DeregisterToolProvider releases whatever the transport holds for the provider.
	DeregisterToolProvider(ctx context.Context, manualProvider base.Provider) error

	// CallTool invokes the tool named toolName (without provider prefix) on toolProvider.
	CallTool(ctx context.Context, toolName string, arguments map[string]any, toolProvider base.Provider) (any, error)
}
