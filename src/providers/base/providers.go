package base

// ProviderType is the "provider_type" discriminator of a provider definition.
type ProviderType string

const (
	ProviderHTTP       ProviderType = "http"
	ProviderSSE        ProviderType = "sse"
	ProviderHTTPStream ProviderType = "http_stream"
	ProviderCLI        ProviderType = "cli"
	ProviderWebSocket  ProviderType = "websocket"
	ProviderGRPC       ProviderType = "grpc"
	ProviderGraphQL    ProviderType = "graphql"
	ProviderTCP        ProviderType = "tcp"
	ProviderUDP        ProviderType = "udp"
	ProviderWebRTC     ProviderType = "webrtc"
	ProviderMCP        ProviderType = "mcp"
	ProviderText       ProviderType = "text"
)

// Provider is implemented by all concrete provider types.
type Provider interface {
	// Type returns the discriminator.
	Type() ProviderType
	// GetName returns the provider name used to qualify its tools.
	GetName() string
	// SetName renames the provider. The client uses it to normalise names at registration.
	SetName(name string)
}

// BaseProvider holds fields common to every provider.
type BaseProvider struct {
	Name         string       `json:"name" yaml:"name"`
	ProviderType ProviderType `json:"provider_type" yaml:"provider_type"`
}

func (b *BaseProvider) Type() ProviderType { return b.ProviderType }

func (b *BaseProvider) GetName() string { return b.Name }

func (b *BaseProvider) SetName(name string) { b.Name = name }
