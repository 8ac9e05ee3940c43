package mcp

import (
	"errors"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// MCPProvider points at an MCP server reachable over streamable HTTP.
type MCPProvider struct {
	base.BaseProvider
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Timeout int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // seconds
}

// NewMCPProvider constructs an MCPProvider for the server at url.
func NewMCPProvider(name, url string) *MCPProvider {
	return &MCPProvider{
		BaseProvider: base.BaseProvider{Name: name, ProviderType: base.ProviderMCP},
		URL:          url,
		Headers:      make(map[string]string),
	}
}

func UnmarshalMCPProvider(data []byte) (*MCPProvider, error) {
	p := &MCPProvider{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if p.ProviderType == "" {
		p.ProviderType = base.ProviderMCP
	}
	if p.Headers == nil {
		p.Headers = make(map[string]string)
	}
	return p, nil
}

// WithHeader adds a header sent on every request to the server.
func (p *MCPProvider) WithHeader(key, value string) *MCPProvider {
	if p.Headers == nil {
		p.Headers = make(map[string]string)
	}
	p.Headers[key] = value
	return p
}

// WithTimeout sets the timeout for MCP operations in seconds.
func (p *MCPProvider) WithTimeout(seconds int) *MCPProvider {
	p.Timeout = seconds
	return p
}

func (p *MCPProvider) Validate() error {
	if p.Name == "" {
		return errors.New("MCP provider name cannot be empty")
	}
	if p.URL == "" {
		return errors.New("MCP provider url cannot be empty")
	}
	return nil
}
