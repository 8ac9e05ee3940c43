package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/mcp"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// MCPTransport bridges MCP servers reachable over streamable HTTP into UTCP tools.
type MCPTransport struct {
	mu       sync.RWMutex
	sessions map[string]*mcpclient.Client // provider name -> initialized client
	log      logr.Logger
}

func NewMCPTransport(logger logr.Logger) *MCPTransport {
	return &MCPTransport{
		sessions: make(map[string]*mcpclient.Client),
		log:      logger.WithName("mcp"),
	}
}

func (t *MCPTransport) connect(ctx context.Context, mp *providers.MCPProvider) (*mcpclient.Client, error) {
	var opts []transport.StreamableHTTPCOption
	if len(mp.Headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(mp.Headers))
	}
	if mp.Timeout > 0 {
		opts = append(opts, transport.WithHTTPTimeout(time.Duration(mp.Timeout)*time.Second))
	}
	cli, err := mcpclient.NewStreamableHttpClient(mp.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP HTTP client: %w", err)
	}
	if err := cli.Start(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to start MCP HTTP client: %w", err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "utcp-adapters", Version: "1.0.0"}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}
	return cli, nil
}

// RegisterToolProvider opens a session with the MCP server and lists its tools.
func (t *MCPTransport) RegisterToolProvider(ctx context.Context, p base.Provider) ([]tools.Tool, error) {
	mp, ok := p.(*providers.MCPProvider)
	if !ok {
		return nil, errors.New("MCPTransport can only be used with MCPProvider")
	}
	if err := mp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid MCP provider configuration: %w", err)
	}

	cli, err := t.connect(ctx, mp)
	if err != nil {
		return nil, err
	}
	res, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	out := make([]tools.Tool, 0, len(res.Tools))
	for _, tl := range res.Tools {
		out = append(out, tools.Tool{
			Name:        tl.Name,
			Description: tl.Description,
			Inputs: tools.ToolInputOutputSchema{
				Type:       tl.InputSchema.Type,
				Properties: tl.InputSchema.Properties,
				Required:   tl.InputSchema.Required,
			},
			Tags:     []string{},
			Provider: mp,
		})
	}

	t.mu.Lock()
	if old, ok := t.sessions[mp.Name]; ok {
		old.Close()
	}
	t.sessions[mp.Name] = cli
	t.mu.Unlock()
	t.log.Info("registered MCP provider", "provider", mp.Name, "tools", len(out))
	return out, nil
}

// DeregisterToolProvider closes the provider's session.
func (t *MCPTransport) DeregisterToolProvider(ctx context.Context, p base.Provider) error {
	t.mu.Lock()
	cli, ok := t.sessions[p.GetName()]
	delete(t.sessions, p.GetName())
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return cli.Close()
}

// Close ends every open session.
func (t *MCPTransport) Close() error {
	t.mu.Lock()
	sessions := t.sessions
	t.sessions = make(map[string]*mcpclient.Client)
	t.mu.Unlock()
	var errs []error
	for _, cli := range sessions {
		errs = append(errs, cli.Close())
	}
	return errors.Join(errs...)
}

// CallTool calls the tool over the provider's session. MCP error results are
// returned as {"error": text} so callers see a structured failure.
func (t *MCPTransport) CallTool(ctx context.Context, toolName string, args map[string]any, p base.Provider) (any, error) {
	mp, ok := p.(*providers.MCPProvider)
	if !ok {
		return nil, errors.New("MCPTransport can only be used with MCPProvider")
	}
	t.mu.RLock()
	cli, ok := t.sessions[mp.Name]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("MCP provider '%s' is not registered", mp.Name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	t.log.V(1).Info("calling MCP tool", "tool", toolName, "provider", mp.Name)
	res, err := cli.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", toolName, err)
	}
	return convertResult(res)
}

func convertResult(res *mcp.CallToolResult) (any, error) {
	var texts []string
	parts := make([]any, 0, len(res.Content))
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			texts = append(texts, tc.Text)
			parts = append(parts, decodeText(tc.Text))
			continue
		}
		blob, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(blob, &v); err != nil {
			return nil, err
		}
		parts = append(parts, v)
	}

	if res.IsError {
		msg := strings.Join(texts, "\n")
		if msg == "" {
			msg = "tool reported an error"
		}
		return map[string]any{"error": msg}, nil
	}
	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	default:
		return parts, nil
	}
}

// decodeText returns the JSON value a text block holds, or the text itself.
func decodeText(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return s
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return s
	}
	return v
}
