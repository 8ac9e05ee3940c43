// Package mcpserver publishes adapter tools as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	adapters "github.com/universal-tool-calling-protocol/go-utcp-adapters"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
)

// Server is an MCP server whose tools are adapter tools.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates an MCP server advertising name and version with tools registered.
func NewServer(name, version string, tools ...adapters.Tool) (*Server, error) {
	s := &Server{mcp: server.NewMCPServer(name, version, server.WithToolCapabilities(true))}
	if err := s.AddTools(tools...); err != nil {
		return nil, err
	}
	return s, nil
}

// AddTools registers tools; a tool replaces an earlier one with the same name.
func (s *Server) AddTools(tools ...adapters.Tool) error {
	for _, t := range tools {
		schema, err := json.Marshal(t.ArgsSchema().JSONSchema())
		if err != nil {
			return fmt.Errorf("input schema of %s: %w", t.Name(), err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema), handler(t))
	}
	return nil
}

// handler reports argument and tool errors as MCP error results so the model can
// react to them; other failures surface as protocol errors.
func handler(t adapters.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := t.Invoke(ctx, req.GetArguments())
		if err != nil {
			var invalid *adapters.ValidationError
			var failed *adapters.InvocationError
			if errors.As(err, &invalid) || errors.As(err, &failed) {
				logr.FromContextOrDiscard(ctx).V(1).Info("tool returned an error", "tool", t.Name(), "error", err.Error())
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, err
		}
		return mcp.NewToolResultText(out), nil
	}
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ServeStdio serves MCP over in and out until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// HTTPHandler serves MCP over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}
