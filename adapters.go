// Package adapters exposes the tools of a UTCP client as callable tools for
// agent frameworks: each tool gets a validated argument record, a qualified
// name and a string result.
package adapters

import (
	"context"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/schema"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// DefaultMaxResults caps SearchTools when the caller passes no positive limit.
const DefaultMaxResults = 10

// ToolCaller invokes a tool by its qualified name.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, args map[string]any) (any, error)
}

// Client is the part of a UTCP client the bulk loaders need.
type Client interface {
	ToolCaller
	SearchTools(ctx context.Context, query string, limit int) ([]tools.Tool, error)
	ToolRepository() repository.ToolRepository
}

// Tool is a callable tool in the shape agent frameworks expect.
type Tool interface {
	Name() string
	Description() string
	ArgsSchema() *schema.ArgsSchema
	Metadata() Metadata
	Invoke(ctx context.Context, args map[string]any) (string, error)
}
