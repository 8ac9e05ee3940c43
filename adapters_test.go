package adapters

import (
	"context"
	"sync"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

type recordedCall struct {
	name string
	args map[string]any
}

// stubClient serves tools from an in-memory repository and records calls.
type stubClient struct {
	repo *repository.InMemoryToolRepository

	mu      sync.Mutex
	calls   []recordedCall
	queries []string
	limits  []int

	result    any
	err       error
	searchHit []tools.Tool
}

func newStubClient() *stubClient {
	return &stubClient{repo: repository.NewInMemoryToolRepository()}
}

func (s *stubClient) add(p base.Provider, ts ...tools.Tool) *stubClient {
	for i := range ts {
		ts[i].Provider = p
	}
	if err := s.repo.SaveProviderWithTools(context.Background(), p, ts); err != nil {
		panic(err)
	}
	return s
}

func (s *stubClient) CallTool(ctx context.Context, toolName string, args map[string]any) (any, error) {
	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{name: toolName, args: args})
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.result, s.err
}

func (s *stubClient) SearchTools(ctx context.Context, query string, limit int) ([]tools.Tool, error) {
	s.queries = append(s.queries, query)
	s.limits = append(s.limits, limit)
	return s.searchHit, s.err
}

func (s *stubClient) ToolRepository() repository.ToolRepository { return s.repo }

func provider(name string) *base.BaseProvider {
	return &base.BaseProvider{Name: name, ProviderType: base.ProviderHTTP}
}

func objectInputs(required []string, props map[string]any) tools.ToolInputOutputSchema {
	return tools.ToolInputOutputSchema{Type: "object", Properties: props, Required: required}
}
