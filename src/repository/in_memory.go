package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// InMemoryToolRepository keeps providers and tools in memory, preserving registration order.
type InMemoryToolRepository struct {
	mu        sync.RWMutex
	order     []string                 // provider names, registration order
	providers map[string]base.Provider // providerName -> Provider
	tools     map[string][]tools.Tool  // providerName -> tools
}

func NewInMemoryToolRepository() *InMemoryToolRepository {
	return &InMemoryToolRepository{
		providers: make(map[string]base.Provider),
		tools:     make(map[string][]tools.Tool),
	}
}

func (r *InMemoryToolRepository) SaveProviderWithTools(ctx context.Context, provider base.Provider, ts []tools.Tool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}
	name := provider.GetName()
	if name == "" {
		return fmt.Errorf("provider has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.providers[name] = provider
	r.tools[name] = append([]tools.Tool(nil), ts...)
	return nil
}

func (r *InMemoryToolRepository) RemoveProvider(ctx context.Context, providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[providerName]; !ok {
		return fmt.Errorf("provider not found: %s", providerName)
	}
	delete(r.providers, providerName)
	delete(r.tools, providerName)
	for i, n := range r.order {
		if n == providerName {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *InMemoryToolRepository) RemoveTool(ctx context.Context, toolName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prov, idx := r.locate(toolName)
	if idx < 0 {
		return fmt.Errorf("tool not found: %s", toolName)
	}
	ts := r.tools[prov]
	r.tools[prov] = append(ts[:idx:idx], ts[idx+1:]...)
	return nil
}

func (r *InMemoryToolRepository) GetTool(ctx context.Context, toolName string) (*tools.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prov, idx := r.locate(toolName)
	if idx < 0 {
		return nil, nil
	}
	t := r.tools[prov][idx]
	return &t, nil
}

// locate finds a tool by qualified name, falling back to the first tool with a
// matching bare name. Callers hold the lock.
func (r *InMemoryToolRepository) locate(toolName string) (string, int) {
	for _, prov := range r.order {
		for i, t := range r.tools[prov] {
			if t.QualifiedName() == toolName {
				return prov, i
			}
		}
	}
	for _, prov := range r.order {
		for i, t := range r.tools[prov] {
			if t.Name == toolName {
				return prov, i
			}
		}
	}
	return "", -1
}

func (r *InMemoryToolRepository) GetTools(ctx context.Context) ([]tools.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := []tools.Tool{}
	for _, name := range r.order {
		all = append(all, r.tools[name]...)
	}
	return all, nil
}

func (r *InMemoryToolRepository) GetToolsByProvider(ctx context.Context, providerName string) ([]tools.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.tools[providerName]
	if !ok {
		return nil, nil
	}
	return append([]tools.Tool{}, ts...), nil
}

func (r *InMemoryToolRepository) GetProvider(ctx context.Context, providerName string) (base.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[providerName]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (r *InMemoryToolRepository) GetProviders(ctx context.Context) ([]base.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]base.Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out, nil
}
