package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/schema"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// LoadAllTools wraps every tool the client knows, or only those of providerName
// when it is not empty. Tools that cannot be wrapped are skipped and reported
// together in the returned error; the others are still returned.
func LoadAllTools(ctx context.Context, client Client, providerName string) ([]*UTCPTool, error) {
	all, err := client.ToolRepository().GetTools(ctx)
	if err != nil {
		return nil, err
	}
	if providerName != "" {
		filtered := all[:0:0]
		for _, t := range all {
			if t.Provider != nil && t.Provider.GetName() == providerName {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}
	return wrapAll(ctx, client, all)
}

// SearchTools wraps the client's search results for query, in the client's order.
// maxResults <= 0 means DefaultMaxResults.
func SearchTools(ctx context.Context, client Client, query string, maxResults int) ([]*UTCPTool, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	found, err := client.SearchTools(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return wrapAll(ctx, client, found)
}

func wrapAll(ctx context.Context, client ToolCaller, ts []tools.Tool) ([]*UTCPTool, error) {
	log := logr.FromContextOrDiscard(ctx)
	out := make([]*UTCPTool, 0, len(ts))
	var errs []error
	for _, t := range ts {
		w, err := WrapTool(client, t)
		if err != nil {
			log.Error(err, "skipping tool", "tool", t.QualifiedName())
			errs = append(errs, fmt.Errorf("wrap %s: %w", t.QualifiedName(), err))
			continue
		}
		if ghosts := schema.UndeclaredRequired(t.Inputs); len(ghosts) > 0 {
			log.Info("ignoring required names without a property", "tool", w.Name(), "names", ghosts)
		}
		out = append(out, w)
	}
	return out, errors.Join(errs...)
}
