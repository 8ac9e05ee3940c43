package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

func names(ts []*UTCPTool) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name()
	}
	return out
}

func TestLoadAllTools(t *testing.T) {
	client := newStubClient().
		add(provider("provider1"), tools.Tool{Name: "tool1"}, tools.Tool{Name: "tool2"}).
		add(provider("provider2"), tools.Tool{Name: "tool1"})
	ctx := context.Background()

	all, err := LoadAllTools(ctx, client, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"provider1.tool1", "provider1.tool2", "provider2.tool1"}, names(all))

	one, err := LoadAllTools(ctx, client, "provider2")
	require.NoError(t, err)
	assert.Equal(t, []string{"provider2.tool1"}, names(one))

	none, err := LoadAllTools(ctx, client, "Provider1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoadAllTools_Empty(t *testing.T) {
	all, err := LoadAllTools(context.Background(), newStubClient(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLoadAllTools_SkipsBrokenTools(t *testing.T) {
	broken := tools.Tool{Name: "broken", Inputs: objectInputs(nil, map[string]any{"x": 1})}
	client := newStubClient().add(provider("p"), tools.Tool{Name: "good"}, broken, tools.Tool{Name: "also_good"})

	all, err := LoadAllTools(context.Background(), client, "")
	assert.Equal(t, []string{"p.good", "p.also_good"}, names(all))
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "p.broken")
}

func TestLoadAllTools_IgnoresUndeclaredRequired(t *testing.T) {
	loose := tools.Tool{Name: "loose", Inputs: objectInputs([]string{"q", "missing"}, map[string]any{"q": map[string]any{"type": "string"}})}
	client := newStubClient().add(provider("p"), loose)

	all, err := LoadAllTools(context.Background(), client, "")
	require.NoError(t, err)
	require.Equal(t, []string{"p.loose"}, names(all))
	assert.Equal(t, []string{"q"}, all[0].ArgsSchema().RequiredFields())
}

func TestSearchTools(t *testing.T) {
	client := newStubClient()
	client.searchHit = []tools.Tool{
		{Name: "b", Provider: provider("p2")},
		{Name: "a", Provider: provider("p1")},
	}

	found, err := SearchTools(context.Background(), client, "  Weather API ", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2.b", "p1.a"}, names(found))
	assert.Equal(t, []string{"  Weather API "}, client.queries)
	assert.Equal(t, []int{DefaultMaxResults}, client.limits)

	_, err = SearchTools(context.Background(), client, "x", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, client.limits[1])
}

func TestSearchTools_ClientError(t *testing.T) {
	client := newStubClient()
	client.err = errors.New("search down")
	_, err := SearchTools(context.Background(), client, "x", 1)
	assert.EqualError(t, err, "search down")
}
