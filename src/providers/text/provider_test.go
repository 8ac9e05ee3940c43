package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

func TestUnmarshalTextProvider(t *testing.T) {
	p, err := UnmarshalTextProvider([]byte(`{
		"name": "local",
		"file_path": "manuals/local.json",
		"templates": {"greet": "Hello, {{.name}}!"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, base.ProviderText, p.Type())
	assert.Equal(t, "manuals/local.json", p.FilePath)
	assert.Equal(t, "Hello, {{.name}}!", p.Templates["greet"])
}

func TestUnmarshalTextProvider_Invalid(t *testing.T) {
	_, err := UnmarshalTextProvider([]byte(`{"templates": 3}`))
	assert.Error(t, err)
}
