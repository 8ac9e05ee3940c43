package utcp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtcpDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_KEY=abc\nEMPTY=\n"), 0o644))

	env := NewDotEnv(path)
	vars, err := env.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", vars["API_KEY"])

	v, err := env.Get("API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = env.Get("MISSING")
	var notFound *UtcpVariableNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "MISSING", notFound.VariableName)
	assert.Contains(t, err.Error(), `"MISSING"`)
}

func TestUtcpDotEnv_MissingFile(t *testing.T) {
	_, err := NewDotEnv(filepath.Join(t.TempDir(), "nope.env")).Get("X")
	assert.Error(t, err)
}

func TestGetVariable_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("A=from-file\nB=from-file\n"), 0o644))
	t.Setenv("B", "from-env")
	t.Setenv("C", "from-env")

	cfg := &UtcpClientConfig{
		Variables:         map[string]string{"A": "inline"},
		LoadVariablesFrom: []UtcpVariablesConfig{NewDotEnv(path)},
	}
	for key, want := range map[string]string{"A": "inline", "B": "from-file", "C": "from-env"} {
		got, err := cfg.getVariable(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}
	_, err := cfg.getVariable("UTCP_ADAPTERS_SURELY_UNSET")
	assert.Error(t, err)
}

func TestReplaceVars(t *testing.T) {
	cfg := &UtcpClientConfig{Variables: map[string]string{"HOST": "localhost", "PORT": "8080"}}
	out, err := cfg.replaceVars(map[string]any{
		"url":   "http://${HOST}:$PORT/utcp",
		"list":  []any{"$HOST", 3},
		"count": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"url":   "http://localhost:8080/utcp",
		"list":  []any{"localhost", 3},
		"count": 2,
	}, out)

	_, err = cfg.replaceVars(map[string]any{"auth": map[string]any{"api_key": "${UTCP_ADAPTERS_SURELY_UNSET}"}})
	var notFound *UtcpVariableNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "UTCP_ADAPTERS_SURELY_UNSET", notFound.VariableName)
}
