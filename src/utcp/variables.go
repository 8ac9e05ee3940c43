package utcp

import (
	"os"
	"regexp"
)

var variablePattern = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// getVariable checks inline variables, then the configured sources, then the environment.
func (c *UtcpClientConfig) getVariable(key string) (string, error) {
	if v, ok := c.Variables[key]; ok {
		return v, nil
	}
	for _, loader := range c.LoadVariablesFrom {
		if val, err := loader.Get(key); err == nil && val != "" {
			return val, nil
		}
	}
	if env, ok := os.LookupEnv(key); ok && env != "" {
		return env, nil
	}
	return "", &UtcpVariableNotFound{VariableName: key}
}

// replaceVars walks strings, maps and lists and performs ${VAR}/$VAR substitution.
// The first unresolved variable aborts the walk.
func (c *UtcpClientConfig) replaceVars(x any) (any, error) {
	switch v := x.(type) {
	case string:
		var firstErr error
		out := variablePattern.ReplaceAllStringFunc(v, func(match string) string {
			g := variablePattern.FindStringSubmatch(match)
			name := g[1]
			if name == "" {
				name = g[2]
			}
			val, err := c.getVariable(name)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return match
			}
			return val
		})
		return out, firstErr
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			r, err := c.replaceVars(e)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			r, err := c.replaceVars(e)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return x, nil
	}
}
