package utcp

import (
	"fmt"

	"github.com/joho/godotenv"
)

// UtcpVariableNotFound is returned when a provider definition references a variable
// that no source defines.
type UtcpVariableNotFound struct {
	VariableName string
}

func (e *UtcpVariableNotFound) Error() string {
	return fmt.Sprintf(
		"Variable %q referenced in provider configuration not found. "+
			"Please add it to the environment variables or to your UTCP configuration.",
		e.VariableName,
	)
}

// UtcpVariablesConfig is a source of variables for provider definitions.
type UtcpVariablesConfig interface {
	// Load returns all variables available from this source.
	Load() (map[string]string, error)
	// Get returns a single variable or an error if not present.
	Get(key string) (string, error)
}

// UtcpDotEnv reads variables from a .env file.
type UtcpDotEnv struct {
	EnvFilePath string
}

func NewDotEnv(path string) *UtcpDotEnv {
	return &UtcpDotEnv{EnvFilePath: path}
}

func (u *UtcpDotEnv) Load() (map[string]string, error) {
	return godotenv.Read(u.EnvFilePath)
}

func (u *UtcpDotEnv) Get(key string) (string, error) {
	vars, err := u.Load()
	if err != nil {
		return "", err
	}
	if val, ok := vars[key]; ok {
		return val, nil
	}
	return "", &UtcpVariableNotFound{VariableName: key}
}

// UtcpClientConfig holds variables and provider settings of a client.
type UtcpClientConfig struct {
	// Variables passed inline; they take precedence over every other source.
	Variables map[string]string

	// ProvidersFilePath points at a JSON or YAML providers definition.
	ProvidersFilePath string

	// LoadVariablesFrom lists further variable sources, consulted in order.
	LoadVariablesFrom []UtcpVariablesConfig
}

func NewClientConfig() *UtcpClientConfig {
	return &UtcpClientConfig{
		Variables: make(map[string]string),
	}
}
