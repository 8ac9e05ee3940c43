package text

import (
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
)

// TextProvider reads a UTCP manual from a local file. Tools it declares are
// answered from Templates, rendered with the call arguments.
type TextProvider struct {
	base.BaseProvider
	FilePath  string            `json:"file_path"`
	Templates map[string]string `json:"templates,omitempty"`
}

func UnmarshalTextProvider(data []byte) (*TextProvider, error) {
	p := &TextProvider{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if p.ProviderType == "" {
		p.ProviderType = base.ProviderText
	}
	return p, nil
}
