package text

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/manual"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/text"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// TextTransport serves tools from local manual files and text templates.
type TextTransport struct {
	log      logr.Logger
	basePath string
}

func NewTextTransport(logger logr.Logger) *TextTransport {
	return &TextTransport{log: logger.WithName("text")}
}

// SetBasePath sets the directory relative file paths are resolved against.
func (t *TextTransport) SetBasePath(path string) { t.basePath = path }

func (t *TextTransport) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || t.basePath == "" {
		return path
	}
	return filepath.Join(t.basePath, path)
}

// RegisterToolProvider reads the provider's manual file, if any, and adds one tool per template.
// Manual tools without their own tool_provider are served by this provider.
func (t *TextTransport) RegisterToolProvider(ctx context.Context, manualProvider base.Provider) ([]tools.Tool, error) {
	p, ok := manualProvider.(*providers.TextProvider)
	if !ok {
		return nil, fmt.Errorf("text transport can only be used with text providers, got %T", manualProvider)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []tools.Tool{}
	seen := map[string]bool{}
	if p.FilePath != "" {
		path := t.resolve(p.FilePath)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read manual %q: %w", path, err)
		}
		ext := strings.ToLower(filepath.Ext(path))
		m, err := manual.Parse(data, ext == ".yaml" || ext == ".yml")
		if err != nil {
			return nil, fmt.Errorf("manual %q: %w", path, err)
		}
		for _, tool := range m.Tools {
			if tool.Provider == nil {
				tool.Provider = p
			}
			seen[tool.Name] = true
			out = append(out, tool)
		}
		t.log.V(1).Info("loaded manual", "path", path, "tools", len(m.Tools))
	}

	names := make([]string, 0, len(p.Templates))
	for name := range p.Templates {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, tools.Tool{
			Name:        name,
			Description: "Text template tool",
			Inputs:      tools.ToolInputOutputSchema{Type: "object"},
			Outputs:     tools.ToolInputOutputSchema{Type: "string"},
			Tags:        []string{},
			Provider:    p,
		})
	}
	return out, nil
}

// DeregisterToolProvider is a no-op for TextTransport.
func (t *TextTransport) DeregisterToolProvider(ctx context.Context, manualProvider base.Provider) error {
	return nil
}

// CallTool renders the tool's template with the arguments. A tool without a
// template answers with the content of the provider's file.
func (t *TextTransport) CallTool(ctx context.Context, toolName string, args map[string]any, toolProvider base.Provider) (any, error) {
	p, ok := toolProvider.(*providers.TextProvider)
	if !ok {
		return nil, fmt.Errorf("text transport can only be used with text providers, got %T", toolProvider)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tmplStr, ok := p.Templates[toolName]; ok {
		tpl, err := template.New(toolName).Option("missingkey=zero").Parse(tmplStr)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", toolName, err)
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, args); err != nil {
			return nil, fmt.Errorf("template %q: %w", toolName, err)
		}
		return buf.String(), nil
	}
	if p.FilePath == "" {
		return nil, fmt.Errorf("tool %s not found", toolName)
	}
	data, err := os.ReadFile(t.resolve(p.FilePath))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", p.FilePath, err)
	}
	return string(data), nil
}
