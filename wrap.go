package adapters

import (
	"context"
	"strings"
	"unicode"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/schema"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// Metadata describes where a wrapped tool comes from.
type Metadata struct {
	Provider     string
	ProviderType base.ProviderType
	Tags         []string
	UTCPTool     bool
}

// Map renders the metadata with the keys agent frameworks expect.
func (m Metadata) Map() map[string]any {
	return map[string]any{
		"provider":      m.Provider,
		"provider_type": string(m.ProviderType),
		"tags":          m.Tags,
		"utcp_tool":     m.UTCPTool,
	}
}

// UTCPTool is a UTCP tool bound to the client that calls it.
type UTCPTool struct {
	client      ToolCaller
	tool        tools.Tool
	name        string
	description string
	args        *schema.ArgsSchema
	meta        Metadata
}

var _ Tool = (*UTCPTool)(nil)

// WrapTool builds the callable form of tool. The tool must carry its provider.
func WrapTool(client ToolCaller, tool tools.Tool) (*UTCPTool, error) {
	if tool.Provider == nil {
		return nil, &schema.SchemaError{Msg: "tool " + tool.Name + " has no provider"}
	}
	name := tool.Provider.GetName() + "." + tool.Name
	args, err := schema.Build(tool.Inputs, InputTypeName(name))
	if err != nil {
		return nil, err
	}

	desc := tool.Description
	if desc == "" {
		desc = "UTCP tool: " + tool.Name
	}
	tags := append([]string{}, tool.Tags...)

	return &UTCPTool{
		client:      client,
		tool:        tool,
		name:        name,
		description: desc,
		args:        args,
		meta: Metadata{
			Provider:     tool.Provider.GetName(),
			ProviderType: tool.Provider.Type(),
			Tags:         tags,
			UTCPTool:     true,
		},
	}, nil
}

// InputTypeName derives the argument record name from a qualified tool name:
// "weather_api.get_forecast" becomes "WeatherApiGetForecastInput".
func InputTypeName(qualified string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(qualified, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	b.WriteString("Input")
	return b.String()
}

func (t *UTCPTool) Name() string                   { return t.name }
func (t *UTCPTool) Description() string            { return t.description }
func (t *UTCPTool) ArgsSchema() *schema.ArgsSchema { return t.args }
func (t *UTCPTool) Metadata() Metadata             { return t.meta }

// Definition returns the UTCP descriptor the tool was built from.
func (t *UTCPTool) Definition() tools.Tool { return t.tool }

// Invoke validates args and calls the tool. Invalid arguments never reach the client.
func (t *UTCPTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	validated, err := t.args.Validate(args)
	if err != nil {
		return "", err
	}
	return t.Execute(ctx, validated)
}

// Execute calls the tool with already validated arguments. Absent optional
// arguments are left out of the request.
func (t *UTCPTool) Execute(ctx context.Context, args schema.Args) (string, error) {
	payload := args.Present()
	logr.FromContextOrDiscard(ctx).V(1).Info("invoking tool", "tool", t.name, "args", len(payload))
	result, err := t.client.CallTool(ctx, t.name, payload)
	if err != nil {
		return "", err
	}
	return NormalizeResult(result)
}

// Call takes the arguments as a JSON object string; an empty input means no arguments.
func (t *UTCPTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", &schema.ValidationError{
				Schema:   t.args.Name(),
				Problems: []schema.FieldError{{Field: "input", Reason: "must be a JSON object: " + err.Error()}},
			}
		}
	}
	return t.Invoke(ctx, args)
}
