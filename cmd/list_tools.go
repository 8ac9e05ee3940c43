package cmd

import (
	"fmt"

	adapters "github.com/universal-tool-calling-protocol/go-utcp-adapters"
)

// ListToolsCmd prints every tool as "provider.tool<TAB>description".
type ListToolsCmd struct {
	Provider string `long:"provider" description:"Only list the tools of this provider"`
	JSON     bool   `long:"json" description:"Print tools with their input schema as JSON"`
}

func (c *ListToolsCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	ts, err := svc.GetTools(commandContext(), c.Provider)
	if err != nil && len(ts) == 0 {
		return err
	}
	if err != nil {
		logger.Error(err, "some tools could not be loaded")
	}
	return printTools(ts, c.JSON)
}

type toolView struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	Metadata    map[string]any `json:"metadata"`
}

func printTools(ts []adapters.Tool, asJSON bool) error {
	if asJSON {
		views := make([]toolView, len(ts))
		for i, t := range ts {
			views[i] = toolView{
				Name:        t.Name(),
				Description: t.Description(),
				InputSchema: t.ArgsSchema().JSONSchema(),
				Metadata:    t.Metadata().Map(),
			}
		}
		return printJSON(views)
	}
	for _, t := range ts {
		fmt.Fprintf(stdout, "%s\t%s\n", t.Name(), t.Description())
	}
	return nil
}
