package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
)

// CallCmd validates arguments against a tool's input schema and calls it.
// Arguments come inline via -i/--input or from a JSON file via -f/--file.
type CallCmd struct {
	Name   string `short:"n" long:"name" description:"Qualified tool name (provider.tool)" required:"yes"`
	Inline string `short:"i" long:"input" description:"Inline JSON arguments (object)"`
	File   string `short:"f" long:"file" description:"Path to JSON file with arguments (use - for stdin)"`
}

func (c *CallCmd) Execute(_ []string) error {
	if c.Inline != "" && c.File != "" {
		return fmt.Errorf("-i/--input and -f/--file are mutually exclusive")
	}
	input := c.Inline
	if c.File != "" {
		var rdr io.Reader = os.Stdin
		if c.File != "-" {
			f, err := os.Open(c.File)
			if err != nil {
				return fmt.Errorf("open input file: %w", err)
			}
			defer f.Close()
			rdr = f
		}
		data, err := io.ReadAll(rdr)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		input = string(data)
	}

	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	ctx := commandContext()
	provider, _, ok := strings.Cut(c.Name, ".")
	if !ok {
		return fmt.Errorf("tool name %q must be qualified as provider.tool", c.Name)
	}
	ts, err := svc.GetTools(ctx, provider)
	if err != nil && len(ts) == 0 {
		return err
	}
	for _, t := range ts {
		if t.Name() != c.Name {
			continue
		}
		args, err := decodeArgs(input)
		if err != nil {
			return err
		}
		out, err := t.Invoke(ctx, args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, out)
		return err
	}
	return fmt.Errorf("tool %q not found", c.Name)
}

func decodeArgs(input string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(input) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}
	return args, nil
}
