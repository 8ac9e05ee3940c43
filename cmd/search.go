package cmd

import "strings"

// SearchCmd prints the tools that best match a query.
type SearchCmd struct {
	Max      int    `short:"m" long:"max" description:"Maximum number of results" default:"10"`
	Provider string `long:"provider" description:"Only keep tools of this provider"`
	JSON     bool   `long:"json" description:"Print tools with their input schema as JSON"`
	Args     struct {
		Query []string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`
}

func (c *SearchCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	ts, err := svc.SearchTools(commandContext(), strings.Join(c.Args.Query, " "), c.Provider, c.Max)
	if err != nil && len(ts) == 0 {
		return err
	}
	if err != nil {
		logger.Error(err, "some tools could not be loaded")
	}
	return printTools(ts, c.JSON)
}
