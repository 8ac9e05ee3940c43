package cmd

// Options is the root of the CLI, parsed by github.com/jessevdk/go-flags.
type Options struct {
	Providers string   `short:"p" long:"providers" description:"Providers definition (JSON or YAML)" default:"providers.json"`
	EnvFiles  []string `short:"e" long:"env-file" description:"Dotenv file with provider variables (repeatable)"`
	Verbose   bool     `short:"v" long:"verbose" description:"Log debug output to stderr"`

	ListTools    *ListToolsCmd    `command:"list-tools"    description:"List the tools of all or one provider"`
	Search       *SearchCmd       `command:"search"        description:"Search tools by tags and description"`
	Call         *CallCmd         `command:"call"          description:"Validate arguments and call one tool"`
	ProviderList *ProvidersCmd    `command:"providers"     description:"List registered providers"`
	ProviderInfo *ProviderInfoCmd `command:"provider-info" description:"Show the configuration of one provider"`
	Health       *HealthCmd       `command:"health"        description:"Check every provider"`
	Serve        *ServeCmd        `command:"serve"         description:"Serve the tools as an MCP server"`
}

// Init instantiates the sub-command referenced by firstArg so that go-flags can populate it.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "list-tools":
		o.ListTools = &ListToolsCmd{}
	case "search":
		o.Search = &SearchCmd{}
	case "call":
		o.Call = &CallCmd{}
	case "providers":
		o.ProviderList = &ProvidersCmd{}
	case "provider-info":
		o.ProviderInfo = &ProviderInfoCmd{}
	case "health":
		o.Health = &HealthCmd{}
	case "serve":
		o.Serve = &ServeCmd{}
	}
}
