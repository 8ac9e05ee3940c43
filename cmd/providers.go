package cmd

import "fmt"

// ProvidersCmd prints the registered provider names in registration order.
type ProvidersCmd struct{}

func (c *ProvidersCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	names, err := svc.GetProviders(commandContext())
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(stdout, n)
	}
	return nil
}

// ProviderInfoCmd prints one provider's resolved configuration as JSON.
type ProviderInfoCmd struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes"`
}

func (c *ProviderInfoCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	info, err := svc.GetProviderInfo(commandContext(), c.Args.Name)
	if err != nil {
		return err
	}
	return printJSON(info)
}

// HealthCmd prints the health of every provider as JSON.
type HealthCmd struct{}

func (c *HealthCmd) Execute(_ []string) error {
	svc, err := serviceSingleton()
	if err != nil {
		return err
	}
	status, err := svc.HealthCheck(commandContext())
	if err != nil {
		return err
	}
	return printJSON(status)
}
