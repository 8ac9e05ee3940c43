package cmd

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Run parses args and executes the selected sub-command.
func Run(args []string) error {
	opts := &Options{}
	for _, a := range args {
		opts.Init(a)
	}
	start(opts)
	defer finish()

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return nil
		}
		return err
	}
	return nil
}
