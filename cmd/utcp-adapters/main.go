package main

import (
	"fmt"
	"os"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/cmd"
)

func main() {
	if err := cmd.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
