// Package cmd implements the utcp-adapters command-line interface. Each file
// registers one sub-command; loading providers and building the logger is
// shared in shared.go.
package cmd
