// Package cli holds the terminal plumbing of the mediaforge command: named
// contexts in ~/.mediaforge/config.yaml, request file loading, output
// formatting with optional jq filtering, and lipgloss styles.
//
// Contexts work like kubectl contexts:
//
//	cfg, err := cli.LoadConfig("")
//	ctx, err := cfg.ResolveContext(name)
//	settings := ctx.Settings
//
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON, Query: ".[].title"})
package cli
