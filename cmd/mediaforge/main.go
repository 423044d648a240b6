// Package main provides the mediaforge CLI.
//
// Usage:
//
//	mediaforge [flags] <command> <subcommand> [args]
//
// Commands:
//
//	text       - Structure a raw script into scenes
//	image      - Edit an image with an instruction
//	video      - Generate a video from an image
//	speech     - Synthesize voiceovers
//	chat       - Talk to the script-room agents
//	agents     - List agents
//	items      - Manage the process list
//	scenarios  - Manage scenarios
//	histories  - Manage stored chat histories
//	project    - Manage local projects
//	serve      - Run the browser console
//	config     - Manage contexts
//
// Configuration:
//
//	Contexts are stored in ~/.mediaforge/config.yaml. MEDIAFORGE_*
//	variables, including those in .env and .env.local, override them.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/mediaforge/cmd/mediaforge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
