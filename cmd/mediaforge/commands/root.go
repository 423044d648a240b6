package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/config"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	outputFile  string
	inputFile   string
	outputJSON  bool
	outputQuery string
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "mediaforge",
	Short: "Short-video production pipeline CLI",
	Long: `mediaforge - turn a raw script into scenes, images, videos and voiceovers.

It drives the same operations as the browser console:
  - Script structuring into scenes
  - Image editing and image-to-video generation
  - Speech synthesis with prebuilt voices
  - The script-room agents and the process list they feed
  - Local projects with per-scene media

Configuration is stored in ~/.mediaforge/config.yaml and supports multiple
contexts. MEDIAFORGE_* environment variables override the selected context.

Examples:
  # Set up a context
  mediaforge config add-context dev --gemini-api-key KEY --store-url URL --store-key KEY

  # Structure a script and import it as a project
  mediaforge text structure -f script.txt --project "Night city"

  # Chat with the scripter
  mediaforge chat scripter

  # Pipe output to another command
  mediaforge items list --json --query '.[].title'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.mediaforge/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input request file (YAML or JSON, - for stdin)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().StringVar(&outputQuery, "query", "", "jq expression applied to the output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(speechCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(historiesCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the stored context selected by -c or the current one.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return cfg.ResolveContext(contextName)
}

// getSettings returns the selected context with .env files and environment
// variables applied.
func getSettings() (config.Settings, error) {
	ctx, err := getContext()
	if err != nil {
		return config.Settings{}, err
	}
	if err := config.LoadDotenv("."); err != nil {
		return config.Settings{}, err
	}
	s, err := ctx.Settings.FromEnv(os.Getenv)
	if err != nil {
		return config.Settings{}, err
	}
	if s.Workspace == "" {
		if p, err := cli.NewPaths(); err == nil {
			s.Workspace = p.WorkspaceDir()
		}
	}
	if ctx.Name != "" {
		slog.Debug("using context", "name", ctx.Name, "backend", s.Backend)
	}
	return s, nil
}

// outputResult prints result honoring --json, --query and -o. table renders
// the default terminal view and may be nil.
func outputResult(result any, table func(any) string) error {
	return writeResult(result, outputFile, table)
}

// writeResult prints result to path, or stdout when path is empty. Commands
// that write binary data to -o print their summary with an empty path.
func writeResult(result any, path string, table func(any) string) error {
	format := cli.FormatYAML
	switch {
	case outputJSON:
		format = cli.FormatJSON
	case table != nil:
		format = cli.FormatTable
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   path,
		Query:  outputQuery,
		Table:  table,
	})
}
