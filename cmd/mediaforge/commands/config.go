package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/config"
	"github.com/haivivi/mediaforge/pkg/jsontime"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

A context holds the backend choice, credentials, model identifiers and the
store location. Configuration is stored in ~/.mediaforge/config.yaml`,
}

var addContextFlags struct {
	backend        string
	geminiKey      string
	geminiURL      string
	gatewayKey     string
	gatewayURL     string
	referer        string
	title          string
	models         provider.Models
	storeURL       string
	storeKey       string
	exportDir      string
	exportBucket   string
	exportPrefix   string
	exportRegion   string
	exportEndpoint string
	workspace      string
	agents         string
	voice          string
	pollInterval   time.Duration
	videoTimeout   time.Duration
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a context, replacing one with the same name. The first context
added becomes the current one.

Example:
  mediaforge config add-context dev --gemini-api-key KEY
  mediaforge config add-context gw --backend gateway --gateway-api-key KEY \
    --store-url https://xyz.supabase.co --store-key KEY`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := addContextFlags
		backend := provider.Backend(f.backend)
		if backend != "" && backend != provider.BackendNative && backend != provider.BackendGateway {
			return fmt.Errorf("--backend must be %q or %q", provider.BackendNative, provider.BackendGateway)
		}
		if f.voice != "" && !provider.IsVoice(f.voice) {
			return fmt.Errorf("unknown voice %q, see 'mediaforge speech voices'", f.voice)
		}

		s := config.Settings{
			Backend: backend,
			Gemini:  config.Endpoint{APIKey: f.geminiKey, BaseURL: f.geminiURL},
			Gateway: config.Gateway{
				Endpoint: config.Endpoint{APIKey: f.gatewayKey, BaseURL: f.gatewayURL},
				Referer:  f.referer,
				Title:    f.title,
			},
			Models:       f.models,
			PollInterval: jsontime.Duration(f.pollInterval),
			VideoTimeout: jsontime.Duration(f.videoTimeout),
			Store:        config.Store{URL: f.storeURL, Key: f.storeKey},
			Export:       config.Export{Dir: f.exportDir},
			Workspace:    f.workspace,
			Agents:       f.agents,
			DefaultVoice: f.voice,
		}
		if f.exportBucket != "" {
			s.Export.S3 = &storage.S3Config{
				Bucket:   f.exportBucket,
				Prefix:   f.exportPrefix,
				Region:   f.exportRegion,
				Endpoint: f.exportEndpoint,
			}
		}

		if err := getConfig().AddContext(args[0], &cli.Context{Settings: s}); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q added", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getConfig().UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"list-contexts", "get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		type row struct {
			Name    string           `json:"name" yaml:"name"`
			Current bool             `json:"current" yaml:"current"`
			Backend provider.Backend `json:"backend" yaml:"backend"`
			Store   string           `json:"store" yaml:"store"`
		}
		var rows []row
		for _, name := range cfg.ListContexts() {
			c := cfg.Contexts[name]
			backend := c.Backend
			if backend == "" {
				backend = provider.BackendNative
			}
			rows = append(rows, row{Name: name, Current: name == cfg.CurrentContext, Backend: backend, Store: c.Store.URL})
		}
		if len(rows) == 0 && !outputJSON {
			cli.PrintInfo("No contexts configured")
			return nil
		}
		return outputResult(rows, func(any) string {
			cells := make([][]string, len(rows))
			for i, r := range rows {
				mark := ""
				if r.Current {
					mark = "*"
				}
				cells[i] = []string{mark, r.Name, string(r.Backend), r.Store}
			}
			return styles.Table([]string{"", "NAME", "BACKEND", "STORE"}, cells, 60)
		})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context with secrets masked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := contextName
		if len(args) > 0 {
			name = args[0]
		}
		ctx, err := getConfig().ResolveContext(name)
		if err != nil {
			return err
		}
		if ctx.Name == "" {
			cli.PrintInfo("No current context set, showing environment settings")
			s, err := ctx.Settings.FromEnv(nil)
			if err != nil {
				return err
			}
			ctx = &cli.Context{Settings: s}
		}
		return outputResult(ctx.Masked(), nil)
	},
}

func init() {
	f := configAddContextCmd.Flags()
	f.StringVar(&addContextFlags.backend, "backend", "", "backend: native or gateway (default native)")
	f.StringVar(&addContextFlags.geminiKey, "gemini-api-key", "", "native backend API key")
	f.StringVar(&addContextFlags.geminiURL, "gemini-base-url", "", "native backend base URL")
	f.StringVar(&addContextFlags.gatewayKey, "gateway-api-key", "", "gateway API key")
	f.StringVar(&addContextFlags.gatewayURL, "gateway-base-url", "", "gateway base URL (default "+provider.DefaultGatewayBaseURL+")")
	f.StringVar(&addContextFlags.referer, "gateway-referer", "", "HTTP-Referer sent to the gateway")
	f.StringVar(&addContextFlags.title, "gateway-title", "", "X-Title sent to the gateway")
	f.StringVar(&addContextFlags.models.Structure, "model-structure", "", "model for script structuring")
	f.StringVar(&addContextFlags.models.Image, "model-image", "", "model for image editing")
	f.StringVar(&addContextFlags.models.Video, "model-video", "", "model for video generation")
	f.StringVar(&addContextFlags.models.Speech, "model-tts", "", "model for speech synthesis")
	f.StringVar(&addContextFlags.models.Chat, "model-chat", "", "model for agent chat")
	f.StringVar(&addContextFlags.storeURL, "store-url", "", "remote store URL")
	f.StringVar(&addContextFlags.storeKey, "store-key", "", "remote store key")
	f.StringVar(&addContextFlags.exportDir, "export-dir", "", "directory receiving generated artifacts")
	f.StringVar(&addContextFlags.exportBucket, "export-s3-bucket", "", "S3 bucket receiving generated artifacts")
	f.StringVar(&addContextFlags.exportPrefix, "export-s3-prefix", "", "S3 key prefix")
	f.StringVar(&addContextFlags.exportRegion, "export-s3-region", "", "S3 region")
	f.StringVar(&addContextFlags.exportEndpoint, "export-s3-endpoint", "", "S3-compatible endpoint")
	f.StringVar(&addContextFlags.workspace, "workspace", "", "local project directory (default ~/.mediaforge/workspace)")
	f.StringVar(&addContextFlags.agents, "agents", "", "agent roster file replacing the built-in agents")
	f.StringVar(&addContextFlags.voice, "voice", "", "default speech voice")
	f.DurationVar(&addContextFlags.pollInterval, "poll-interval", 0, "video status poll interval (default 10s)")
	f.DurationVar(&addContextFlags.videoTimeout, "video-timeout", 0, "video generation deadline (default none)")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configShowCmd)
}
