package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/store"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage the process list",
	Long: `Manage the process list: the topics, research, scripts and prompts kept
from agent replies. Items are stored in the remote store.`,
}

// newStoreClient returns the store client of the selected context.
func newStoreClient() (*store.Client, error) {
	s, err := getSettings()
	if err != nil {
		return nil, err
	}
	return s.StoreClient(), nil
}

var itemsAll bool

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List process items",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		items, err := c.ListProcessItems(context.Background(), store.ListOptions{IncludeArchived: itemsAll})
		if err != nil {
			return err
		}
		return outputResult(items, itemsTable)
	},
}

func itemsTable(v any) string {
	items := v.([]store.ProcessItem)
	rows := make([][]string, len(items))
	for i, it := range items {
		archived := ""
		if it.Archived {
			archived = "✓"
		}
		rows[i] = []string{it.ID, string(it.Type), it.Title, it.ScenarioTitle, archived}
	}
	return styles.Table([]string{"ID", "TYPE", "TITLE", "SCENARIO", "ARCHIVED"}, rows, 40)
}

var addItemFlags store.ProcessItem

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a process item",
	Long: `Add a process item. Fields come from flags or a request file.

Example request file (item.yaml):
  title: Пиратская казна
  content: ...
  type: topic
  source_agent_id: angle

Examples:
  mediaforge items add --title "Пиратская казна" --type topic
  mediaforge items add -f item.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		item := addItemFlags
		if inputFile != "" {
			if err := loadRequest(inputFile, &item); err != nil {
				return err
			}
		}
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("--title is required")
		}
		if item.Content == "" {
			item.Content = item.Title
		}
		if !item.Type.Valid() {
			cli.PrintWarning("type %q is not a known item type; the store may reject it", item.Type)
		}
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		created, err := c.AddProcessItem(context.Background(), item)
		if err != nil {
			if sv, ok := store.AsSchemaViolation(err); ok && sv.Hint != "" {
				cli.PrintInfo("Extend the store schema with: %s", sv.Hint)
			}
			return err
		}
		cli.PrintSuccess("Item %s added", created.ID)
		return outputResult(created, nil)
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete process items permanently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := c.DeleteProcessItem(context.Background(), id); err != nil {
				return err
			}
			cli.PrintSuccess("Item %s deleted", id)
		}
		return nil
	},
}

func setArchivedCmd(use, short string, archived bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newStoreClient()
			if err != nil {
				return err
			}
			if err := c.SetArchived(context.Background(), args, archived); err != nil {
				return err
			}
			cli.PrintSuccess("%d items updated", len(args))
			return nil
		},
	}
}

func init() {
	itemsListCmd.Flags().BoolVar(&itemsAll, "all", false, "include archived items")

	f := itemsAddCmd.Flags()
	f.StringVar(&addItemFlags.Title, "title", "", "item title")
	f.StringVar(&addItemFlags.Content, "content", "", "item content (default: the title)")
	f.StringVar((*string)(&addItemFlags.Type), "type", string(store.TypeTopic), "topic, deep_research, research, script or prompt")
	f.StringVar(&addItemFlags.SourceAgentID, "agent", "", "originating agent id")
	f.StringVar(&addItemFlags.ScenarioID, "scenario-id", "", "scenario the item belongs to")
	f.StringVar(&addItemFlags.ScenarioTitle, "scenario-title", "", "title of that scenario")

	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsDeleteCmd)
	itemsCmd.AddCommand(setArchivedCmd("archive", "Archive process items", true))
	itemsCmd.AddCommand(setArchivedCmd("restore", "Restore archived process items", false))
}
