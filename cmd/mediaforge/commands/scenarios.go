package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/scenario"
	"github.com/haivivi/mediaforge/pkg/store"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Manage scenarios",
	Long: `Manage scenarios.

A scenario is the set of process items sharing a scenario id. It is archived
when every one of its items is archived. Titles carry a sequence number
("3. Night city") that orders the list.`,
}

var scenariosAll bool

func loadScenarios(ctx context.Context, c *store.Client) ([]scenario.Scenario, []store.ProcessItem, error) {
	items, err := c.ListProcessItems(ctx, store.ListOptions{IncludeArchived: true})
	if err != nil {
		return nil, nil, err
	}
	return scenario.Derive(items), items, nil
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		all, _, err := loadScenarios(context.Background(), c)
		if err != nil {
			return err
		}
		var scenarios []scenario.Scenario
		for _, s := range all {
			if scenariosAll || !s.Archived {
				scenarios = append(scenarios, s)
			}
		}
		return outputResult(scenarios, func(any) string {
			rows := make([][]string, len(scenarios))
			for i, s := range scenarios {
				types := make([]string, len(s.Items))
				for j, it := range s.Items {
					types[j] = string(it.Type)
				}
				archived := ""
				if s.Archived {
					archived = "✓"
				}
				rows[i] = []string{s.ID, s.Title, strconv.Itoa(len(s.Items)), strings.Join(types, ","), archived}
			}
			return styles.Table([]string{"ID", "TITLE", "ITEMS", "STAGES", "ARCHIVED"}, rows, 40)
		})
	},
}

func setScenarioArchivedCmd(use, short string, archived bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <scenario-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newStoreClient()
			if err != nil {
				return err
			}
			ctx := context.Background()
			all, _, err := loadScenarios(ctx, c)
			if err != nil {
				return err
			}
			s, ok := scenario.Find(all, args[0])
			if !ok {
				return fmt.Errorf("scenario %q not found", args[0])
			}
			if err := c.SetArchived(ctx, s.ItemIDs(), archived); err != nil {
				return err
			}
			cli.PrintSuccess("Scenario %q: %d items updated", s.Title, len(s.Items))
			return nil
		},
	}
}

var newScenarioContent string

var scenariosNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Start a scenario",
	Long: `Start a scenario with a topic item.

The title is numbered after the highest existing scenario number unless it
already starts with one.

Examples:
  mediaforge scenarios new "Пиратская казна"
  mediaforge scenarios new "7. Гении на костях" --content "..."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		ctx := context.Background()
		_, items, err := loadScenarios(ctx, c)
		if err != nil {
			return err
		}
		title := strings.TrimSpace(args[0])
		id, fullTitle := scenario.New(title, items)
		content := newScenarioContent
		if content == "" {
			content = title
		}
		created, err := c.AddProcessItem(ctx, store.ProcessItem{
			Title:         title,
			Content:       content,
			Type:          store.TypeTopic,
			ScenarioID:    id,
			ScenarioTitle: fullTitle,
		})
		if err != nil {
			return err
		}
		cli.PrintSuccess("Scenario %q started", fullTitle)
		seq, _ := scenario.ParseSequence(fullTitle)
		return outputResult(scenario.Scenario{
			ID:       id,
			Title:    fullTitle,
			Sequence: seq,
			Items:    []store.ProcessItem{*created},
		}, nil)
	},
}

func init() {
	scenariosListCmd.Flags().BoolVar(&scenariosAll, "all", false, "include archived scenarios")
	scenariosNewCmd.Flags().StringVar(&newScenarioContent, "content", "", "content of the topic item (default: the title)")

	scenariosCmd.AddCommand(scenariosListCmd)
	scenariosCmd.AddCommand(setScenarioArchivedCmd("archive", "Archive every item of a scenario", true))
	scenariosCmd.AddCommand(setScenarioArchivedCmd("restore", "Restore every item of a scenario", false))
	scenariosCmd.AddCommand(scenariosNewCmd)
}
