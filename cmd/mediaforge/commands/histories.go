package commands

import (
	"context"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
)

var historiesCmd = &cobra.Command{
	Use:   "histories",
	Short: "Manage stored chat histories",
}

var historiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored chat histories",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		h, err := c.ListChatHistories(context.Background())
		if err != nil {
			return err
		}
		return outputResult(h, func(any) string {
			ids := make([]string, 0, len(h))
			for id := range h {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			rows := make([][]string, len(ids))
			for i, id := range ids {
				last := ""
				if msgs := h[id]; len(msgs) > 0 {
					last = msgs[len(msgs)-1].Text
				}
				rows[i] = []string{id, strconv.Itoa(len(h[id])), last}
			}
			return styles.Table([]string{"AGENT", "TURNS", "LAST"}, rows, 60)
		})
	},
}

var historiesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored chat history",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newStoreClient()
		if err != nil {
			return err
		}
		if err := c.DeleteAllChatHistories(context.Background()); err != nil {
			return err
		}
		cli.PrintSuccess("Chat histories deleted")
		return nil
	},
}

func init() {
	historiesCmd.AddCommand(historiesListCmd)
	historiesCmd.AddCommand(historiesResetCmd)
}
