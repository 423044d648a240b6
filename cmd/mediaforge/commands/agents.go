package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Script-room agents",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents and their commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		roster, err := s.Roster()
		if err != nil {
			return err
		}
		agents := roster.List()
		return outputResult(agents, func(any) string {
			rows := make([][]string, len(agents))
			for i, a := range agents {
				cmds := make([]string, len(a.Commands))
				for j, c := range a.Commands {
					cmds[j] = c.Name
				}
				rows[i] = []string{a.ID, a.Name, strings.Join(cmds, " "), a.Description}
			}
			return styles.Table([]string{"ID", "NAME", "COMMANDS", "DESCRIPTION"}, rows, 48)
		})
	},
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
}
