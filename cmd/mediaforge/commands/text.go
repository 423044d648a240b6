package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/workspace"
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Script structuring",
}

var structureProject string

var textStructureCmd = &cobra.Command{
	Use:   "structure [text...]",
	Short: "Split a raw script into scenes",
	Long: `Ask the model to split a raw script into a JSON scene list.

The response streams to the terminal as it arrives. With --project the scenes
are imported into a new local project.

Examples:
  mediaforge text structure -f script.txt
  mediaforge text structure -f script.txt --project "Night city"
  cat script.txt | mediaforge text structure -f - --json --query '.scenes[].script'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readText(args)
		if err != nil {
			return err
		}
		s, err := getSettings()
		if err != nil {
			return err
		}
		p, err := s.Provider()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		live := !outputJSON && outputQuery == "" && outputFile == ""
		var sb strings.Builder
		err = p.StructureText(ctx, raw, func(frag string) {
			sb.WriteString(frag)
			if live {
				fmt.Fprint(os.Stdout, frag)
			}
		})
		if live && sb.Len() > 0 {
			fmt.Fprintln(os.Stdout)
		}
		if err != nil {
			return fmt.Errorf("structure text: %w", err)
		}

		scenes, err := workspace.ParseScenes(sb.String())
		if err != nil {
			return err
		}
		result := struct {
			Text    string           `json:"text" yaml:"text"`
			Scenes  []provider.Scene `json:"scenes" yaml:"scenes"`
			Project string           `json:"project,omitempty" yaml:"project,omitempty"`
		}{Text: sb.String(), Scenes: scenes}

		if structureProject != "" {
			ws, closeWS, err := openWorkspace(s)
			if err != nil {
				return err
			}
			defer closeWS()
			proj, err := ws.Create(ctx, structureProject, raw)
			if err != nil {
				return err
			}
			if _, err := ws.ImportScenes(ctx, proj.ID, raw, sb.String()); err != nil {
				return err
			}
			result.Project = proj.ID
			cli.PrintSuccess("Imported %d scenes into project %s", len(scenes), proj.ID)
		}
		if live {
			cli.PrintSuccess("%d scenes", len(scenes))
			return nil
		}
		return outputResult(result, nil)
	},
}

func init() {
	textStructureCmd.Flags().StringVar(&structureProject, "project", "", "import the scenes into a new project with this title")
	textCmd.AddCommand(textStructureCmd)
}
