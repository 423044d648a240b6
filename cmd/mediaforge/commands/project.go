package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/config"
	"github.com/haivivi/mediaforge/pkg/workspace"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage local projects",
	Long: `Manage local projects.

A project is a script split into scenes. Each scene keeps its base image,
edited image, video and voiceover takes. Projects live in the workspace
directory (~/.mediaforge/workspace by default).`,
}

// openWorkspace opens the local workspace. The returned func closes it.
func openWorkspace(s config.Settings) (*workspace.Workspace, func() error, error) {
	ws, db, err := s.OpenWorkspace()
	if err != nil {
		return nil, nil, fmt.Errorf("open workspace: %w", err)
	}
	return ws, db.Close, nil
}

func findScene(ctx context.Context, ws *workspace.Workspace, ref sceneRef) (*workspace.Scene, error) {
	p, err := ws.Get(ctx, ref.project)
	if err != nil {
		return nil, err
	}
	scene, ok := p.Scene(ref.scene)
	if !ok {
		return nil, fmt.Errorf("scene %q not found in project %s", ref.scene, p.ID)
	}
	return scene, nil
}

var projectRawScript string

var projectImportCmd = &cobra.Command{
	Use:   "import <title>",
	Short: "Create a project from structured scene JSON",
	Long: `Create a project from the output of 'mediaforge text structure'.

The input is the scene JSON (a {"scenes": [...]} document or a bare array).
Fenced or truncated JSON is repaired where possible.

Examples:
  mediaforge text structure -f script.txt --json --query .text -o scenes.json
  mediaforge project import "Night city" -f scenes.json --raw-script script.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInputFile(); err != nil {
			return err
		}
		structured, err := readText(nil)
		if err != nil {
			return err
		}
		raw := ""
		if projectRawScript != "" {
			data, err := os.ReadFile(projectRawScript)
			if err != nil {
				return fmt.Errorf("read raw script: %w", err)
			}
			raw = string(data)
		}

		s, err := getSettings()
		if err != nil {
			return err
		}
		ws, closeWS, err := openWorkspace(s)
		if err != nil {
			return err
		}
		defer closeWS()

		ctx := context.Background()
		if _, err := workspace.ParseScenes(structured); err != nil {
			return err
		}
		p, err := ws.Create(ctx, args[0], raw)
		if err != nil {
			return err
		}
		p, err = ws.ImportScenes(ctx, p.ID, "", structured)
		if err != nil {
			return err
		}
		cli.PrintSuccess("Project %s created with %d scenes", p.ID, len(p.Scenes))
		return outputResult(p, projectTable)
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		ws, closeWS, err := openWorkspace(s)
		if err != nil {
			return err
		}
		defer closeWS()

		projects, err := ws.List(context.Background())
		if err != nil {
			return err
		}
		return outputResult(projects, func(any) string {
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{p.ID, p.Title, strconv.Itoa(len(p.Scenes)), p.UpdatedAt.Local().Format("2006-01-02 15:04")}
			}
			return styles.Table([]string{"ID", "TITLE", "SCENES", "UPDATED"}, rows, 40)
		})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project and its scenes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		ws, closeWS, err := openWorkspace(s)
		if err != nil {
			return err
		}
		defer closeWS()

		p, err := ws.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		return outputResult(p, projectTable)
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		ws, closeWS, err := openWorkspace(s)
		if err != nil {
			return err
		}
		defer closeWS()

		if err := ws.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Project %s deleted", args[0])
		return nil
	},
}

// projectTable renders a project's scenes.
func projectTable(v any) string {
	p := v.(*workspace.Project)
	rows := make([][]string, len(p.Scenes))
	for i, sc := range p.Scenes {
		rows[i] = []string{
			sc.ID,
			sc.Script,
			mark(sc.BaseImage != nil),
			mark(sc.GeneratedImage != ""),
			mark(sc.VideoURL != ""),
			strconv.Itoa(len(sc.Voiceovers)),
		}
	}
	return styles.Title.Render(p.Title) + "\n" +
		styles.Table([]string{"SCENE", "SCRIPT", "BASE", "EDITED", "VIDEO", "TAKES"}, rows, 48)
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return ""
}

func init() {
	projectImportCmd.Flags().StringVar(&projectRawScript, "raw-script", "", "file with the original raw script")
	projectCmd.AddCommand(projectImportCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}
