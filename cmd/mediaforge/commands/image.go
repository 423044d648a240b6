package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/encoding"
	"github.com/haivivi/mediaforge/pkg/storage"
	"github.com/haivivi/mediaforge/pkg/workspace"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Image editing",
}

// sceneRef points a media command at a scene of a local project.
type sceneRef struct {
	project string
	scene   string
}

func (r *sceneRef) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.project, "project", "", "project id whose scene receives the result")
	cmd.Flags().StringVar(&r.scene, "scene", "", "scene id within --project")
}

func (r *sceneRef) set() bool {
	return r.project != "" && r.scene != ""
}

// editImageRequest is the request file of image edit.
type editImageRequest struct {
	Image       string `json:"image" yaml:"image"`
	Instruction string `json:"instruction" yaml:"instruction"`
}

var (
	editImageFlags editImageRequest
	editImageScene sceneRef
)

var imageEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit an image with an instruction",
	Long: `Send an image and an instruction to the image model and save the result.

The image is a file path or a data URI. With --project and --scene the source
becomes the scene's base image and the result its generated image; without
--image the scene's current base image is used.

Examples:
  mediaforge image edit --image shot.png --instruction "make it night" -o night.png
  mediaforge image edit -f edit.yaml -o out.png
  mediaforge image edit --project P --scene 1 --instruction "add rain"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := editImageFlags
		if inputFile != "" {
			if err := loadRequest(inputFile, &req); err != nil {
				return err
			}
		}
		if strings.TrimSpace(req.Instruction) == "" {
			return fmt.Errorf("--instruction is required")
		}
		s, err := getSettings()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		var (
			ws  *workspace.Workspace
			src encoding.Media
		)
		if editImageScene.set() {
			var closeWS func() error
			ws, closeWS, err = openWorkspace(s)
			if err != nil {
				return err
			}
			defer closeWS()
		}
		switch {
		case req.Image != "":
			if src, err = readMedia(req.Image); err != nil {
				return err
			}
			if ws != nil {
				img := workspace.Image{DataURI: src.DataURI(), MIMEType: src.MIMEType}
				if _, err := ws.SetBaseImage(ctx, editImageScene.project, editImageScene.scene, img); err != nil {
					return err
				}
			}
		case ws != nil:
			scene, err := findScene(ctx, ws, editImageScene)
			if err != nil {
				return err
			}
			if scene.BaseImage == nil {
				return fmt.Errorf("scene %s has no base image, pass --image", scene.ID)
			}
			src, _ = encoding.MediaFromDataURI(scene.BaseImage.DataURI)
		default:
			return fmt.Errorf("--image is required")
		}

		p, err := s.Provider()
		if err != nil {
			return err
		}
		slog.Debug("edit image", "bytes", len(src.Data), "mime", src.MIMEType)
		uri, err := p.EditImage(ctx, src.Data, src.MIMEType, req.Instruction)
		if err != nil {
			return fmt.Errorf("edit image: %w", err)
		}

		result := map[string]any{}
		if out, ok := encoding.MediaFromDataURI(uri); ok {
			result["mime_type"] = out.MIMEType
			result["size"] = cli.FormatBytes(len(out.Data))
			if outputFile != "" {
				if err := cli.OutputBytes(out.Data, outputFile); err != nil {
					return err
				}
				result["output_file"] = outputFile
			}
			fs, err := s.ExportStore()
			if err != nil {
				return err
			}
			if loc := exportArtifact(ctx, fs, storage.KindImage, out.MIMEType, out.Data); loc != "" {
				result["location"] = loc
			}
		} else {
			result["uri"] = uri
		}
		if ws != nil {
			if _, err := ws.SetGeneratedImage(ctx, editImageScene.project, editImageScene.scene, uri); err != nil {
				return err
			}
			result["scene"] = editImageScene.scene
		}
		return writeResult(result, "", nil)
	},
}

func init() {
	imageEditCmd.Flags().StringVar(&editImageFlags.Image, "image", "", "source image file or data URI")
	imageEditCmd.Flags().StringVar(&editImageFlags.Instruction, "instruction", "", "what to change")
	editImageScene.bind(imageEditCmd)
	imageCmd.AddCommand(imageEditCmd)
}
