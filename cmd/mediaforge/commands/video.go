package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/encoding"
	"github.com/haivivi/mediaforge/pkg/storage"
	"github.com/haivivi/mediaforge/pkg/workspace"
)

var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Image-to-video generation",
}

// videoRequest is the request file of video generate.
type videoRequest struct {
	Image       string `json:"image" yaml:"image"`
	Instruction string `json:"instruction" yaml:"instruction"`
}

var (
	videoFlags videoRequest
	videoScene sceneRef
)

var videoGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a video from an image",
	Long: `Submit a video job seeded by an image and wait for it to finish.

The job is polled every poll interval (10s by default) until it completes;
interrupt to stop waiting. With -o the video is downloaded.

With --project and --scene the scene's generated image (or its base image)
seeds the job and the result is stored on the scene.

Examples:
  mediaforge video generate --image night.png --instruction "slow pan left" -o clip.mp4
  mediaforge video generate --project P --scene 1 --instruction "rain starts"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := videoFlags
		if inputFile != "" {
			if err := loadRequest(inputFile, &req); err != nil {
				return err
			}
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
		if videoScene.set() {
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
		case ws != nil:
			scene, err := findScene(ctx, ws, videoScene)
			if err != nil {
				return err
			}
			uri := scene.GeneratedImage
			if uri == "" && scene.BaseImage != nil {
				uri = scene.BaseImage.DataURI
			}
			m, ok := encoding.MediaFromDataURI(uri)
			if !ok {
				return fmt.Errorf("scene %s has no image, run 'mediaforge image edit' first", scene.ID)
			}
			src = m
		default:
			return fmt.Errorf("--image is required")
		}

		p, err := s.Provider()
		if err != nil {
			return err
		}
		cli.PrintInfo("Video job submitted, waiting for it to finish...")
		start := time.Now()
		uri, err := p.GenerateVideo(ctx, req.Instruction, src.Data, src.MIMEType)
		if err != nil {
			return fmt.Errorf("generate video: %w", err)
		}
		result := map[string]any{"uri": uri, "elapsed": cli.FormatDuration(time.Since(start))}

		if outputFile != "" || s.Export.Dir != "" || s.Export.S3 != nil {
			data, mimeType, err := fetchVideo(ctx, uri)
			if err != nil {
				return err
			}
			result["size"] = cli.FormatBytes(len(data))
			if outputFile != "" {
				if err := cli.OutputBytes(data, outputFile); err != nil {
					return err
				}
				result["output_file"] = outputFile
			}
			fs, err := s.ExportStore()
			if err != nil {
				return err
			}
			if loc := exportArtifact(ctx, fs, storage.KindVideo, mimeType, data); loc != "" {
				result["location"] = loc
			}
		}
		if ws != nil {
			if _, err := ws.SetVideo(ctx, videoScene.project, videoScene.scene, uri); err != nil {
				return err
			}
			result["scene"] = videoScene.scene
		}
		return writeResult(result, "", nil)
	},
}

// fetchVideo returns the bytes behind a video reference.
func fetchVideo(ctx context.Context, uri string) ([]byte, string, error) {
	if m, ok := encoding.MediaFromDataURI(uri); ok {
		return m.Data, m.MIMEType, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download video: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	slog.Debug("video downloaded", "bytes", len(data), "mime", mimeType)
	return data, mimeType, nil
}

func init() {
	videoGenerateCmd.Flags().StringVar(&videoFlags.Image, "image", "", "seed image file or data URI")
	videoGenerateCmd.Flags().StringVar(&videoFlags.Instruction, "instruction", "", "how the shot should move")
	videoScene.bind(videoGenerateCmd)
	videoCmd.AddCommand(videoGenerateCmd)
}
