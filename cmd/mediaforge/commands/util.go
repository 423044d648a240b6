package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/encoding"
	"github.com/haivivi/mediaforge/pkg/storage"
)

var styles = cli.NewStyles(cli.DefaultTheme)

// loadRequest loads a request from a YAML or JSON file
func loadRequest(path string, v any) error {
	return cli.LoadRequest(path, v)
}

// requireInputFile checks if input file is provided
func requireInputFile() error {
	if inputFile == "" {
		return fmt.Errorf("input file is required, use -f flag")
	}
	return nil
}

// signalContext is canceled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// readText returns the joined args, or the contents of -f ("-" for stdin).
func readText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if inputFile == "" {
		return "", fmt.Errorf("text is required, pass it as arguments or use -f")
	}
	var (
		data []byte
		err  error
	)
	if inputFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inputFile)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// readMedia loads an image file, or decodes a data URI.
func readMedia(src string) (encoding.Media, error) {
	if m, ok := encoding.MediaFromDataURI(src); ok {
		return m, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return encoding.Media{}, fmt.Errorf("read image: %w", err)
	}
	return encoding.Media{MIMEType: mimeByExt(src, data), Data: data}, nil
}

func mimeByExt(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}

// exportArtifact writes data to the configured export store, if any, and
// returns its location.
func exportArtifact(ctx context.Context, fs storage.FileStore, kind, mimeType string, data []byte) string {
	if fs == nil {
		return ""
	}
	p := storage.ArtifactPath(kind, uuid.NewString(), mimeType, time.Now())
	loc, err := storage.Save(ctx, fs, p, mimeType, data)
	if err != nil {
		slog.Warn("export artifact", "kind", kind, "error", err)
		return ""
	}
	return loc
}
