// Package storage writes generated artifacts (reassembled speech, edited
// images, downloaded videos) to a local directory or an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// FileStore is file-oriented storage. Paths are slash separated and
// relative to the store root. Implementations are safe for concurrent use.
type FileStore interface {
	// Read fails with an error wrapping os.ErrNotExist for a missing file.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write truncates an existing file. The caller must Close the writer;
	// Close reports whether the file was stored.
	Write(ctx context.Context, path string, opts ...WriteOption) (io.WriteCloser, error)

	// Delete of a missing file is not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// Location describes where path is stored, for display.
	Location(path string) string
}

// WriteOption configures a Write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	contentType string
}

// WithContentType sets the stored media type. Local stores ignore it.
func WithContentType(mimeType string) WriteOption {
	return func(o *writeOptions) { o.contentType = mimeType }
}

func applyWrite(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Artifact kinds, used as the first path segment.
const (
	KindAudio = "audio"
	KindImage = "image"
	KindVideo = "video"
)

var extensions = map[string]string{
	"audio/wav":  ".wav",
	"audio/mpeg": ".mp3",
	"audio/ogg":  ".ogg",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// Extension returns the file extension for a media type, ".bin" when unknown.
func Extension(mimeType string) string {
	mt, _, _ := strings.Cut(mimeType, ";")
	if ext, ok := extensions[strings.ToLower(strings.TrimSpace(mt))]; ok {
		return ext
	}
	return ".bin"
}

// ArtifactPath names an artifact: kind/YYYYMMDD/name.ext.
func ArtifactPath(kind, name, mimeType string, at time.Time) string {
	return path.Join(kind, at.UTC().Format("20060102"), name+Extension(mimeType))
}

// Save writes data to p and returns its location.
func Save(ctx context.Context, fs FileStore, p, mimeType string, data []byte) (string, error) {
	w, err := fs.Write(ctx, p, WithContentType(mimeType))
	if err != nil {
		return "", fmt.Errorf("storage: write %s: %w", p, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("storage: write %s: %w", p, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", p, err)
	}
	return fs.Location(p), nil
}
