// Package file persists exports and session snapshots on the local filesystem.
package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Downloads implements ports.Downloader by writing each artifact into a
// directory. Writes are atomic, so a crash never leaves a half-written diagram.
type Downloads struct {
	BasePath string
}

// NewDownloads creates a Downloads rooted at basePath.
// If basePath is empty, it defaults to ".arbor/exports".
func NewDownloads(basePath string) *Downloads {
	if basePath == "" {
		basePath = filepath.Join(".arbor", "exports")
	}
	return &Downloads{BasePath: basePath}
}

// Scoped returns a Downloads writing into the session's subdirectory.
func (d *Downloads) Scoped(sessionID string) *Downloads {
	return &Downloads{BasePath: filepath.Join(d.BasePath, sessionID)}
}

// Path returns where an artifact with the given filename is written.
func (d *Downloads) Path(filename string) string {
	return filepath.Join(d.BasePath, filename)
}

// Download writes the artifact payload to BasePath/Filename.
func (d *Downloads) Download(ctx context.Context, artifact domain.ExportArtifact) error {
	name := artifact.Filename
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid artifact filename %q", name)
	}
	if err := writeAtomic(d.Path(name), []byte(artifact.Payload)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
