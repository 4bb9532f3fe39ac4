package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// Downloader hands an artifact to the platform file-save mechanism.
// It is called exactly once per artifact.
type Downloader interface {
	Download(ctx context.Context, artifact domain.ExportArtifact) error
}

// DownloaderFunc adapts a function to Downloader.
type DownloaderFunc func(ctx context.Context, artifact domain.ExportArtifact) error

func (f DownloaderFunc) Download(ctx context.Context, artifact domain.ExportArtifact) error {
	return f(ctx, artifact)
}

// Notifier shows a blocking, user-visible notice.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n domain.Notice) error

func (f NotifierFunc) Notify(ctx context.Context, n domain.Notice) error {
	return f(ctx, n)
}
