// Package loam archives exported diagrams in a Loam document repository.
//
// Each artifact becomes one document: the serialized diagram is the body and
// an ArtifactMetadata header records what it is. With versioning enabled,
// Loam commits every save, giving a history of exports per session.
package loam

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/loam"
)

// Archive implements ports.Downloader on top of a typed Loam repository.
type Archive struct {
	repo  *loam.TypedRepository[ArtifactMetadata]
	scope string
	now   func() time.Time
}

// New wraps an existing typed repository.
func New(repo *loam.TypedRepository[ArtifactMetadata]) *Archive {
	return &Archive{repo: repo, now: time.Now}
}

// Open initializes a Loam repository in dir and wraps it.
func Open(dir string, opts ...loam.Option) (*Archive, error) {
	repo, err := loam.Init(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repository at %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[ArtifactMetadata](repo)), nil
}

// Scoped returns an Archive that files artifacts under the session's folder.
func (a *Archive) Scoped(sessionID string) *Archive {
	return &Archive{repo: a.repo, scope: sessionID, now: a.now}
}

// DocumentID maps a filename to its document ID. Dots are replaced so Loam
// does not mistake the artifact extension for a storage format.
func DocumentID(scope, filename string) string {
	id := strings.ReplaceAll(filename, ".", "-")
	if scope == "" {
		return id
	}
	return path.Join(scope, id)
}

// Download saves the artifact as a document, replacing any earlier export
// with the same filename in the same scope.
func (a *Archive) Download(ctx context.Context, artifact domain.ExportArtifact) error {
	meta := ArtifactMetadata{
		Kind:        string(artifact.Kind),
		Filename:    artifact.Filename,
		ContentType: artifact.Kind.ContentType(),
		Session:     a.scope,
		Bytes:       len(artifact.Payload),
		ExportedAt:  a.now().UTC().Format(time.RFC3339),
	}
	id := DocumentID(a.scope, artifact.Filename)
	err := a.repo.Save(ctx, &loam.DocumentModel[ArtifactMetadata]{
		ID:      id,
		Content: artifact.Payload,
		Data:    meta,
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}
	return nil
}

// Get reads an archived artifact back.
func (a *Archive) Get(ctx context.Context, filename string) (domain.ExportArtifact, time.Time, error) {
	id := DocumentID(a.scope, filename)
	doc, err := a.repo.Get(ctx, id)
	if err != nil {
		return domain.ExportArtifact{}, time.Time{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	kind, err := domain.ParseExportKind(doc.Data.Kind)
	if err != nil {
		return domain.ExportArtifact{}, time.Time{}, fmt.Errorf("archived document %s: %w", id, err)
	}
	return domain.NewArtifact(kind, doc.Content, doc.Data.Filename), doc.Data.exportedAt(), nil
}

var _ ports.Downloader = (*Archive)(nil)
