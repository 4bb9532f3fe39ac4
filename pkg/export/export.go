// Package export turns engine serializations into downloadable artifacts.
package export

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

type result struct {
	text string
	err  error
}

// Pending is an outstanding serialization request.
// The engine callback completes it exactly once.
type Pending struct {
	kind     domain.ExportKind
	filename string
	done     chan result
}

func newPending(kind domain.ExportKind, filename string) *Pending {
	return &Pending{kind: kind, filename: filename, done: make(chan result, 1)}
}

func (p *Pending) complete(text string, err error) {
	select {
	case p.done <- result{text: text, err: err}:
	default:
		// engines must call back once; extra calls are dropped
	}
}

// Kind returns the requested export kind.
func (p *Pending) Kind() domain.ExportKind { return p.kind }

// Await blocks until the engine completes the request or ctx is done.
// Cancelling ctx only abandons the wait; the engine call itself is not cancelled.
func (p *Pending) Await(ctx context.Context) (domain.ExportArtifact, error) {
	select {
	case r := <-p.done:
		if r.err != nil {
			return domain.ExportArtifact{}, fmt.Errorf("%w: %s: %w", domain.ErrSerialization, p.kind, r.err)
		}
		return domain.NewArtifact(p.kind, r.text, p.filename), nil
	case <-ctx.Done():
		return domain.ExportArtifact{}, ctx.Err()
	}
}

// Serializer requests serializations from the engine and hands finished
// artifacts to the downloader.
type Serializer struct {
	engine     ports.Serializer
	downloader ports.Downloader
}

// New creates a Serializer. downloader may be nil, in which case Export only
// returns the artifact.
func New(engine ports.Serializer, downloader ports.Downloader) *Serializer {
	return &Serializer{engine: engine, downloader: downloader}
}

// Request issues the engine call for kind and returns immediately.
// A second request before the first completes is neither deduplicated nor queued.
func (s *Serializer) Request(kind domain.ExportKind, filename string) (*Pending, error) {
	p := newPending(kind, filename)
	opts := ports.SerializeOptions{Format: true}
	switch kind {
	case domain.ExportMarkup:
		s.engine.SerializeMarkup(opts, p.complete)
	case domain.ExportVector:
		s.engine.SerializeVector(opts, p.complete)
	default:
		return nil, fmt.Errorf("unsupported export kind %q", kind)
	}
	return p, nil
}

// Serialize requests and awaits an artifact without downloading it.
func (s *Serializer) Serialize(ctx context.Context, kind domain.ExportKind, filename string) (domain.ExportArtifact, error) {
	p, err := s.Request(kind, filename)
	if err != nil {
		return domain.ExportArtifact{}, err
	}
	return p.Await(ctx)
}

// Export serializes and downloads one artifact. On engine failure nothing is
// downloaded and no retry is attempted.
func (s *Serializer) Export(ctx context.Context, kind domain.ExportKind, filename string) (domain.ExportArtifact, error) {
	artifact, err := s.Serialize(ctx, kind, filename)
	if err != nil {
		return domain.ExportArtifact{}, err
	}
	if s.downloader == nil {
		return artifact, nil
	}
	if err := s.downloader.Download(ctx, artifact); err != nil {
		return artifact, fmt.Errorf("download %s: %w", artifact.Filename, err)
	}
	return artifact, nil
}
