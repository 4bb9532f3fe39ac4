package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Downloads implements ports.Downloader by recording every artifact.
// Safe for concurrent use.
type Downloads struct {
	mu    sync.Mutex
	items []domain.ExportArtifact
	err   error
}

// NewDownloads creates an empty recorder.
func NewDownloads() *Downloads {
	return &Downloads{}
}

// Download records the artifact, or returns the configured failure.
func (d *Downloads) Download(ctx context.Context, artifact domain.ExportArtifact) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.items = append(d.items, artifact)
	return nil
}

// FailWith makes subsequent downloads fail with err. A nil err restores
// normal recording.
func (d *Downloads) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// All returns the recorded artifacts in download order.
func (d *Downloads) All() []domain.ExportArtifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.items)
}

// Last returns the most recent artifact.
func (d *Downloads) Last() (domain.ExportArtifact, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return domain.ExportArtifact{}, false
	}
	return d.items[len(d.items)-1], true
}

// Len returns the number of recorded artifacts.
func (d *Downloads) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Notices implements ports.Notifier by recording every notice.
// Safe for concurrent use.
type Notices struct {
	mu    sync.Mutex
	items []domain.Notice
}

// NewNotices creates an empty recorder.
func NewNotices() *Notices {
	return &Notices{}
}

// Notify records the notice.
func (n *Notices) Notify(ctx context.Context, notice domain.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notice)
	return nil
}

// All returns the recorded notices in order.
func (n *Notices) All() []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.items)
}

// Codes returns the code of every recorded notice in order.
func (n *Notices) Codes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	codes := make([]string, len(n.items))
	for i, it := range n.items {
		codes[i] = it.Code
	}
	return codes
}

// Len returns the number of recorded notices.
func (n *Notices) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}
