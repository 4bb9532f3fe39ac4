package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.NewStore(t.TempDir())
	err := store.Save(context.Background(), "../escape", &domain.SessionSnapshot{})
	assert.Error(t, err)
}

func TestDownloads_WritesArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := file.NewDownloads(dir).Scoped("s1")

	require.NoError(t, d.Download(ctx, domain.NewArtifact(domain.ExportMarkup, "<xml/>", "")))
	require.NoError(t, d.Download(ctx, domain.NewArtifact(domain.ExportMarkup, "<xml v=\"2\"/>", "")))

	data, err := os.ReadFile(filepath.Join(dir, "s1", "diagram.bpmn"))
	require.NoError(t, err)
	assert.Equal(t, `<xml v="2"/>`, string(data), "later exports replace earlier ones")

	entries, err := os.ReadDir(filepath.Join(dir, "s1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestDownloads_RejectsUnsafeNames(t *testing.T) {
	d := file.NewDownloads(t.TempDir())
	for _, name := range []string{"../x.bpmn", "sub/x.bpmn", ".hidden"} {
		err := d.Download(context.Background(), domain.ExportArtifact{Kind: domain.ExportMarkup, Filename: name})
		assert.Error(t, err, name)
	}
}
