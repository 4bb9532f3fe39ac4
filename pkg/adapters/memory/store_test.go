package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	snap := &domain.SessionSnapshot{ID: "s1", Scale: 1, Selection: &domain.Element{ID: "a"}}
	require.NoError(t, store.Save(ctx, "s1", snap))
	snap.Selection.ID = "mutated"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Selection.ID)

	loaded.Selection.ID = "mutated-again"
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Selection.ID)
}
