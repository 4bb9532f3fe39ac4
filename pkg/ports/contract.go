package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.SessionSnapshot{
			ID:        sessionID,
			Scale:     0.6,
			Selection: &domain.Element{ID: "StartEvent_1", Type: domain.TypeStartEvent},
			LastReport: &domain.ValidationReport{
				HasStart: true,
			},
			LastExport: "diagram.bpmn",
			CanUndo:    true,
		}

		require.NoError(t, store.Save(ctx, sessionID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.InDelta(t, 0.6, loaded.Scale, 1e-9)
		require.NotNil(t, loaded.Selection)
		assert.Equal(t, "StartEvent_1", loaded.Selection.ID)
		require.NotNil(t, loaded.LastReport)
		assert.False(t, loaded.LastReport.IsValid())
		assert.Equal(t, "diagram.bpmn", loaded.LastExport)
		assert.True(t, loaded.CanUndo)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, &domain.SessionSnapshot{ID: sessionID, Scale: 1}))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, &domain.SessionSnapshot{ID: id1, Scale: 1})
		_ = store.Save(ctx, id2, &domain.SessionSnapshot{ID: id2, Scale: 1})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
