//go:build unix

package cli

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithShutdownSignals(t *testing.T) {
	t.Run("Signal cancels and is recorded", func(t *testing.T) {
		ctx := WithShutdownSignals(context.Background(), syscall.SIGUSR1)
		defer ctx.Stop()
		assert.Nil(t, ctx.Signal())

		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("context not cancelled by signal")
		}
		assert.Equal(t, syscall.SIGUSR1, ctx.Signal())
	})

	t.Run("Parent cancellation records no signal", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		ctx := WithShutdownSignals(parent, syscall.SIGUSR2)
		defer ctx.Stop()

		cancel()
		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		assert.Nil(t, ctx.Signal())
	})

	t.Run("Stop records no signal", func(t *testing.T) {
		ctx := WithShutdownSignals(context.Background())
		ctx.Stop()
		<-ctx.Done()
		assert.Nil(t, ctx.Signal())
	})
}
