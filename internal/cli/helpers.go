// Package cli wires configuration, adapters and sessions for the arbor binary.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
)

// ShutdownContext is cancelled by the first shutdown signal or by Stop.
// The signal is recorded as the cancellation cause.
type ShutdownContext struct {
	context.Context
	cancel context.CancelCauseFunc
}

type signalCause struct{ sig os.Signal }

func (c signalCause) Error() string { return "received " + c.sig.String() }

// WithShutdownSignals derives a context cancelled when one of signals
// arrives. With no signals given it listens for SIGINT and SIGTERM.
func WithShutdownSignals(parent context.Context, signals ...os.Signal) *ShutdownContext {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			cancel(signalCause{sig})
		case <-ctx.Done():
		}
	}()
	return &ShutdownContext{Context: ctx, cancel: cancel}
}

// Stop cancels the context and releases the signal subscription.
func (c *ShutdownContext) Stop() { c.cancel(nil) }

// Signal reports which signal cancelled the context. It is nil while the
// context is live or when it ended for another reason.
func (c *ShutdownContext) Signal() os.Signal {
	var cause signalCause
	if errors.As(context.Cause(c.Context), &cause) {
		return cause.sig
	}
	return nil
}

// NewLogger builds the application logger from the log section. Logs always
// go to w (stderr in the binary) so stdout stays free for MCP stdio.
func NewLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return logging.NewJSON(w, level), nil
	}
	return logging.NewText(w, level), nil
}
