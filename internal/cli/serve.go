package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/arbor/internal/config"
	httpadapter "github.com/aretw0/arbor/pkg/adapters/http"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the REST API for the app's sessions. Metrics are mounted
// on the same router unless a dedicated port is configured.
func (a *App) Handler(cfg config.Config) http.Handler {
	opts := []httpadapter.Option{httpadapter.WithLogger(a.Logger)}
	if a.Metrics != nil && cfg.Metrics.Port == 0 {
		opts = append(opts, httpadapter.WithMetrics(a.Metrics.Handler()))
	}
	return httpadapter.NewHandler(a.Manager, opts...)
}

// Serve runs the HTTP listeners until ctx is cancelled, then shuts them down
// gracefully.
func Serve(ctx context.Context, app *App, cfg config.Config) error {
	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.Handler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if app.Metrics != nil && cfg.Metrics.Port != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			app.Logger.Info("Listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("Graceful shutdown did not complete", "addr", srv.Addr, "timeout", shutdownTimeout, "error", err)
				errs = append(errs, srv.Close())
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	app.Logger.Info("Server stopped gracefully")
	return nil
}
