package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"match-embed/internal/app"
	"match-embed/internal/httputil"
	"match-embed/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, "embedder")
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("embedder listening", "addr", srv.Addr, "strategy", deps.Predictor.Strategy())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if deps.Queue != nil {
		g.Go(func() error {
			return deps.Queue.Serve(ctx, queue.TaskTypeEmbed, embedTaskHandler(deps))
		})
	}

	if err := g.Wait(); err != nil {
		deps.Log.Error("embedder stopped", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log)

	r.Post("/predict_match/", predictMatchHandler(deps))
	r.Post("/predict_match", predictMatchHandler(deps))
	r.Post("/api/embeddings", jsonEmbedHandler(deps))
	r.Get("/strategy", strategyHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	return r
}
