package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matthewjablack/dynamicdashboard/internal/api"
	"github.com/matthewjablack/dynamicdashboard/internal/config"
	"github.com/matthewjablack/dynamicdashboard/internal/grid"
	"github.com/matthewjablack/dynamicdashboard/internal/logging"
	"github.com/matthewjablack/dynamicdashboard/internal/metrics"
	"github.com/matthewjablack/dynamicdashboard/internal/store"
	"github.com/matthewjablack/dynamicdashboard/internal/widget"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	closeLog, err := logging.Init(cfg.Log, appName, version)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("open database failed", slog.String("path", cfg.DBPath), slog.Any("error", err))
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := api.NewRouter(routerOptions(cfg, db, reg))
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening",
			slog.String("addr", "http://"+cfg.Listen),
			slog.String("base_path", cfg.BasePath),
			slog.String("database", db.DBPath()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutCtx)
		return errors.Join(err, router.Shutdown(shutCtx))
	})

	err = g.Wait()
	if err != nil {
		slog.Error("server stopped", slog.Any("error", err))
		return err
	}
	slog.Info("goodbye")
	return nil
}

func routerOptions(cfg *config.Config, db *store.Store, reg *prometheus.Registry) api.Options {
	return api.Options{
		Store:  db,
		Policy: grid.NewPolicy(widget.MustBuiltin()),
		Surface: grid.NewSurfaceConfig(grid.SurfaceOptions{
			RowHeight:       cfg.Layout.RowHeight,
			Margin:          cfg.Layout.Margin,
			DraggableHandle: cfg.Layout.DraggableHandle,
		}),
		Auth: api.AuthOptions{Tokens: cfg.Auth.Tokens, TrustedHeader: cfg.Auth.TrustedHeader},
		Session: api.SessionOptions{
			EventsPerSecond: cfg.Session.EventsPerSecond,
			Burst:           cfg.Session.Burst,
			Debounce:        cfg.Layout.PersistDebounce,
			DefaultName:     cfg.Layout.DefaultName,
		},
		BasePath:    cfg.BasePath,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		Logger:      slog.Default(),
	}
}
