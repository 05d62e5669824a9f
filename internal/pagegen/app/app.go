// Package app assembles the configured providers, store, service and HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pagegen-backend/internal/observability"
	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	"github.com/yungbote/pagegen-backend/internal/pagegen/httpapi"
	"github.com/yungbote/pagegen-backend/internal/pagegen/provider/router"
	"github.com/yungbote/pagegen-backend/internal/pagegen/service"
	"github.com/yungbote/pagegen-backend/internal/pagegen/store"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

var initOTel = observability.InitOTel

type App struct {
	Log     *logger.Logger
	Config  *config.Config
	Service *service.Service

	store        store.Store
	otelShutdown observability.ShutdownFunc
	server       *http.Server
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := initOTel(ctx, log, cfg.Telemetry, cfg.Env)

	chain, err := router.New(ctx, cfg, log)
	if err != nil {
		return nil, multierr.Append(err, otelShutdown(ctx))
	}

	st, err := store.Open(cfg.Store, log)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("open store: %w", err), otelShutdown(ctx))
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	svc := service.New(cfg, chain, log, service.Options{Store: st, Metrics: metrics})
	srv := httpapi.NewServer(httpapi.RouterConfig{
		Config:            cfg,
		Log:               log,
		GenerationHandler: httpapi.NewGenerationHandler(svc, log),
		Metrics:           metrics,
	})

	return &App{
		Log:          log,
		Config:       cfg,
		Service:      svc,
		store:        st,
		otelShutdown: otelShutdown,
		server:       srv,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		a.Log.Info("http server shutting down")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the store and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	err := multierr.Combine(
		a.store.Close(),
		a.otelShutdown(ctx),
	)
	a.Log.Sync()
	return err
}
