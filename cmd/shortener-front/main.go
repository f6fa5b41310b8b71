package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/issafronov/shortener-front/internal/app/backend"
	"github.com/issafronov/shortener-front/internal/app/config"
	"github.com/issafronov/shortener-front/internal/app/oneshot"
	"github.com/issafronov/shortener-front/internal/app/proxy"
	"github.com/issafronov/shortener-front/internal/middleware/aliasguard"
	"github.com/issafronov/shortener-front/internal/middleware/compress"
	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"github.com/issafronov/shortener-front/internal/pprof"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := runServer(); err != nil {
		panic(err)
	}
}

// Router собирает цепочку middleware и обработчик, который отвечает на любой путь
func Router(cfg *config.Config, sup *backend.Supervisor) (chi.Router, error) {
	router := chi.NewRouter()
	router.Use(logger.RequestLogger)
	if cfg.EnableGzip {
		router.Use(compress.GzipMiddleware)
	}
	if cfg.EnforceAlias {
		router.Use(aliasguard.Middleware(aliasguard.Options{
			Path:       cfg.ShortenPath,
			AliasField: cfg.AliasField,
		}))
	}

	switch cfg.ProxyMode {
	case config.ModePerRequest:
		router.Handle("/*", oneshot.New(cfg.Command(), cfg.BackendDir))
	default:
		if sup == nil {
			return nil, errors.New("persistent mode requires a backend supervisor")
		}
		target, err := proxy.ParseTarget(cfg.BackendAddress)
		if err != nil {
			return nil, err
		}
		router.With(proxy.Gate(sup)).Handle("/*", proxy.NewForwarder(target, nil))
	}
	return router, nil
}

func newSupervisor(cfg *config.Config) *backend.Supervisor {
	if cfg.ProxyMode != config.ModePersistent {
		return nil
	}
	return backend.NewSupervisor(backend.CommandLauncher{
		Command: cfg.Command(),
		Dir:     cfg.BackendDir,
	}, cfg.BackendWarmup.Duration)
}

func runServer() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LoggerLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Log.Sync()

	if cfg.PprofAddress != "" {
		trusted, err := cfg.TrustedNet()
		if err != nil {
			return err
		}
		ps, err := pprof.Start(cfg.PprofAddress, trusted)
		if err != nil {
			return fmt.Errorf("start pprof: %w", err)
		}
		defer ps.Close()
	}

	if cfg.ProxyMode == config.ModePerRequest {
		logger.Log.Warn("per-request mode spawns a backend process for every request, use persistent mode in production")
	}

	sup := newSupervisor(cfg)
	router, err := Router(cfg, sup)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("starting proxy",
			zap.String("addr", cfg.ServerAddress),
			zap.String("backend", cfg.BackendAddress),
			zap.String("mode", cfg.ProxyMode))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown failed", zap.Error(err))
	}
	if sup != nil {
		if err := sup.Stop(shutdownCtx); err != nil {
			logger.Log.Error("backend stop failed", zap.Error(err))
		}
	}
	return nil
}
