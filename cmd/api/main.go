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

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/db"
	httpx "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/redisclient"
	"github.com/geocoder89/storefront/internal/repo/memory"
	"github.com/geocoder89/storefront/internal/repo/postgres"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/geocoder89/storefront/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer := observability.NoopShutdown
	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		shutdownTracer = shutdown
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{}

	// store: one pool for the whole process, handed down explicitly
	var store service.UserStore

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory user store; data is lost on restart")
		store = memory.NewUsersRepo()
	case config.StoreDriverPostgres:
		if cfg.MigrateOnStart {
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return err
			}
		}

		pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		checks["postgres"] = pool.Ping
		store = postgres.NewUsersRepo(pool, prom)
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	// cache: redis when configured, otherwise per-process
	var userCache cache.Store = cache.New(cfg.CacheTTL)

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		checks["redis"] = rc.Ping
		userCache = cache.NewRedisCache(rc.Raw(), cfg.CacheTTL)
	}

	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	users := service.NewUsersService(store, hasher,
		service.WithCache(userCache),
		service.WithProm(prom),
		service.WithLogger(log),
	)

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	seeded, err := db.EnsureAdminUser(seedCtx, users, cfg)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if seeded {
		log.Info("admin account created", "email", cfg.AdminEmail)
	}

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:    log,
		Cfg:    cfg,
		Users:  users,
		Prom:   prom,
		Checks: checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-stop:
	}

	log.Info("server shutting down")

	ctxTimeOut := 10 * time.Second
	sctx, cancel := config.WithTimeout(ctxTimeOut)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
