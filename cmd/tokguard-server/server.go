package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/infra/buildinfo"
	"github.com/yndnr/tokguard-go/internal/infra/confloader"
	"github.com/yndnr/tokguard-go/internal/infra/shutdown"
	"github.com/yndnr/tokguard-go/internal/server/config"
	"github.com/yndnr/tokguard-go/internal/server/httpserver"
	"github.com/yndnr/tokguard-go/internal/server/httpserver/handler"
	"github.com/yndnr/tokguard-go/internal/storage"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
	"github.com/yndnr/tokguard-go/internal/telemetry/metric"
	"github.com/yndnr/tokguard-go/internal/telemetry/tracer"
)

// loadConfig loads defaults, then the file, then TOKGUARD_* variables.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stack is the wired server.
type stack struct {
	backend *storage.Backend
	server  *httpserver.Server
	tracer  *tracer.Provider
	log     logger.Logger
}

// build wires storage, services and the HTTP layer from cfg.
func build(ctx context.Context, cfg *config.ServerConfig, log logger.Logger) (*stack, error) {
	tp, err := tracer.New(ctx, tracer.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: buildinfo.Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	backend, err := storage.Open(storageConfig(cfg), log.With("component", "storage"))
	if err != nil {
		tp.Shutdown(ctx)
		return nil, fmt.Errorf("open storage: %w", err)
	}

	reg := metric.NewRegistry()
	collectors := append(backend.Collectors(), metric.NewSessionCollector(backend, backend.Name()))
	if err := reg.Register(collectors...); err != nil {
		backend.Close()
		tp.Shutdown(ctx)
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	svcOpts := []service.Option{
		service.WithLogger(log.With("component", "service")),
		service.WithRecorder(reg),
	}
	sessions := service.NewSessionManager(backend, &service.SessionConfig{
		TTL:     cfg.Session.TTL,
		Sliding: cfg.Session.Sliding,
	}, svcOpts...)
	guard := service.NewTokenGuard(nil, &service.GuardConfig{
		FieldName:      cfg.CSRF.FieldName,
		TokenBytes:     cfg.CSRF.TokenBytes,
		RotateOnVerify: cfg.CSRF.RotateOnVerify,
	}, svcOpts...)

	h := handler.New(handler.Config{
		Sessions: sessions,
		Guard:    guard,
		Admin:    service.NewAdminService(sessions, guard),
		Backend:  backend,
		Logger:   log.With("component", "handler"),
	})

	sameSite, err := httpserver.ParseSameSite(cfg.Session.SameSite)
	if err != nil {
		backend.Close()
		tp.Shutdown(ctx)
		return nil, err
	}

	rc := httpserver.RouterConfig{
		Handler:  h,
		Sessions: sessions,
		Guard:    guard,
		Logger:   log.With("component", "http"),
		Cookie: httpserver.CookieConfig{
			Name:     cfg.Session.CookieName,
			Path:     cfg.Session.Path,
			Domain:   cfg.Session.Domain,
			Secure:   cfg.Session.Secure,
			SameSite: sameSite,
		},
		CSRF: httpserver.CSRFConfig{
			HeaderName: cfg.CSRF.HeaderName,
			AllowQuery: cfg.CSRF.AllowQuery,
		},
		Admin: httpserver.AdminConfig{
			Enabled:         cfg.Admin.Enabled,
			APIKey:          cfg.Admin.APIKey,
			AllowedNetworks: cfg.Admin.AllowedNetworks,
		},
		Metrics:        reg,
		TrustedProxies: cfg.Server.HTTP.TrustedProxies,
	}
	if cfg.Metrics.Enabled {
		rc.MetricsPath = cfg.Metrics.Path
	}
	if rl := cfg.Server.HTTP.RateLimit; rl.Enabled {
		rc.Limiter = httpserver.NewIPLimiter(rl.RPS, rl.Burst)
	}

	router, err := httpserver.NewRouter(rc)
	if err != nil {
		backend.Close()
		tp.Shutdown(ctx)
		return nil, err
	}

	srv, err := httpserver.New(cfg.Server.HTTP, router, log.With("component", "http"))
	if err != nil {
		backend.Close()
		tp.Shutdown(ctx)
		return nil, err
	}

	return &stack{backend: backend, server: srv, tracer: tp, log: log}, nil
}

func storageConfig(cfg *config.ServerConfig) storage.Config {
	sc := cfg.Storage
	return storage.Config{
		Backend:       sc.Backend,
		EncryptionKey: cfg.Security.EncryptionKey,
		Memory: storage.MemoryConfig{
			SweepInterval: sc.Memory.SweepInterval,
			Shards:        sc.Memory.Shards,
		},
		Badger: storage.BadgerConfig{
			Dir:              sc.Badger.Dir,
			GCInterval:       sc.Badger.GCInterval,
			GCThreshold:      sc.Badger.GCThreshold,
			CacheSize:        sc.Badger.CacheSize,
			ValueLogFileSize: sc.Badger.ValueLogFileSize,
			NumMemtables:     sc.Badger.NumMemtables,
			SyncWrites:       sc.Badger.SyncWrites,
		},
		Redis: storage.RedisConfig{
			URL:         sc.Redis.URL,
			Addr:        sc.Redis.Addr,
			Password:    sc.Redis.Password,
			DB:          sc.Redis.DB,
			KeyPrefix:   sc.Redis.KeyPrefix,
			DialTimeout: sc.Redis.DialTimeout,
			TLS:         sc.Redis.TLS,
			TLSCAFile:   sc.Redis.TLSCAFile,
		},
	}
}

// serve runs the server until SIGINT/SIGTERM.
func serve(ctx context.Context, cfg *config.ServerConfig, configFile string) error {
	log, err := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    os.Stdout,
		AddSource: cfg.Log.AddSource,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting tokguard-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Get().Commit,
		"config", configFile,
		"backend", cfg.Storage.Backend)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}

	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)
	// Hooks run in reverse: HTTP first, then storage, then tracing.
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("flushing traces")
		return st.tracer.Shutdown(ctx)
	})
	sh.OnShutdown(func(context.Context) error {
		log.Info("closing session storage")
		return st.backend.Close()
	})
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return st.server.Shutdown(ctx)
	})

	if configFile != "" {
		w := confloader.NewWatcher(configFile, confloader.WithWatcherLogger(log))
		w.OnChange(func(path string) { reloadLogLevel(path, log) })
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn("configuration watcher stopped", "error", err)
			}
		}()
	}

	if err := st.server.Listen(); err != nil {
		sh.Trigger()
		return errors.Join(fmt.Errorf("listen: %w", err), sh.Wait(ctx))
	}
	go func() {
		if err := st.server.Run(ctx); err != nil {
			log.Error("HTTP server error", "error", err)
			sh.Trigger()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// reloadLogLevel applies log.level from a changed config file. Other
// settings need a restart.
func reloadLogLevel(path string, log logger.Logger) {
	cfg, err := loadConfig(path)
	if err != nil {
		log.Warn("ignoring invalid configuration change", "path", path, "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	logger.SetLevel(cfg.Log.Level)
	log.Info("log level changed", "level", cfg.Log.Level, "at", time.Now().UTC().Format(time.RFC3339))
}
