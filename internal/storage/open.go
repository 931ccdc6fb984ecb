package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tokguard-go/internal/core/service"
	"github.com/yndnr/tokguard-go/internal/infra/tlsroots"
	"github.com/yndnr/tokguard-go/internal/storage/codec"
	"github.com/yndnr/tokguard-go/internal/storage/memory"
	"github.com/yndnr/tokguard-go/internal/storage/redis"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
	"github.com/yndnr/tokguard-go/pkg/crypto/adaptive"
)

// Backend is an opened session backend.
type Backend struct {
	service.SessionBackend
	name string
}

// Name returns the backend name from configuration.
func (b *Backend) Name() string {
	return b.name
}

// Collectors returns backend-specific metrics, if any.
func (b *Backend) Collectors() []prometheus.Collector {
	if c, ok := b.SessionBackend.(interface{ Collectors() []prometheus.Collector }); ok {
		return c.Collectors()
	}
	return nil
}

// Ping checks that the backend answers. Backends without a remote side
// always succeed.
func (b *Backend) Ping(ctx context.Context) error {
	if p, ok := b.SessionBackend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := b.Count(ctx)
	return err
}

// Open creates the backend named by cfg.Backend.
func Open(cfg Config, log logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Discard()
	}

	c, err := newCodec(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	var sb service.SessionBackend
	switch cfg.Backend {
	case BackendMemory, "":
		opts := []memory.Option{memory.WithSweepInterval(cfg.Memory.SweepInterval)}
		if cfg.Memory.Shards > 0 {
			opts = append(opts, memory.WithShards(cfg.Memory.Shards))
		}
		sb = memory.New(opts...)
		if cfg.Backend == "" {
			cfg.Backend = BackendMemory
		}

	case BackendBadger:
		sb, err = NewBadgerStore(cfg.Badger, c, log)
		if err != nil {
			return nil, err
		}

	case BackendRedis:
		var tlsCfg *tls.Config
		if cfg.Redis.TLS || cfg.Redis.TLSCAFile != "" {
			tlsCfg, err = tlsroots.ClientConfigFromFile(cfg.Redis.TLSCAFile)
			if err != nil {
				return nil, err
			}
		}

		rs, err := redis.New(redis.Config{
			URL:         cfg.Redis.URL,
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
			TLS:         tlsCfg,
		}, c)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			// Not fatal: readiness reports it and requests fail with 503.
			log.Warn("redis not reachable at startup", "error", err)
		}
		sb = rs

	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}

	log.Info("session backend ready", "backend", cfg.Backend, "sealed", c.Sealed())
	return &Backend{SessionBackend: sb, name: cfg.Backend}, nil
}

func newCodec(secret string) (*codec.Codec, error) {
	if secret == "" {
		return codec.New(nil), nil
	}
	cipher, err := adaptive.New(adaptive.DeriveKey([]byte(secret), "session-store"))
	if err != nil {
		return nil, fmt.Errorf("storage: init cipher: %w", err)
	}
	return codec.New(cipher), nil
}
