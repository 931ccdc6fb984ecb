// Package redis provides a session backend on Redis.
//
// Each session is one string key holding a codec record, written with
// SET and an expiry so Redis drops it without a sweeper.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/storage/codec"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "tokguard:sess:"

const scanBatch = 500

// Config holds connection settings. URL takes precedence over Addr.
type Config struct {
	URL         string
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration

	// TLS, when set, replaces the TLS settings derived from URL.
	TLS *tls.Config
}

// Store is a Redis-backed session backend.
type Store struct {
	client *goredis.Client
	codec  *codec.Codec
	prefix string
}

// New connects using cfg. The connection is lazy; call Ping to check it.
func New(cfg Config, c *codec.Codec) (*Store, error) {
	var opts *goredis.Options
	if cfg.URL != "" {
		parsed, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: parse url: %w", err)
		}
		opts = parsed
	} else {
		if cfg.Addr == "" {
			return nil, errors.New("redis: addr or url is required")
		}
		opts = &goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	return NewWithClient(goredis.NewClient(opts), cfg.KeyPrefix, c), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string, c *codec.Codec) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if c == nil {
		c = codec.New(nil)
	}
	return &Store{client: client, codec: c, prefix: prefix}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load fetches and decodes a session.
func (s *Store) Load(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	return s.codec.Decode(id, raw)
}

// Save writes sess with a ttl expiry. A non-positive ttl keeps the key
// until it is deleted.
func (s *Store) Save(ctx context.Context, sess *domain.Session, ttl time.Duration) error {
	raw, err := s.codec.Encode(sess)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(sess.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis: del: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Count scans the key prefix. It is O(keyspace) and meant for metrics
// and the admin API, not the request path.
func (s *Store) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("redis: scan: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
