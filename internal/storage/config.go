package storage

import "time"

// Backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// Config selects and configures a session backend.
type Config struct {
	Backend string

	// EncryptionKey seals persisted records when set. Any length; the
	// cipher key is derived from it.
	EncryptionKey string

	Memory MemoryConfig
	Badger BadgerConfig
	Redis  RedisConfig
}

// MemoryConfig configures the in-memory backend.
type MemoryConfig struct {
	SweepInterval time.Duration
	Shards        int
}

// BadgerConfig holds Badger-specific tuning.
type BadgerConfig struct {
	Dir string

	GCInterval  time.Duration
	GCThreshold float64

	// Badger options
	CacheSize        int64
	ValueLogFileSize int64
	NumMemtables     int
	SyncWrites       bool
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	URL         string
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration

	// TLS enables TLS with system roots plus TLSCAFile.
	TLS       bool
	TLSCAFile string
}

// DefaultConfig returns the in-memory backend with production defaults
// for the others.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Memory: MemoryConfig{
			SweepInterval: time.Minute,
		},
		Badger: DefaultBadgerConfig(),
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			KeyPrefix:   "tokguard:sess:",
			DialTimeout: 5 * time.Second,
		},
	}
}

// DefaultBadgerConfig returns Badger defaults sized for session records.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Dir:              "data/sessions",
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20, // 64MB
		ValueLogFileSize: 64 << 20, // 64MB
		NumMemtables:     3,
		SyncWrites:       false,
	}
}
