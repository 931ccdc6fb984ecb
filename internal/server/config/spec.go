package config

import "time"

// ServerConfig is the root configuration for tokguard-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" yaml:"server"`
	Session  SessionSection  `koanf:"session" yaml:"session"`
	CSRF     CSRFSection     `koanf:"csrf" yaml:"csrf"`
	Storage  StorageSection  `koanf:"storage" yaml:"storage"`
	Security SecuritySection `koanf:"security" yaml:"security"`
	Admin    AdminSection    `koanf:"admin" yaml:"admin"`
	Log      LogSection      `koanf:"log" yaml:"log"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
	Tracing  TracingSection  `koanf:"tracing" yaml:"tracing"`
}

// ServerSection configures listeners.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http" yaml:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr" yaml:"addr"`
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`

	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit" yaml:"rate_limit"`

	// TrustedProxies are the peers allowed to set X-Forwarded-For and
	// X-Real-IP. CIDR prefixes or single addresses.
	TrustedProxies []string `koanf:"trusted_proxies" yaml:"trusted_proxies"`
}

// RateLimitConfig is a per-client-IP token bucket.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled" yaml:"enabled"`
	RPS     float64 `koanf:"rps" yaml:"rps"`
	Burst   int     `koanf:"burst" yaml:"burst"`
}

// SessionSection configures the session cookie and lifetime.
type SessionSection struct {
	CookieName string        `koanf:"cookie_name" yaml:"cookie_name"`
	TTL        time.Duration `koanf:"ttl" yaml:"ttl"`
	Sliding    bool          `koanf:"sliding" yaml:"sliding"`
	Secure     bool          `koanf:"secure" yaml:"secure"`
	SameSite   string        `koanf:"same_site" yaml:"same_site"` // lax, strict, none
	Path       string        `koanf:"path" yaml:"path"`
	Domain     string        `koanf:"domain" yaml:"domain"`
}

// CSRFSection configures the token guard and its middleware.
type CSRFSection struct {
	FieldName      string `koanf:"field_name" yaml:"field_name"`
	HeaderName     string `koanf:"header_name" yaml:"header_name"`
	TokenBytes     int    `koanf:"token_bytes" yaml:"token_bytes"`
	RotateOnVerify bool   `koanf:"rotate_on_verify" yaml:"rotate_on_verify"`
	// AllowQuery accepts the token from the query string on unsafe methods.
	AllowQuery bool `koanf:"allow_query" yaml:"allow_query"`
}

// StorageSection selects the session backend.
type StorageSection struct {
	Backend string       `koanf:"backend" yaml:"backend"` // memory, badger, redis
	Memory  MemoryConfig `koanf:"memory" yaml:"memory"`
	Badger  BadgerConfig `koanf:"badger" yaml:"badger"`
	Redis   RedisConfig  `koanf:"redis" yaml:"redis"`
}

// MemoryConfig configures the in-memory backend.
type MemoryConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval" yaml:"sweep_interval"`
	Shards        int           `koanf:"shards" yaml:"shards"`
}

// BadgerConfig configures the Badger backend.
type BadgerConfig struct {
	Dir              string        `koanf:"dir" yaml:"dir"`
	GCInterval       time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	GCThreshold      float64       `koanf:"gc_threshold" yaml:"gc_threshold"`
	CacheSize        int64         `koanf:"cache_size" yaml:"cache_size"`
	ValueLogFileSize int64         `koanf:"value_log_file_size" yaml:"value_log_file_size"`
	NumMemtables     int           `koanf:"num_memtables" yaml:"num_memtables"`
	SyncWrites       bool          `koanf:"sync_writes" yaml:"sync_writes"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	URL         string        `koanf:"url" yaml:"url"`
	Addr        string        `koanf:"addr" yaml:"addr"`
	Password    string        `koanf:"password" yaml:"password"`
	DB          int           `koanf:"db" yaml:"db"`
	KeyPrefix   string        `koanf:"key_prefix" yaml:"key_prefix"`
	DialTimeout time.Duration `koanf:"dial_timeout" yaml:"dial_timeout"`
	TLS         bool          `koanf:"tls" yaml:"tls"`
	TLSCAFile   string        `koanf:"tls_ca_file" yaml:"tls_ca_file"`
}

// SecuritySection holds secrets.
type SecuritySection struct {
	// EncryptionKey seals session records at rest (badger, redis).
	EncryptionKey string `koanf:"encryption_key" yaml:"encryption_key"`
}

// AdminSection configures the operator API.
type AdminSection struct {
	Enabled         bool     `koanf:"enabled" yaml:"enabled"`
	APIKey          string   `koanf:"api_key" yaml:"api_key"`
	AllowedNetworks []string `koanf:"allowed_networks" yaml:"allowed_networks"`
}

// LogSection configures logging.
type LogSection struct {
	Level     string `koanf:"level" yaml:"level"`
	Format    string `koanf:"format" yaml:"format"`
	AddSource bool   `koanf:"add_source" yaml:"add_source"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Path    string `koanf:"path" yaml:"path"`
}

// TracingSection configures OpenTelemetry export. An empty endpoint
// keeps tracing in-process only.
type TracingSection struct {
	Endpoint    string  `koanf:"endpoint" yaml:"endpoint"`
	Insecure    bool    `koanf:"insecure" yaml:"insecure"`
	SampleRatio float64 `koanf:"sample_ratio" yaml:"sample_ratio"`
	ServiceName string  `koanf:"service_name" yaml:"service_name"`
}
