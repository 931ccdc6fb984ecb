package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultShutdownTimeout = 15 * time.Second

	DefaultCookieName = "tokguard_session"
	DefaultSessionTTL = 2 * time.Hour

	DefaultFieldName  = "_token"
	DefaultHeaderName = "X-CSRF-Token"
	DefaultTokenBytes = 32

	DefaultBackend   = "memory"
	DefaultBadgerDir = "/var/lib/tokguard-server/sessions"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"
	DefaultServiceName = "tokguard-server"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     10 * time.Second,
				WriteTimeout:    10 * time.Second,
				IdleTimeout:     60 * time.Second,
				ShutdownTimeout: DefaultShutdownTimeout,
				RateLimit: RateLimitConfig{
					Enabled: true,
					RPS:     20,
					Burst:   40,
				},
			},
		},
		Session: SessionSection{
			CookieName: DefaultCookieName,
			TTL:        DefaultSessionTTL,
			Sliding:    true,
			SameSite:   "lax",
			Path:       "/",
		},
		CSRF: CSRFSection{
			FieldName:  DefaultFieldName,
			HeaderName: DefaultHeaderName,
			TokenBytes: DefaultTokenBytes,
		},
		Storage: StorageSection{
			Backend: DefaultBackend,
			Memory: MemoryConfig{
				SweepInterval: time.Minute,
			},
			Badger: BadgerConfig{
				Dir:              DefaultBadgerDir,
				GCInterval:       10 * time.Minute,
				GCThreshold:      0.5,
				CacheSize:        64 << 20,
				ValueLogFileSize: 64 << 20,
				NumMemtables:     3,
			},
			Redis: RedisConfig{
				Addr:        "127.0.0.1:6379",
				KeyPrefix:   "tokguard:sess:",
				DialTimeout: 5 * time.Second,
			},
		},
		Admin: AdminSection{
			Enabled:         false,
			AllowedNetworks: []string{"127.0.0.1/32", "::1/128"},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingSection{
			SampleRatio: 1.0,
			ServiceName: DefaultServiceName,
		},
	}
}
