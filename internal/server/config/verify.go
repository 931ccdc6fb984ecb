package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strings"

	"github.com/yndnr/tokguard-go/internal/core/domain"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
)

// minAdminKeyLength guards against trivially guessable admin keys.
const minAdminKeyLength = 16

// Verify validates the configuration. All problems are reported together
// wrapped in domain.ErrConfigInvalid.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyHTTP(&cfg.Server.HTTP)...)
	errs = append(errs, verifySession(&cfg.Session)...)
	errs = append(errs, verifyCSRF(&cfg.CSRF)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyAdmin(&cfg.Admin)...)
	errs = append(errs, verifyTelemetry(cfg)...)

	if len(errs) == 0 {
		return nil
	}
	return domain.ErrConfigInvalid.WithCause(errors.Join(errs...))
}

func verifyHTTP(cfg *HTTPConfig) []error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.Addr, err))
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.TLSCertFile, cfg.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.http.shutdown_timeout must be positive"))
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1) {
		errs = append(errs, errors.New("server.http.rate_limit needs rps > 0 and burst >= 1"))
	}
	for _, n := range cfg.TrustedProxies {
		if err := checkNetwork(n); err != nil {
			errs = append(errs, fmt.Errorf("server.http.trusted_proxies %q: %w", n, err))
		}
	}
	return errs
}

// checkNetwork accepts a CIDR prefix or a single address.
func checkNetwork(n string) error {
	n = strings.TrimSpace(n)
	if strings.Contains(n, "/") {
		_, err := netip.ParsePrefix(n)
		return err
	}
	_, err := netip.ParseAddr(n)
	return err
}

func verifySession(cfg *SessionSection) []error {
	var errs []error
	if cfg.CookieName == "" || strings.ContainsAny(cfg.CookieName, " ;,=") {
		errs = append(errs, fmt.Errorf("session.cookie_name %q is not a valid cookie name", cfg.CookieName))
	}
	if cfg.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	switch strings.ToLower(cfg.SameSite) {
	case "lax", "strict":
	case "none":
		if !cfg.Secure {
			errs = append(errs, errors.New("session.same_site none requires session.secure"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.same_site %q must be lax, strict or none", cfg.SameSite))
	}
	return errs
}

func verifyCSRF(cfg *CSRFSection) []error {
	var errs []error
	if !domain.ValidFieldName(cfg.FieldName) {
		errs = append(errs, fmt.Errorf("csrf.field_name %q is invalid", cfg.FieldName))
	}
	if cfg.HeaderName == "" {
		errs = append(errs, errors.New("csrf.header_name is required"))
	}
	if cfg.TokenBytes < domain.MinTokenBytes {
		errs = append(errs, fmt.Errorf("csrf.token_bytes must be at least %d", domain.MinTokenBytes))
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	var errs []error
	switch cfg.Backend {
	case "memory":
	case "badger":
		if cfg.Badger.Dir == "" {
			errs = append(errs, errors.New("storage.badger.dir is required"))
		}
		if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
			errs = append(errs, errors.New("storage.badger.gc_threshold must be in (0, 1)"))
		}
	case "redis":
		if cfg.Redis.URL == "" && cfg.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis needs url or addr"))
		}
		if cfg.Redis.TLSCAFile != "" {
			if _, err := os.Stat(cfg.Redis.TLSCAFile); err != nil {
				errs = append(errs, fmt.Errorf("storage.redis.tls_ca_file: %w", err))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be memory, badger or redis", cfg.Backend))
	}
	return errs
}

func verifyAdmin(cfg *AdminSection) []error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if len(cfg.APIKey) < minAdminKeyLength {
		errs = append(errs, fmt.Errorf("admin.api_key must be at least %d characters", minAdminKeyLength))
	}
	for _, n := range cfg.AllowedNetworks {
		if err := checkNetwork(n); err != nil {
			errs = append(errs, fmt.Errorf("admin.allowed_networks %q: %w", n, err))
		}
	}
	return errs
}

func verifyTelemetry(cfg *ServerConfig) []error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", cfg.Log.Format))
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("tracing.sample_ratio must be in [0, 1]"))
	}
	return errs
}
