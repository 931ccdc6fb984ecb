package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of cfg with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	out := *cfg
	out.Admin.AllowedNetworks = append([]string(nil), cfg.Admin.AllowedNetworks...)
	out.Server.HTTP.TrustedProxies = append([]string(nil), cfg.Server.HTTP.TrustedProxies...)

	out.Security.EncryptionKey = maskSecret(cfg.Security.EncryptionKey)
	out.Admin.APIKey = maskSecret(cfg.Admin.APIKey)
	out.Storage.Redis.Password = maskSecret(cfg.Storage.Redis.Password)
	out.Storage.Redis.URL = maskURL(cfg.Storage.Redis.URL)
	return &out
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskURL hides the password in a redis:// URL.
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
