package logger

import (
	"log/slog"
	"strings"
)

// Keys whose values are never written.
var sensitiveKeys = map[string]struct{}{
	"token":          {},
	"_token":         {},
	"csrf_token":     {},
	"submitted":      {},
	"password":       {},
	"secret":         {},
	"authorization":  {},
	"cookie":         {},
	"set-cookie":     {},
	"admin_key":      {},
	"encryption_key": {},
}

var sensitiveSuffixes = []string{"_secret", "_password", "_key"}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if IsSensitiveKey(a.Key) && a.Value.String() != "" {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// IsSensitiveKey checks if a key name holds secret material.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if _, ok := sensitiveKeys[k]; ok {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}
