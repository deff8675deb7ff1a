package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"certflow/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, raw User-Agent, and a parsed device
// summary and stores them in context. The device summary ends up in
// audit-trail metadata, which matters when a staff account acts from an
// unexpected client.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIPFromRequest(r), ua)
		ctx = requestcontext.WithDevice(ctx, deviceSummary(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceSummary condenses a User-Agent header into "Browser/OS" for audit rows.
func deviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	parts := []string{}
	if name != "" {
		if version != "" {
			parts = append(parts, name+" "+version)
		} else {
			parts = append(parts, name)
		}
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if ua.Bot() {
		parts = append(parts, "bot")
	}
	return strings.Join(parts, " / ")
}

// clientIPFromRequest extracts the real client IP, handling proxies.
func clientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return ""
}
