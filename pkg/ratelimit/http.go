package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ExtractIP, request'ten client IP'sini çıkarır.
// Sıra: X-Forwarded-For (ilk değer) → X-Real-IP → RemoteAddr.
// Uygulama genelde reverse proxy arkasında çalışır; RemoteAddr o zaman proxy'dir.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, kalan süreyi okunabilir hale getirir: 120 → "2 minute(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
