package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, raw User-Agent, and a human-readable
// device name into the request context. The device name ends up on session
// records so users can recognize their own logins.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.UserAgent()
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), ua)
		ctx = requestcontext.WithDeviceName(ctx, DeviceDisplayName(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DeviceDisplayName renders a User-Agent as "Browser on OS", e.g.
// "Chrome on Linux x86_64". Unparseable agents fall back to "Unknown device".
func DeviceDisplayName(rawUA string) string {
	if rawUA == "" {
		return "Unknown device"
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OS()

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown device"
	}
}
