package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type marketContextKey struct{}

// MarketKey carries the detected target market on the request context.
var MarketKey = marketContextKey{}

// MarketLookup resolves a market code for an IP address.
type MarketLookup func(ip string) (string, error)

// Market detects the caller's market so batch submissions without explicit
// markets still get sensible targeting. An X-Market header wins over the
// GeoIP lookup; detection failures leave the context empty.
func Market(lookup MarketLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			market := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Market")))
			if market == "" && lookup != nil {
				if ip := clientIP(r); ip != "" {
					if resolved, err := lookup(ip); err == nil {
						market = resolved
					}
				}
			}
			if market != "" {
				ctx := context.WithValue(r.Context(), MarketKey, market)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MarketFromContext returns the detected market, or "" when unknown.
func MarketFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(MarketKey).(string); ok {
		return v
	}
	return ""
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return ""
}
