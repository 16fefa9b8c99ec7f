// Package metadata resolves the caller's IP address and User-Agent once per
// request. Rate limiting keys on the IP, request logs record its anonymized
// prefix, and admin sign-in audit lines record the device label.
package metadata

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"storefront/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds X-Forwarded-For to keep forged chains out of logs.
const MaxXFFHeaderLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies are the CIDR prefixes allowed to set X-Forwarded-For or
	// X-Real-IP. When empty, forwarding headers are ignored.
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies converts CIDR strings from configuration into prefixes.
func ParseTrustedProxies(cidrs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		p, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", c, err)
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

// Middleware handles client metadata extraction with configurable trusted proxies.
type Middleware struct {
	config *Config
}

// NewMiddleware creates a new metadata middleware. A nil config trusts no proxy.
func NewMiddleware(cfg *Config) *Middleware {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Middleware{config: cfg}
}

// Handler stores the client IP and User-Agent in the request context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), m.clientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) clientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}
	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && len(xri) <= MaxXFFHeaderLength {
			if _, err := netip.ParseAddr(xri); err == nil {
				return xri
			}
		}
		return remoteIP
	}
	if len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	// First hop in the chain is the original client.
	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if _, err := netip.ParseAddr(first); err != nil {
		return remoteIP
	}
	return first
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr strips the port from RemoteAddr.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().String()
	}
	if strings.HasPrefix(remoteAddr, "[") {
		return strings.Trim(strings.Split(remoteAddr, "]:")[0], "[]")
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 && strings.Count(remoteAddr, ":") == 1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
