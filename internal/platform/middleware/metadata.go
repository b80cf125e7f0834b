package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"avalia/internal/platform/requestcontext"
)

// MaxForwardedHeaderLength caps X-Forwarded-For / X-Real-IP to keep header
// injection out of the validation log.
const MaxForwardedHeaderLength = 500

// Metadata extracts the client IP and User-Agent into the request context.
// X-Forwarded-For is honored only when the direct peer is inside one of the
// trusted proxy prefixes; otherwise the socket address wins.
type Metadata struct {
	trustedProxies []netip.Prefix
}

// NewMetadata creates the metadata middleware. With no trusted proxies the
// forwarded headers are never trusted.
func NewMetadata(trustedProxies []netip.Prefix) *Metadata {
	return &Metadata{trustedProxies: trustedProxies}
}

// Handler extracts client metadata and stores it in the context.
func (m *Metadata) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(),
			m.clientIP(r),
			r.Header.Get("User-Agent"),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Metadata) clientIP(r *http.Request) string {
	remoteIP := stripPort(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := r.Header.Get("X-Real-IP"); xri != "" && m.isTrustedProxy(remoteIP) && len(xri) <= MaxForwardedHeaderLength {
			return strings.TrimSpace(xri)
		}
		return remoteIP
	}

	if !m.isTrustedProxy(remoteIP) || len(xff) > MaxForwardedHeaderLength {
		return remoteIP
	}

	// First entry in the chain is the original client.
	clientIP := xff
	if before, _, ok := strings.Cut(xff, ","); ok {
		clientIP = before
	}
	clientIP = strings.TrimSpace(clientIP)

	if _, err := netip.ParseAddr(clientIP); err != nil {
		return remoteIP
	}
	return clientIP
}

func (m *Metadata) isTrustedProxy(ip string) bool {
	if len(m.trustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// stripPort extracts the IP from a host:port RemoteAddr.
func stripPort(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	// IPv6 with brackets: [::1]:port
	if strings.HasPrefix(remoteAddr, "[") {
		if idx := strings.LastIndex(remoteAddr, "]:"); idx != -1 {
			return remoteAddr[1:idx]
		}
		return strings.Trim(strings.Split(remoteAddr, "]:")[0], "[]")
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
