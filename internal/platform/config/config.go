package config

import (
	"net/netip"
	"os"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	Environment     string
	PublicBaseURL   string
	DatabaseURL     string
	CertificatesDir string
	JWTSigningKey   string
	RequestTimeout  time.Duration

	// TrustedProxies lists CIDR prefixes allowed to set X-Forwarded-For.
	// Empty means the header is never trusted.
	TrustedProxies []netip.Prefix
}

const defaultRequestTimeout = 30 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("AVALIA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	env := os.Getenv("AVALIA_ENV")
	if env == "" {
		env = "development"
	}

	baseURL := os.Getenv("AVALIA_PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	certDir := os.Getenv("AVALIA_CERTIFICATES_DIR")
	if certDir == "" {
		certDir = "certificates"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	timeout := defaultRequestTimeout
	if raw := os.Getenv("AVALIA_REQUEST_TIMEOUT"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil && duration > 0 {
			timeout = duration
		}
	}

	return Server{
		Addr:            addr,
		Environment:     env,
		PublicBaseURL:   baseURL,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CertificatesDir: certDir,
		JWTSigningKey:   jwtSigningKey,
		RequestTimeout:  timeout,
		TrustedProxies:  parsePrefixes(os.Getenv("AVALIA_TRUSTED_PROXIES")),
	}
}

// parsePrefixes parses a comma-separated CIDR list, skipping invalid entries.
func parsePrefixes(raw string) []netip.Prefix {
	if raw == "" {
		return nil
	}
	var prefixes []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(part); err == nil {
			prefixes = append(prefixes, prefix)
		}
	}
	return prefixes
}
