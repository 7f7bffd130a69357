package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultSessionSecret is only acceptable outside production.
	DefaultSessionSecret = "dev-secret-key-change-in-production"

	// DefaultRegistryURL is the SLMC practitioner search endpoint.
	DefaultRegistryURL = "https://renewal.slmc.gov.lk/practitioner/getData"

	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// ErrDefaultSecretInProduction is returned when production runs with the dev secret.
var ErrDefaultSecretInProduction = errors.New("SESSION_SECRET must be set in production")

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	Env      string
	LogLevel string

	API       APIConfig
	Session   SessionConfig
	Redis     RedisConfig
	Registry  RegistryConfig
	DevLogin  DevLoginConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig

	// TrustedProxies may set X-Forwarded-For. Empty means the socket peer is
	// always the client.
	TrustedProxies []netip.Prefix

	VerifyDebounce time.Duration
	ListCacheTTL   time.Duration
}

// APIConfig points at the backend REST service.
type APIConfig struct {
	BaseURL string
	Version string
	Timeout time.Duration
}

// SessionConfig controls admin session tokens.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieSecure bool
}

// RedisConfig holds the optional Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig points at the SLMC registry.
type RegistryConfig struct {
	URL     string
	Timeout time.Duration
}

// DevLoginConfig enables the local-only bypass credential.
type DevLoginConfig struct {
	Enabled      bool
	Email        string
	PasswordHash string
}

// AuditConfig selects the audit sink. No brokers means log-only.
type AuditConfig struct {
	Brokers []string
	Topic   string
}

// RateLimitConfig sets per-client-IP request budgets. Zero disables a class.
type RateLimitConfig struct {
	AuthPerMinute int
	APIPerMinute  int
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (s Server) IsProduction() bool {
	return s.Env == EnvProduction
}

// DevLoginAllowed reports whether the bypass credential may be used.
func (s Server) DevLoginAllowed() bool {
	return s.DevLogin.Enabled && !s.IsProduction() && s.DevLogin.PasswordHash != ""
}

// Validate rejects configurations that must never reach production.
func (s Server) Validate() error {
	if s.IsProduction() && s.Session.Secret == DefaultSessionSecret {
		return ErrDefaultSecretInProduction
	}
	if s.API.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:     getEnv("MEDIX_ADDR", ":8080"),
		Env:      getEnv("APP_ENV", EnvDevelopment),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001"), "/"),
			Version: getEnv("API_VERSION", "/prod/v1"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", DefaultSessionSecret),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Registry: RegistryConfig{
			URL: getEnv("SLMC_REGISTRY_URL", DefaultRegistryURL),
		},
		DevLogin: DevLoginConfig{
			Email:        getEnv("DEV_ADMIN_EMAIL", "admin@aumedix.com"),
			PasswordHash: os.Getenv("DEV_ADMIN_PASSWORD_HASH"),
		},
		Audit: AuditConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("AUDIT_TOPIC", "medix.audit"),
		},
	}

	var err error
	if cfg.API.Timeout, err = millis("API_TIMEOUT_MS", 0); err != nil {
		return Server{}, err
	}
	if cfg.Registry.Timeout, err = millis("SLMC_TIMEOUT_MS", 10_000); err != nil {
		return Server{}, err
	}
	if cfg.VerifyDebounce, err = millis("VERIFY_DEBOUNCE_MS", 800); err != nil {
		return Server{}, err
	}
	if cfg.Session.TTL, err = duration("SESSION_TTL", 8*time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.ListCacheTTL, err = duration("LIST_CACHE_TTL", 30*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Session.CookieSecure, err = boolean("SESSION_COOKIE_SECURE", cfg.IsProduction()); err != nil {
		return Server{}, err
	}
	if cfg.DevLogin.Enabled, err = boolean("DEV_LOGIN_ENABLED", false); err != nil {
		return Server{}, err
	}

	if cfg.RateLimit.AuthPerMinute, err = integer("RATE_LIMIT_AUTH_PER_MINUTE", 10); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.APIPerMinute, err = integer("RATE_LIMIT_API_PER_MINUTE", 300); err != nil {
		return Server{}, err
	}

	if cfg.TrustedProxies, err = prefixes("TRUSTED_PROXIES"); err != nil {
		return Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func millis(key string, fallback int) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(fallback) * time.Millisecond, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func integer(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func boolean(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return b, nil
}

// prefixes parses a comma-separated list of CIDRs or bare addresses.
func prefixes(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range splitList(os.Getenv(key)) {
		if p, err := netip.ParsePrefix(item); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is neither a CIDR nor an IP address", key, item)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
