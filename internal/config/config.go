package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"DISMINE_DB_PATH" envDefault:"./data/dismine.db"`
	SessionSecret string `env:"DISMINE_SESSION_SECRET,required"`
	ServerHost    string `env:"DISMINE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"DISMINE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"DISMINE_ENV" envDefault:"development"`
	LogLevel      string `env:"DISMINE_LOG_LEVEL" envDefault:"info"`

	// Owner bootstrap account. The account is recreated on startup
	// whenever it is missing, so these must stay stable across deploys.
	OwnerEmail    string `env:"DISMINE_OWNER_EMAIL" envDefault:"owner@dismine.com"`
	OwnerPassword string `env:"DISMINE_OWNER_PASSWORD" envDefault:"dismine2025"`

	// Cache configuration
	RedisURL     string `env:"DISMINE_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"DISMINE_CACHE_PREFIX" envDefault:"dismine:"`
	CacheTTL     int    `env:"DISMINE_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"DISMINE_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"DISMINE_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Global per-IP rate limit. Zero disables it.
	RateLimitRPS   float64 `env:"DISMINE_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"DISMINE_RATE_LIMIT_BURST" envDefault:"40"`

	// Seeding configuration
	DoSeed bool `env:"DISMINE_DO_SEED" envDefault:"false"` // Enable demo data seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("DISMINE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("DISMINE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("DISMINE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
