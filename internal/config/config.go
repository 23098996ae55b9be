// Package config reads the service settings from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting
type Config struct {
	DatabaseURL string
	Host        string
	Port        int
	CORSOrigins []string

	APIKey        string
	EnableAuth    bool
	JWTSecret     string
	JWTExpiration time.Duration

	DefaultPageSize int
	MaxPageSize     int

	LogLevel string
	SeqURL   string // empty disables the Seq sink

	CacheTTL      time.Duration
	SessionTTL    time.Duration
	CachePrefix   string
	SessionPrefix string

	RateLimitPerMinute int
	RateLimitBurst     int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultJWTSecret must be replaced outside development
const DefaultJWTSecret = "change-me-in-production"

// Load reads ./.env when present and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any variable source
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		DatabaseURL: r.str("DATABASE_URL", "sqlite:///./database.db"),
		Host:        r.str("API_HOST", "0.0.0.0"),
		Port:        r.integer("API_PORT", 8000),
		CORSOrigins: ParseCORSOrigins(r.str("CORS_ORIGINS", "*")),

		APIKey:        r.str("API_KEY", ""),
		EnableAuth:    r.flag("ENABLE_AUTH", false),
		JWTSecret:     r.str("JWT_SECRET_KEY", DefaultJWTSecret),
		JWTExpiration: r.minutes("JWT_EXPIRATION_MINUTES", 30),

		DefaultPageSize: r.integer("DEFAULT_PAGE_SIZE", 50),
		MaxPageSize:     r.integer("MAX_PAGE_SIZE", 1000),

		LogLevel: strings.ToUpper(r.str("LOG_LEVEL", "INFO")),
		SeqURL:   r.str("SEQ_URL", ""),

		CacheTTL:      r.seconds("CACHE_TTL_SECONDS", 300),
		SessionTTL:    r.seconds("SESSION_TTL_SECONDS", 3600),
		CachePrefix:   r.str("CACHE_PREFIX", "graphsql:cache:"),
		SessionPrefix: r.str("SESSION_PREFIX", "graphsql:session:"),

		RateLimitPerMinute: r.integer("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:     r.integer("RATE_LIMIT_BURST", 20),

		ReadTimeout:  r.seconds("READ_TIMEOUT_SECONDS", 15),
		WriteTimeout: r.seconds("WRITE_TIMEOUT_SECONDS", 15),
	}
	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that a parse alone cannot
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT out of range: %d", c.Port))
	}
	if c.DefaultPageSize <= 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize))
	}
	if c.MaxPageSize < c.DefaultPageSize {
		errs = append(errs, fmt.Errorf("MAX_PAGE_SIZE (%d) is smaller than DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is empty"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) IsSQLite() bool {
	return strings.HasPrefix(c.DatabaseURL, "sqlite")
}

// ParseCORSOrigins splits a comma separated list; "*" allows any origin
func ParseCORSOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// reader collects parse errors so that all bad variables are reported at once
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *reader) flag(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
	return def
}

func (r *reader) seconds(key string, def int) time.Duration {
	return time.Duration(r.integer(key, def)) * time.Second
}

func (r *reader) minutes(key string, def int) time.Duration {
	return time.Duration(r.integer(key, def)) * time.Minute
}
