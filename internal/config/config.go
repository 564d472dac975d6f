package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret = "change-me-jwt-secret"
	defaultAppEnv    = "dev"
)

type Config struct {
	AppEnv      string            `toml:"app_env"`
	HTTP        HTTPConfig        `toml:"http"`
	Database    DatabaseConfig    `toml:"database"`
	Auth        AuthConfig        `toml:"auth"`
	Images      ImageConfig       `toml:"images"`
	Reservation ReservationConfig `toml:"reservation"`
	Redis       RedisConfig       `toml:"redis"`
	AMQP        AMQPConfig        `toml:"amqp"`
}

type HTTPConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

type DatabaseConfig struct {
	URL        string `toml:"url"`
	LogQueries bool   `toml:"log_queries"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	JWTTTL    time.Duration `toml:"jwt_ttl"`
}

type ImageConfig struct {
	Dir      string `toml:"dir"`
	URLBase  string `toml:"url_base"`
	MaxBytes int64  `toml:"max_bytes"`
}

type ReservationConfig struct {
	LockTimeout     time.Duration `toml:"lock_timeout"`
	RetryMaxElapsed time.Duration `toml:"retry_max_elapsed"`
}

// RedisConfig enables the catalog list cache when URL is set.
type RedisConfig struct {
	URL      string        `toml:"url"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// AMQPConfig enables the event publisher when URL is set.
type AMQPConfig struct {
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

func Defaults() *Config {
	return &Config{
		AppEnv:   defaultAppEnv,
		HTTP:     HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{URL: "equipmarket.db"},
		Auth:     AuthConfig{JWTSecret: defaultJWTSecret, JWTTTL: 12 * time.Hour},
		Images: ImageConfig{
			Dir:      "./images",
			URLBase:  "/api/v1/images",
			MaxBytes: 10 << 20,
		},
		Reservation: ReservationConfig{LockTimeout: 3 * time.Second, RetryMaxElapsed: 2 * time.Second},
		Redis:       RedisConfig{CacheTTL: 30 * time.Second},
		AMQP:        AMQPConfig{Exchange: "equipmarket.events"},
	}
}

// Load builds the configuration from defaults, .env, an optional TOML file
// and the environment, in that order. An empty path falls back to CONFIG_FILE.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	cfg := Defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		if err := parseConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseConfigFile(cfg *Config, fileName string) error {
	content, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}
	if _, err := toml.Decode(string(content), cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	overrideString(&cfg.AppEnv, "APP_ENV")
	overrideString(&cfg.HTTP.Addr, "HTTP_ADDR")
	overrideString(&cfg.Database.URL, "DATABASE_URL")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.Images.Dir, "IMAGE_DIR")
	overrideString(&cfg.Images.URLBase, "IMAGE_URL_BASE")
	overrideString(&cfg.Redis.URL, "REDIS_URL")
	overrideString(&cfg.AMQP.URL, "AMQP_URL")
	overrideString(&cfg.AMQP.Exchange, "AMQP_EXCHANGE")

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.HTTP.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.HTTP.CORSOrigins = append(cfg.HTTP.CORSOrigins, o)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("DB_LOG_QUERIES")); v != "" {
		cfg.Database.LogQueries = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv("IMAGE_MAX_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid IMAGE_MAX_BYTES value %q: %w", v, err)
		}
		cfg.Images.MaxBytes = n
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"JWT_TTL", &cfg.Auth.JWTTTL},
		{"RESERVE_LOCK_TIMEOUT", &cfg.Reservation.LockTimeout},
		{"RESERVE_RETRY_MAX_ELAPSED", &cfg.Reservation.RetryMaxElapsed},
		{"CATALOG_CACHE_TTL", &cfg.Redis.CacheTTL},
	}
	for _, d := range durations {
		if err := overrideDuration(d.dst, d.name); err != nil {
			return err
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.Auth.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Reservation.LockTimeout <= 0 {
		return fmt.Errorf("RESERVE_LOCK_TIMEOUT must be > 0")
	}
	if cfg.Reservation.RetryMaxElapsed <= 0 {
		return fmt.Errorf("RESERVE_RETRY_MAX_ELAPSED must be > 0")
	}
	if cfg.Redis.CacheTTL <= 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL must be > 0")
	}
	if cfg.Images.MaxBytes <= 0 {
		return fmt.Errorf("IMAGE_MAX_BYTES must be > 0")
	}
	if cfg.AMQP.URL != "" && cfg.AMQP.Exchange == "" {
		return fmt.Errorf("AMQP_EXCHANGE must not be empty when AMQP_URL is set")
	}

	if IsProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.Auth.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func overrideString(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, name string) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

func parseBool(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
