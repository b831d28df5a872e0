// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app" yaml:"app"`
	Server    ServerConfig    `koanf:"server" yaml:"server"`
	Database  DatabaseConfig  `koanf:"database" yaml:"database"`
	Redis     RedisConfig     `koanf:"redis" yaml:"redis"`
	JWT       JWTConfig       `koanf:"jwt" yaml:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit" yaml:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors" yaml:"cors"`
	Log       LogConfig       `koanf:"log" yaml:"log"`
	Otel      OtelConfig      `koanf:"otel" yaml:"otel"`
	CRM       CRMConfig       `koanf:"crm" yaml:"crm"`
}

type AppConfig struct {
	Name        string `koanf:"name" yaml:"name"`
	Version     string `koanf:"version" yaml:"version"`
	Environment string `koanf:"environment" yaml:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host" yaml:"host"`
	Port            int           `koanf:"port" yaml:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxy bool `koanf:"trust_proxy" yaml:"trust_proxy"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url" yaml:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url" yaml:"url"`
	PoolSize     int    `koanf:"pool_size" yaml:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns" yaml:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path" yaml:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path" yaml:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire" yaml:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire" yaml:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer" yaml:"issuer"`
	Audience           string        `koanf:"audience" yaml:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests" yaml:"requests"`
	Window   time.Duration `koanf:"window" yaml:"window"`
	Burst    int           `koanf:"burst" yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `koanf:"max_age" yaml:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint" yaml:"endpoint"`
	ServiceName string  `koanf:"service_name" yaml:"service_name"`
	Enabled     bool    `koanf:"enabled" yaml:"enabled"`
	Insecure    bool    `koanf:"insecure" yaml:"insecure"`
	SampleRate  float64 `koanf:"sample_rate" yaml:"sample_rate"`
}

// CRMConfig holds the tunables of the lead pipeline.
type CRMConfig struct {
	BulkChunkSize    int           `koanf:"bulk_chunk_size" yaml:"bulk_chunk_size"`
	RecentLimit      int           `koanf:"recent_limit" yaml:"recent_limit"`
	IntakeWindowDays int           `koanf:"intake_window_days" yaml:"intake_window_days"`
	NewLeadWindow    time.Duration `koanf:"new_lead_window" yaml:"new_lead_window"`
	NewStatusValue   string        `koanf:"new_status_value" yaml:"new_status_value"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load parses configuration once per process and caches the result.
func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = Parse(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

// Parse builds a Config from defaults, an optional YAML file, an optional
// .env file and the process environment, in that order of precedence.
func Parse(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "CRM Backend",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.trust_proxy":      false,

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "crm-backend",
		"jwt.audience":             "crm-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "crm-backend",

		"crm.bulk_chunk_size":    1000,
		"crm.recent_limit":       10,
		"crm.intake_window_days": 14,
		"crm.new_lead_window":    "168h",
		"crm.new_status_value":   "new",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"TRUST_PROXY":                 "server.trust_proxy",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"CRM_BULK_CHUNK_SIZE":         "crm.bulk_chunk_size",
	"CRM_RECENT_LIMIT":            "crm.recent_limit",
	"CRM_NEW_STATUS_VALUE":        "crm.new_status_value",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.CRM.BulkChunkSize < 1 || c.CRM.BulkChunkSize > 10000 {
		return fmt.Errorf("crm.bulk_chunk_size must be between 1 and 10000")
	}

	if c.CRM.IntakeWindowDays < 1 {
		return fmt.Errorf("crm.intake_window_days must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Redacted returns a copy safe to print: passwords in connection URLs are
// masked.
func (c Config) Redacted() Config {
	c.Database.URL = redactURL(c.Database.URL)
	c.Redis.URL = redactURL(c.Redis.URL)
	c.CORS.AllowedOrigins = append([]string(nil), c.CORS.AllowedOrigins...)
	return c
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	return u.Redacted()
}
