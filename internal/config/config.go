package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StoreMemory   = "memory"
	StoreDisk     = "disk"
	StoreSqlite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsPort int    `toml:"metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	AllowedOrigins []string `toml:"allowed_origins"`

	// sessions store
	StoreBackend     string `toml:"store_backend"`
	SessionsFilePath string `toml:"sessions_file_path"`
	SqlitePath       string `toml:"sqlite_path"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	CacheSizeMB      int    `toml:"cache_size_mb"`
	// read cache entry lifetime, 0 disables the cache
	CacheTTL time.Duration `toml:"cache_ttl"`

	// redis is the rate limiter backend, and the sessions store if selected
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	StartSessionRateLimitPerMin int `toml:"start_session_rate_limit_per_min"`

	// live tracking
	TrackingMaxIdle    time.Duration `toml:"tracking_max_idle"`
	TrackingSweepEvery time.Duration `toml:"tracking_sweep_every"`
	ShutdownTimeout    time.Duration `toml:"shutdown_timeout"`
	ApiClientTimeout   time.Duration `toml:"api_client_timeout"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the config of the given environment,
// with defaults filled in for everything left out.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing in %s", env, path)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 2112
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreDisk
	}
	if c.SessionsFilePath == "" {
		c.SessionsFilePath = "exercise_data.json"
	}
	if c.SqlitePath == "" {
		c.SqlitePath = "sessions.db"
	}
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDBName == "" {
		c.PostgresDBName = "gymreps"
	}
	if c.CacheSizeMB == 0 {
		c.CacheSizeMB = 16
	}
	if c.StartSessionRateLimitPerMin == 0 {
		c.StartSessionRateLimitPerMin = 30
	}
	if c.TrackingMaxIdle == 0 {
		c.TrackingMaxIdle = 10 * time.Minute
	}
	if c.TrackingSweepEvery == 0 {
		c.TrackingSweepEvery = time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.ApiClientTimeout == 0 {
		c.ApiClientTimeout = 10 * time.Second
	}
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreDisk, StoreSqlite, StorePostgres:
	case StoreRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return fmt.Errorf("store backend [%s] needs redis_host and redis_port", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.CacheTTL)
	}
	return nil
}

// RedisEnabled reports whether a redis instance is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != "" && c.RedisPort != ""
}
