// Package config loads dictcache settings from an optional YAML file and
// DICTCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete configuration of the dictcache binary.
type Config struct {
	Redis    Redis    `mapstructure:"redis"`
	Database Database `mapstructure:"database"`
	Cache    Cache    `mapstructure:"cache"`
	Log      Log      `mapstructure:"log"`
	Trace    Trace    `mapstructure:"trace"`
}

type Redis struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	Database    int           `mapstructure:"database"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// RecordDeleteTime is the TTL in seconds applied to every cache write.
	RecordDeleteTime int `mapstructure:"record-delete-time"`
}

type Database struct {
	// DSN wins over the individual fields when set.
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type Cache struct {
	Disabled   bool   `mapstructure:"disabled"`
	Dedup      bool   `mapstructure:"dedup"`
	Provider   string `mapstructure:"provider"`    // redis | ristretto | bigcache
	Codec      string `mapstructure:"codec"`       // json | cbor | msgpack | protobuf
	MaxPayload int    `mapstructure:"max_payload"` // bytes; 0 = unlimited
	// MaxSizeMB bounds the in-process providers.
	MaxSizeMB int `mapstructure:"max_size_mb"`
}

type Log struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // zap | logrus | slog
}

// Trace controls OpenTelemetry spans around the store and the database.
type Trace struct {
	Enabled bool `mapstructure:"enabled"` // spans are written to stderr
}

// TTL is the record-delete-time as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Redis.RecordDeleteTime) * time.Second
}

// ConnString returns Database.DSN or a postgres URL built from the parts.
func (d Database) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Load reads path (may be empty) and the environment. A missing file at an
// explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DICTCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// every key needs a default so AutomaticEnv can see it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.record-delete-time", 600)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.dedup", false)
	v.SetDefault("cache.provider", "redis")
	v.SetDefault("cache.codec", "json")
	v.SetDefault("cache.max_payload", 0)
	v.SetDefault("cache.max_size_mb", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "zap")

	v.SetDefault("trace.enabled", false)
}

// Validate checks the values Load cannot default away.
func (c *Config) Validate() error {
	var errs []error
	if c.Redis.RecordDeleteTime <= 0 {
		errs = append(errs, fmt.Errorf("redis.record-delete-time must be > 0, got %d", c.Redis.RecordDeleteTime))
	}
	if c.Redis.Address == "" {
		errs = append(errs, errors.New("redis.address is required"))
	}
	switch c.Cache.Provider {
	case "redis", "ristretto", "bigcache":
	default:
		errs = append(errs, fmt.Errorf("cache.provider: unknown provider %q", c.Cache.Provider))
	}
	if c.Cache.Provider != "redis" && c.Cache.MaxSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("cache.max_size_mb must be > 0, got %d", c.Cache.MaxSizeMB))
	}
	switch c.Cache.Codec {
	case "json", "cbor", "msgpack", "protobuf":
	default:
		errs = append(errs, fmt.Errorf("cache.codec: unknown codec %q", c.Cache.Codec))
	}
	if c.Cache.MaxPayload < 0 {
		errs = append(errs, fmt.Errorf("cache.max_payload must be >= 0, got %d", c.Cache.MaxPayload))
	}
	switch c.Log.Format {
	case "zap", "logrus", "slog":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
