package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "TODO"
	DefaultConfigPath = "configs/config.yaml"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type HTTP struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	MaxConcurrent   int64         `mapstructure:"max_concurrent"`
	EnforceHTTPS    bool          `mapstructure:"enforce_https"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type FileRotate struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Log struct {
	Level  string     `mapstructure:"level"`
	JSON   bool       `mapstructure:"json"`
	Rotate FileRotate `mapstructure:"rotate"`
}

// DB selects the task and user store. Driver is one of sqlite, postgres
// (pgx), gorm-postgres or mysql (both through gorm).
type DB struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogQueries      bool          `mapstructure:"log_queries"`
	LogLevel        string        `mapstructure:"log_level"`
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type Cache struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   Redis         `mapstructure:"redis"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type GlobalRateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type RateLimit struct {
	Enabled  bool            `mapstructure:"enabled"`
	Register RateLimitConfig `mapstructure:"register"`
	Login    RateLimitConfig `mapstructure:"login"`
	Tasks    RateLimitConfig `mapstructure:"tasks"`
	Global   GlobalRateLimit `mapstructure:"global"`
}

type Telemetry struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	MetricsPort  string `mapstructure:"metrics_port"`
}

type Config struct {
	App        App       `mapstructure:"app"`
	HTTP       HTTP      `mapstructure:"http"`
	Log        Log       `mapstructure:"log"`
	DB         DB        `mapstructure:"db"`
	JWT        JWT       `mapstructure:"jwt"`
	BcryptCost int       `mapstructure:"bcrypt_cost"`
	Cache      Cache     `mapstructure:"cache"`
	RateLimit  RateLimit `mapstructure:"rate_limit"`
	Telemetry  Telemetry `mapstructure:"telemetry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "todolist")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.request_timeout", 10*time.Second)
	v.SetDefault("http.max_body_bytes", 1<<20)
	v.SetDefault("http.max_concurrent", 256)
	v.SetDefault("http.enforce_https", false)
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.filename", "logs/todolist.log")
	v.SetDefault("log.rotate.max_size_mb", 100)
	v.SetDefault("log.rotate.max_backups", 5)
	v.SetDefault("log.rotate.max_age_days", 30)
	v.SetDefault("log.rotate.compress", true)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "todolist.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", time.Hour)
	v.SetDefault("db.log_queries", false)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "todolist")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("bcrypt_cost", 10)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "todolist:")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.register.requests", 5)
	v.SetDefault("rate_limit.register.window", time.Minute)
	v.SetDefault("rate_limit.login.requests", 10)
	v.SetDefault("rate_limit.login.window", time.Minute)
	v.SetDefault("rate_limit.tasks.requests", 100)
	v.SetDefault("rate_limit.tasks.window", time.Minute)
	v.SetDefault("rate_limit.global.rps", 500)
	v.SetDefault("rate_limit.global.burst", 1000)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.metrics_port", "9090")
}

// Load reads the YAML file at path when it exists and applies TODO_*
// environment overrides on top of the defaults. An empty path falls back to
// CONFIG_PATH and then to configs/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path == "" {
		path = DefaultConfigPath
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}

	switch c.DB.Driver {
	case "sqlite", "postgres", "gorm-postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q is not one of sqlite, postgres, gorm-postgres, mysql", c.DB.Driver))
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, redis", c.Cache.Backend))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
