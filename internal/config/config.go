package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config is the configuration of one pipeline run.
type Config struct {
	Input   InputConfig   `mapstructure:"input"`
	Window  WindowConfig  `mapstructure:"window"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// InputConfig says where the XML files are.
type InputConfig struct {
	Dir string `mapstructure:"dir"`
}

// WindowConfig holds the window width specifier, e.g. "1D" or "30min".
type WindowConfig struct {
	Width string `mapstructure:"width"`
}

// StorageConfig selects and configures the sink.
type StorageConfig struct {
	Driver string       `mapstructure:"driver"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SQLiteConfig locates the SQLite database file.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig is the Redis connection and the list key records go to.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// LogConfig controls logging.
type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// MetricsConfig controls where run metrics are written. Empty File disables it.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// New returns a viper instance with defaults, config file search paths and
// environment binding set up. Flags may be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ropipeline")

	v.SetDefault("input.dir", "data")
	v.SetDefault("window.width", "1D")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite.path", "repair_orders.db")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key", "repair_orders")
	v.SetDefault("log.debug", false)
	v.SetDefault("metrics.file", "")

	v.SetEnvPrefix("ROPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and unmarshals v into a Config.
// An explicit file set with SetConfigFile must exist.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return errors.New("input.dir is required")
	}
	if c.Window.Width == "" {
		return errors.New("window.width is required")
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis:
	case DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}
