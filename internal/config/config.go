package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure for the application.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Pool   PoolConfig   `mapstructure:"pool"`
	GC     GCConfig     `mapstructure:"gc"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds the network settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// PoolConfig sizes the worker pool used for deferred entry destruction,
// per spec.md §4.6.
type PoolConfig struct {
	Threads  int `mapstructure:"threads"`
	MaxQueue int `mapstructure:"max_queue"`
}

// GCConfig controls how often the dispatcher loop sweeps expired TTLs and
// idle connections (spec.md §4.9's "process timers" step).
type GCConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig defines logging verbosity and output style.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads the configuration from a file and overrides it with
// environment variables.
func Load(path string) (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("KVLOOP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates viper with fallback values if they are not
// provided via file or ENV.
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "1234")

	viper.SetDefault("pool.threads", 4)
	viper.SetDefault("pool.max_queue", 0)

	viper.SetDefault("gc.interval", "50ms")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}
