// Package config loads the operator-facing configuration for clayctl:
// codec parameters, local storage paths, and the metrics port.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration tree. Codec is unmarshalled
// into a plain string map so it lines up exactly with clay.Profile's
// key/value contract instead of a bespoke struct.
type Config struct {
	Codec map[string]string `mapstructure:"codec"`

	Storage struct {
		Datadir       string        `mapstructure:"datadir"`
		DB            string        `mapstructure:"db"`
		FlushInterval time.Duration `mapstructure:"flush_interval"`
	} `mapstructure:"storage"`

	Server struct {
		MetricsPort int `mapstructure:"metrics_port"`
	} `mapstructure:"server"`
}

// Load reads path (if non-empty) as a YAML config file, applies
// CLAY_-prefixed environment overrides, then hard defaults. Precedence,
// highest first: environment, config file, defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("CLAY")
	v.AutomaticEnv()

	v.SetDefault("codec.k", "4")
	v.SetDefault("codec.m", "2")
	v.SetDefault("codec.d", "5")
	v.SetDefault("codec.w", "8")
	v.SetDefault("storage.datadir", "data")
	v.SetDefault("storage.db", "clay.db")
	v.SetDefault("storage.flush_interval", "250ms")
	v.SetDefault("server.metrics_port", 9102)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
