// Package config loads and validates qibusd's runtime configuration,
// grounded on Sentinel-Gate-Sentinelgate's viper+validator config
// layer (SPEC_FULL.md §2.3).
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is qibusd's runtime configuration.
type Config struct {
	// ListenURL is the TransportServer bind address, e.g.
	// "tcp://127.0.0.1:7878". Host must be dotted-quad IPv4 per
	// spec.md §6.
	ListenURL string `mapstructure:"listen_url" validate:"required,url"`

	// MaxPendingConnections bounds the server's pending-connection
	// queue (SPEC_FULL.md §4). Zero means unbounded.
	MaxPendingConnections int `mapstructure:"max_pending_connections" validate:"gte=0"`

	// DebugAssertSignatures enables the proxy's debug-build signature
	// assertion (spec.md §4.3 step 2).
	DebugAssertSignatures bool `mapstructure:"debug_assert_signatures"`
}

var validate = validator.New()

// Load reads configuration from file (if non-empty), environment
// variables prefixed QIBUS_, and the given defaults, then validates
// the result. Precedence is viper's own: env > file > defaults.
func Load(file string, defaults Config) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QIBUS")
	v.AutomaticEnv()

	v.SetDefault("listen_url", defaults.ListenURL)
	v.SetDefault("max_pending_connections", defaults.MaxPendingConnections)
	v.SetDefault("debug_assert_signatures", defaults.DebugAssertSignatures)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}
