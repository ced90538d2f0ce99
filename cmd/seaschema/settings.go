package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings are the process-level options shared by every command.
// Precedence (highest to lowest): flags > SEASCHEMA_* env vars > defaults
type Settings struct {
	Catalog   string        `mapstructure:"catalog"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Pretty    bool          `mapstructure:"pretty"`
	Tracing   bool          `mapstructure:"tracing"`
}

const (
	defaultCatalog   = "seaschema.yaml"
	defaultLogLevel  = "warn"
	defaultLogFormat = "console"
	defaultTimeout   = 5 * time.Minute
)

// LoadSettings merges flags, environment and defaults
func LoadSettings(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("catalog", defaultCatalog)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("log_format", defaultLogFormat)
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("pretty", false)
	v.SetDefault("tracing", false)

	v.SetEnvPrefix("SEASCHEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("unable to bind flags: %w", bindErr)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	if s.LogFormat != "json" && s.LogFormat != "console" {
		return nil, fmt.Errorf("log format must be json or console, got %q", s.LogFormat)
	}
	return &s, nil
}
