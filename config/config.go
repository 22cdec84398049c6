// Package config enables config file parsing.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/vegaprotocol/amounts/amount"
	"github.com/vegaprotocol/amounts/log"
)

// Config contains the CLI configuration.
type Config struct {
	Server   *ServerConfig   `koanf:"server"`
	Format   *FormatConfig   `koanf:"format"`
	Registry *RegistryConfig `koanf:"registry"`
	Log      *LogConfig      `koanf:"log"`
	Metrics  *MetricsConfig  `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Server != nil {
		if err := cfg.Server.Validate(); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	if cfg.Format != nil {
		if err := cfg.Format.Validate(); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	if cfg.Registry != nil {
		if err := cfg.Registry.Validate(); err != nil {
			return fmt.Errorf("registry: %w", err)
		}
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// ServerConfig contains the API server configuration.
type ServerConfig struct {
	// Endpoint is the service endpoint from which to serve the API.
	Endpoint string `koanf:"endpoint"`

	// RequestTimeout is the maximum time a request may take. Optional.
	RequestTimeout *time.Duration `koanf:"request_timeout"`

	// CorsAllowedOrigins restricts cross-origin requests. Empty allows all.
	CorsAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Validate validates the server configuration.
func (cfg *ServerConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("malformed server endpoint '%s'", cfg.Endpoint)
	}
	if cfg.RequestTimeout != nil && *cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", *cfg.RequestTimeout)
	}
	return nil
}

// FormatConfig overrides the default number display conventions. Unset
// fields keep their default.
type FormatConfig struct {
	GroupSeparator   *string         `koanf:"group_separator"`
	DecimalSeparator *string         `koanf:"decimal_separator"`
	GroupSize        *int            `koanf:"group_size"`
	Classes          *amount.Classes `koanf:"classes"`
}

// Resolve merges the overrides into amount.DefaultFormat.
func (cfg *FormatConfig) Resolve() amount.Format {
	f := amount.DefaultFormat
	if cfg == nil {
		return f
	}
	if cfg.GroupSeparator != nil {
		f.GroupSeparator = *cfg.GroupSeparator
	}
	if cfg.DecimalSeparator != nil {
		f.DecimalSeparator = *cfg.DecimalSeparator
	}
	if cfg.GroupSize != nil {
		f.GroupSize = *cfg.GroupSize
	}
	if cfg.Classes != nil {
		f.Classes = *cfg.Classes
	}
	return f
}

// Validate validates the resolved format.
func (cfg *FormatConfig) Validate() error {
	return cfg.Resolve().Validate()
}

// ScaleConfig is the scale of one market or asset.
type ScaleConfig struct {
	ID     string `koanf:"id"`
	Symbol string `koanf:"symbol"`
	// DecimalPlaces is the price scale of a market or the decimals of an asset.
	DecimalPlaces int32 `koanf:"decimal_places"`
	// PositionDecimalPlaces is the size scale of a market. Unused for assets.
	PositionDecimalPlaces int32 `koanf:"position_decimal_places"`
}

// RegistryConfig configures the decimal places registry.
type RegistryConfig struct {
	// CacheDir is the directory of the persistent store. If empty, scales
	// are kept in memory only.
	CacheDir string `koanf:"cache_dir"`

	Markets []ScaleConfig `koanf:"markets"`
	Assets  []ScaleConfig `koanf:"assets"`
}

// Validate validates the registry configuration.
func (cfg *RegistryConfig) Validate() error {
	for kind, scales := range map[string][]ScaleConfig{"markets": cfg.Markets, "assets": cfg.Assets} {
		seen := map[string]struct{}{}
		for i, s := range scales {
			if s.ID == "" {
				return fmt.Errorf("%s[%d]: missing id", kind, i)
			}
			if _, ok := seen[s.ID]; ok {
				return fmt.Errorf("%s[%d]: duplicate id %s", kind, i, s.ID)
			}
			seen[s.ID] = struct{}{}
			if s.DecimalPlaces < 0 || s.PositionDecimalPlaces < 0 {
				return fmt.Errorf("%s[%d]: negative decimal places for %s", kind, i, s.ID)
			}
		}
	}
	return nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`

	// PprofEndpoint serves runtime profiles when set. Optional.
	PprofEndpoint string `koanf:"pprof_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	if cfg.PprofEndpoint != "" && cfg.PprofEndpoint == cfg.PullEndpoint {
		return fmt.Errorf("pprof and Prometheus endpoints must differ")
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	return initConfig(file.Provider(f))
}

func initConfig(p koanf.Provider) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider("AMOUNTS_", ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "AMOUNTS_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal into config.
	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	// Validate config.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
