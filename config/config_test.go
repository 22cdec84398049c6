package config

import (
	"testing"
	"time"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/require"

	"github.com/vegaprotocol/amounts/amount"
)

func TestConfigYAML(t *testing.T) {
	requestTimeout := 30 * time.Second
	expectedYAML := `
server:
  endpoint: localhost:8080
  request_timeout: 30000000000
format:
  group_separator: "."
  decimal_separator: ","
registry:
  cache_dir: /tmp/amounts
  markets:
    - id: btcusd
      symbol: BTCUSD
      decimal_places: 5
      position_decimal_places: 2
  assets:
    - id: usdt
      symbol: USDT
      decimal_places: 6
log:
  format: json
  level: info
metrics:
  pull_endpoint: localhost:8081
`

	cfg, err := initConfig(rawbytes.Provider([]byte(expectedYAML)))
	require.NoError(t, err)

	require.Equal(t, "localhost:8080", cfg.Server.Endpoint)
	require.Equal(t, &requestTimeout, cfg.Server.RequestTimeout)
	require.Equal(t, "/tmp/amounts", cfg.Registry.CacheDir)
	require.Equal(t, []ScaleConfig{{ID: "btcusd", Symbol: "BTCUSD", DecimalPlaces: 5, PositionDecimalPlaces: 2}}, cfg.Registry.Markets)
	require.Equal(t, []ScaleConfig{{ID: "usdt", Symbol: "USDT", DecimalPlaces: 6}}, cfg.Registry.Assets)
	require.Equal(t, "localhost:8081", cfg.Metrics.PullEndpoint)

	f := cfg.Format.Resolve()
	require.Equal(t, ".", f.GroupSeparator)
	require.Equal(t, ",", f.DecimalSeparator)
	require.Equal(t, 3, f.GroupSize)
	require.Equal(t, amount.DefaultClasses, f.Classes)
}

func TestConfigInvalid(t *testing.T) {
	for name, y := range map[string]string{
		"no endpoint":        "server:\n  request_timeout: 1\n",
		"same separators":    "format:\n  group_separator: \".\"\n",
		"duplicate market":   "registry:\n  markets:\n    - id: a\n    - id: a\n",
		"negative decimals":  "registry:\n  assets:\n    - id: a\n      decimal_places: -1\n",
		"bad log level":      "log:\n  format: json\n  level: loud\n",
		"no metrics address": "metrics:\n  pull_endpoint: \"\"\n",
	} {
		_, err := initConfig(rawbytes.Provider([]byte(y)))
		require.Error(t, err, name)
	}
}

func TestNilFormatResolvesToDefault(t *testing.T) {
	var cfg *FormatConfig
	require.Equal(t, amount.DefaultFormat, cfg.Resolve())
}

func TestLocalConfig(t *testing.T) {
	cfg, err := InitConfig("local.yml")
	require.NoError(t, err)
	require.Len(t, cfg.Registry.Assets, 2)
	require.Equal(t, amount.DefaultFormat, cfg.Format.Resolve())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("AMOUNTS_SERVER__ENDPOINT", "0.0.0.0:9000")
	cfg, err := initConfig(rawbytes.Provider([]byte("server:\n  endpoint: localhost:8080\n")))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.Server.Endpoint)
}
