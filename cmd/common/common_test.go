package common

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegaprotocol/amounts/config"
)

func TestInitLogsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amounts.log")
	err := Init(&config.Config{Log: &config.LogConfig{Format: "json", Level: "info", File: path}})
	require.NoError(t, err)

	RootLogger().Debug("hidden")
	RootLogger().Info("visible", "decimals", 6)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"visible"`)
	require.Contains(t, string(b), `"decimals":6`)
	require.NotContains(t, string(b), "hidden")
}

func TestInitRejectsBadLogConfig(t *testing.T) {
	require.Error(t, Init(&config.Config{Log: &config.LogConfig{Format: "xml", Level: "info"}}))
	require.Error(t, Init(&config.Config{Log: &config.LogConfig{Format: "json", Level: "chatty"}}))
}

func TestStartPprof(t *testing.T) {
	addr := startPprof("127.0.0.1:0")
	require.NotNil(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/debug/pprof/", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Nil(t, startPprof("not an address"))
}
