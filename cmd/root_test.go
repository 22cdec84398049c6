package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegaprotocol/amounts/config"
	"github.com/vegaprotocol/amounts/log"
)

func TestRunServicesStopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Server:   &config.ServerConfig{Endpoint: "127.0.0.1:0"},
		Registry: &config.RegistryConfig{},
		Metrics:  &config.MetricsConfig{PullEndpoint: "127.0.0.1:0"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServices(ctx, cfg, log.NewDefaultLogger("unit-test")) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("services did not stop")
	}
}

func TestRunServicesFailsFast(t *testing.T) {
	cfg := &config.Config{
		Server: &config.ServerConfig{Endpoint: "not an address"},
	}
	err := runServices(context.Background(), cfg, log.NewDefaultLogger("unit-test"))
	require.Error(t, err)
}

func TestRunServicesNeedsAService(t *testing.T) {
	require.Error(t, runServices(context.Background(), &config.Config{}, log.NewDefaultLogger("unit-test")))
}

func TestSubcommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	require.Contains(t, names, "serve")
	require.Contains(t, names, "format")
}
