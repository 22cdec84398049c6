package common

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vegaprotocol/amounts/log"
)

func TestRunServerShutsDownOnCancel(t *testing.T) {
	// Grab a free port.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	server := &http.Server{
		Addr:              addr,
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunServer(ctx, server, log.NewDefaultLogger("unit-test"))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunServerReportsListenErrors(t *testing.T) {
	server := &http.Server{Addr: "256.0.0.1:bad", ReadHeaderTimeout: time.Second}
	err := RunServer(context.Background(), server, log.NewDefaultLogger("unit-test"))
	require.Error(t, err)
}
