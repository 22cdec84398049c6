package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/vegaprotocol/amounts/log"
)

func TestConstructorsShareCollectors(t *testing.T) {
	a := NewDefaultAmountMetrics()
	b := NewDefaultAmountMetrics()

	before := testutil.ToFloat64(b.MalformedInputs("format_fixed"))
	a.MalformedInputs("format_fixed").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(b.MalformedInputs("format_fixed")))
}

func TestCacheMetricsLabels(t *testing.T) {
	m := NewDefaultCacheMetrics("test-cache")
	m.LocalCacheReads(CacheReadStatusMiss).Inc()
	m.LocalCacheReads(CacheReadStatusMiss).Inc()
	require.Equal(t, float64(2), testutil.ToFloat64(m.LocalCacheReads(CacheReadStatusMiss)))
	require.Equal(t, float64(0), testutil.ToFloat64(m.LocalCacheReads(CacheReadStatusHit)))
}

func TestRequestMetrics(t *testing.T) {
	m := NewDefaultRequestMetrics("metrics_test")
	m.RequestCounts("/v1/amounts/*", "success").Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(m.RequestCounts("/v1/amounts/*", "success")))
	m.RequestLatencies("/v1/amounts/*").Observe(0.01)
}

func TestPullServiceStops(t *testing.T) {
	s := NewPullService("127.0.0.1:0", log.NewDefaultLogger("unit-test"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("pull service did not stop")
	}
}
