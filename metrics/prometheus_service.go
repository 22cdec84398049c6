package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vegaprotocol/amounts/common"
	"github.com/vegaprotocol/amounts/log"
)

const (
	moduleName = "metrics"
)

// PullService is a service that supports the Prometheus pull method.
type PullService struct {
	server *http.Server
	logger *log.Logger
}

// Run serves /metrics until ctx is cancelled.
func (s *PullService) Run(ctx context.Context) error {
	s.logger.Info("starting metrics pull service", "endpoint", s.server.Addr)
	return common.RunServer(ctx, s.server, s.logger)
}

// NewPullService creates a new Prometheus pull service.
func NewPullService(pullEndpoint string, logger *log.Logger) *PullService {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &PullService{
		server: &http.Server{
			Addr:           pullEndpoint,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger: logger.WithModule(moduleName),
	}
}
