// Package api implements the api sub-command.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vegaprotocol/amounts/api"
	"github.com/vegaprotocol/amounts/cmd/common"
	rootCommon "github.com/vegaprotocol/amounts/common"
	"github.com/vegaprotocol/amounts/config"
	"github.com/vegaprotocol/amounts/log"
	"github.com/vegaprotocol/amounts/metrics"
	"github.com/vegaprotocol/amounts/registry"
)

const (
	moduleName = "api"
)

var (
	// Path to the configuration file.
	configFile string

	apiCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the amounts API",
		Run:   runServer,
	}
)

func runServer(cmd *cobra.Command, args []string) {
	// Initialize config.
	cfg, err := config.InitConfig(configFile)
	if err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}

	// Initialize common environment.
	if err = common.Init(cfg); err != nil {
		log.NewDefaultLogger("init").Error("init failed",
			"error", err,
		)
		os.Exit(1)
	}
	logger := common.RootLogger()

	if cfg.Server == nil {
		logger.Error("server config not provided")
		os.Exit(1)
	}

	service, err := Init(cfg)
	if err != nil {
		os.Exit(1)
	}
	defer service.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := service.Run(ctx); err != nil {
		logger.Error("api service failed", "err", err)
		os.Exit(1)
	}
}

// Init initializes the API service.
func Init(cfg *config.Config) (*Service, error) {
	logger := common.RootLogger()

	service, err := NewService(cfg, logger)
	if err != nil {
		logger.Error("service failed to start",
			"error", err,
		)
		return nil, err
	}
	return service, nil
}

// Service is the amounts API service.
type Service struct {
	server   *http.Server
	registry *registry.Registry
	logger   *log.Logger
}

// NewService creates a new API service from the server, format and
// registry configuration.
func NewService(cfg *config.Config, logger *log.Logger) (*Service, error) {
	if cfg.Server == nil {
		return nil, fmt.Errorf("server config not provided")
	}
	logger = logger.WithModule(moduleName)

	reg, err := registry.Open(cfg.Registry, logger)
	if err != nil {
		return nil, err
	}

	amountsAPI := api.NewAmountsAPI(reg, cfg.Format.Resolve(), logger)
	handler := amountsAPI.Handler(
		metrics.NewDefaultRequestMetrics(moduleName),
		cfg.Server.CorsAllowedOrigins,
		cfg.Server.RequestTimeout,
	)

	return &Service{
		server: &http.Server{
			Addr:           cfg.Server.Endpoint,
			Handler:        handler,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		registry: reg,
		logger:   logger,
	}, nil
}

// Run serves the API until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting api service at " + s.server.Addr)
	return rootCommon.RunServer(ctx, s.server, s.logger)
}

// Shutdown releases the registry store.
func (s *Service) Shutdown() {
	if err := s.registry.Close(); err != nil {
		s.logger.Error("failed to close registry", "err", err)
	}
}

// Register registers the process sub-command.
func Register(parentCmd *cobra.Command) {
	apiCmd.Flags().StringVar(&configFile, "config", "./config/local.yml", "path to the config.yml file")
	parentCmd.AddCommand(apiCmd)
}
