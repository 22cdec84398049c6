// Package cmd implements commands for the amounts executable.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vegaprotocol/amounts/cmd/api"
	"github.com/vegaprotocol/amounts/cmd/common"
	"github.com/vegaprotocol/amounts/cmd/format"
	"github.com/vegaprotocol/amounts/config"
	"github.com/vegaprotocol/amounts/log"
	"github.com/vegaprotocol/amounts/metrics"
)

var (
	// Path to the configuration file.
	configFile string

	rootCmd = &cobra.Command{
		Use:   "amounts",
		Short: "Vega amounts formatting service",
		Run:   rootMain,
	}
)

// Service is a service run by the amounts executable.
type Service interface {
	// Run runs the service until ctx is cancelled.
	Run(ctx context.Context) error
}

func rootMain(cmd *cobra.Command, args []string) {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runServices(ctx, cfg, logger); err != nil {
		logger.Error("service failed", "err", err)
		os.Exit(1)
	}
	logger.Info("all services stopped")
}

// runServices runs every configured service until ctx is cancelled or one
// of them fails.
func runServices(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	var services []Service
	if cfg.Metrics != nil {
		services = append(services, metrics.NewPullService(cfg.Metrics.PullEndpoint, logger))
	}
	if cfg.Server != nil {
		apiService, err := api.Init(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize api service: %w", err)
		}
		defer apiService.Shutdown()
		services = append(services, apiService)
	}
	if len(services) == 0 {
		return fmt.Errorf("no services configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range services {
		s := s
		g.Go(func() error {
			return s.Run(ctx)
		})
	}
	logger.Info("started all services")
	return g.Wait()
}

// Execute spawns the main entry point after handing the config file.
func Execute() {
	// Debug hook. If we receive SIGUSR1, dump all goroutines.
	go dumpGoroutinesOnSignal(syscall.SIGUSR1)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "./config/local.yml", "path to the config.yml file")

	for _, f := range []func(*cobra.Command){
		api.Register,
		format.Register,
	} {
		f(rootCmd)
	}
}

// Starts listening for the specified signals, and logs a dump of all
// goroutines when the process receives one of those signals.
func dumpGoroutinesOnSignal(signals ...os.Signal) {
	logger := log.NewDefaultLogger("toplevel")
	c := make(chan os.Signal, 1)
	signal.Notify(c, signals...)
	logger.Info("listening for signals", "signals", signals)
	for range c {
		b := bytes.NewBufferString("")
		_ = pprof.Lookup("goroutine").WriteTo(b, 1)
		logger.Warn("USER-REQUESTED DUMP: all goroutines", "goroutines_all", b.String())

		b = bytes.NewBufferString("")
		_ = pprof.Lookup("block").WriteTo(b, 1)
		logger.Warn("USER-REQUESTED DUMP: stack traces that led to blocking on synchronization primitives", "goroutines_block", b.String())

		b = bytes.NewBufferString("")
		_ = pprof.Lookup("mutex").WriteTo(b, 1)
		logger.Warn("USER-REQUESTED DUMP: stack traces of holders of contended mutexes", "goroutines_mutex", b.String())
	}
}
