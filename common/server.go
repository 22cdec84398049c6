package common

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vegaprotocol/amounts/log"
)

// How long in-flight requests get to finish once shutdown starts.
const shutdownTimeout = 5 * time.Second

// RunServer serves until ctx is cancelled, then shuts the server down
// gracefully. It returns nil on a clean shutdown.
func RunServer(ctx context.Context, server *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server stopped", "addr", server.Addr, "err", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "addr", server.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
