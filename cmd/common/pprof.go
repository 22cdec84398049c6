package common

import (
	"net"
	"net/http"
	"net/http/pprof"
	"time"
)

// startPprof serves runtime profiles in the background and returns the
// address it listens on, or nil if it could not listen.
func startPprof(endpoint string) net.Addr {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		rootLogger.Error("failed to create pprof listener", "err", err)
		return nil
	}

	// Create a new mux just for the pprof endpoints to avoid using the
	// global multiplexer where pprof's init function registers by default.
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Addr:    endpoint,
		Handler: mux,
		// Profiles take up to their ?seconds= duration to collect.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	rootLogger.Info("serving pprof", "endpoint", listener.Addr().String())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			rootLogger.Error("pprof server stopped", "err", err)
		}
	}()
	return listener.Addr()
}
