// Package server runs the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/demandsignal/telemetry/config"
)

const shutdownTimeout = 5 * time.Second

// Listen serves handler until SIGINT/SIGTERM, then drains open connections.
func Listen(cfg *config.Configuration, handler http.Handler) error {
	s := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
	}

	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-stopSignals
		glog.Infof("[server] received %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			glog.Errorf("[server] shutdown: %v", err)
		}
	}()

	glog.Infof("[server] listening on %s", s.Addr)
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
