package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"raceserver/config"
)

// Serve runs the HTTP server described by cfg until ctx is cancelled.
func Serve(ctx context.Context, cfg config.HTTP, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var err error
	if cfg.UseSSL {
		log.Infof("Starting HTTPS server on %s", addr)
		err = server.ListenAndServeTLS(cfg.SSLCertPath, cfg.SSLKeyPath)
	} else {
		log.Infof("Starting HTTP server on %s", addr)
		err = server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
