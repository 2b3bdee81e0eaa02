package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Opts configures [NewHTTPServer].
type Opts struct {
	Addr    string
	Logger  *log.Logger
	Latency time.Duration
}

// NewRouter wires the fixture behind the logging and recovery middleware.
func NewRouter(f *Fixture, opts Opts) *BasicRouter {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	router := NewBasicRouter()
	router.Use(Recover(opts.Logger), Logging(opts.Logger), Latency(opts.Latency))
	router.Handler(f)
	router.NotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	}))
	return router
}

// NewHTTPServer returns an http.Server serving the fixture.
func NewHTTPServer(f *Fixture, opts Opts) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewRouter(f, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve runs srv until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errs := make(chan error, 1)
	go func() {
		logger.Info("fixture backend listening", "addr", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
