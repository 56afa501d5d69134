// Package httpserver wraps net/http with sane timeouts and graceful
// shutdown. Used for the metrics endpoint.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

const (
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	defaultAddr            = ":9090"
	defaultShutdownTimeout = 3 * time.Second
)

type Server struct {
	server          *http.Server
	errCh           chan error
	shutdownTimeout time.Duration
}

type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
}

func New(handler http.Handler, opt Options) *Server {
	addr := opt.Addr
	if addr == "" {
		addr = defaultAddr
	}

	shutdownTimeout := opt.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	httpServer := &http.Server{
		Handler:      handler,
		Addr:         addr,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	srv := &Server{
		server:          httpServer,
		errCh:           make(chan error, 1),
		shutdownTimeout: shutdownTimeout,
	}

	go srv.start()

	return srv
}

func (s *Server) start() {
	s.errCh <- s.server.ListenAndServe()
	close(s.errCh)
}

// Notify reports the listener's exit error.
func (s *Server) Notify() <-chan error {
	return s.errCh
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
