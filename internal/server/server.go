// Package server exposes the agent's HTTP endpoints: health, keep-alive, metrics and chat.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/openclaw/openclaw/internal/logging"
)

const StatusText = "OpenClaw Agent Running"

type Server struct {
	http *http.Server
}

type Option func(*http.ServeMux)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(mux *http.ServeMux) {
		if h != nil {
			mux.Handle("GET /metrics", h)
		}
	}
}

// WithChat mounts the WebSocket chat endpoint at /chat.
func WithChat(h http.Handler) Option {
	return func(mux *http.ServeMux) {
		if h != nil {
			mux.Handle("/chat", h)
		}
	}
}

func New(addr string, opts ...Option) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleStatus)
	mux.HandleFunc("GET /ping", handlePing)
	for _, o := range opts {
		o(mux)
	}
	return &Server{http: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *Server) Handler() http.Handler { return s.http.Handler }

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	log := logging.For("server")
	errc := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", ln.Addr())
		errc <- s.http.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": StatusText})
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}
