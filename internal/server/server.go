// Package server exposes open HDF5 files to the browser viewer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/internal/catalog"
	"github.com/robert-malhotra/h5view/internal/config"
	"github.com/robert-malhotra/h5view/internal/session"
)

// Server routes API and UI requests to the session manager.
type Server struct {
	cfg      *config.Config
	sessions *session.Manager
	catalog  *catalog.Catalog // nil without a data directory
	log      *zap.Logger
	page     *template.Template
	handler  http.Handler
}

// New builds a server. cat may be nil.
func New(cfg *config.Config, sessions *session.Manager, cat *catalog.Catalog, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
		catalog:  cat,
		log:      log.Named("server"),
		page:     page,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /{$}", s.index)

	mux.HandleFunc("GET /api/catalog", s.listCatalog)
	mux.HandleFunc("POST /api/catalog/open", s.openCatalog)

	mux.HandleFunc("POST /api/files", s.upload)
	mux.HandleFunc("GET /api/files/{id}/tree", s.tree)
	mux.HandleFunc("POST /api/files/{id}/select", s.selectNode)
	mux.HandleFunc("POST /api/files/{id}/mode", s.setMode)
	mux.HandleFunc("GET /api/files/{id}/view", s.view)
	mux.HandleFunc("GET /api/files/{id}/frames/{n}", s.frame)
	mux.HandleFunc("DELETE /api/files/{id}", s.closeFile)

	var h http.Handler = mux
	if s.cfg.Server.CORS {
		h = enableCORS(h)
	}
	return s.logRequests(h)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.GetReadTimeout(),
		WriteTimeout: s.cfg.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)))
	})
}
