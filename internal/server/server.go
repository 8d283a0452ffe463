// Package server exposes catalog dumps over HTTP.
//
//	GET /healthz
//	GET /schemas/{schema}/ddl?kinds=tables,indexes&format=sql
//	GET /schemas/{schema}/ddl/{kind}
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tordrt/ddldump/internal/db"
	"github.com/tordrt/ddldump/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Server serves dumps of any schema the catalog's pool can read
type Server struct {
	catalog *db.Catalog
	log     *logger.Logger
	router  chi.Router
}

// New creates a server with its routes mounted
func New(catalog *db.Catalog, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{catalog: catalog, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthz)
	r.Route("/schemas/{schema}", func(r chi.Router) {
		r.Use(validateSchema)
		r.Get("/ddl", s.dump)
		r.Get("/ddl/{kind}", s.kind)
	})

	s.router = r
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return s.log.WithContext(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs one line per request and puts a request-scoped logger
// into the context
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := s.log.With().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		reqLog.With().
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Any("duration_ms", time.Since(start).Milliseconds()).
			Logger().
			Info("request")
	})
}

// validateSchema rejects schema path values that are not plain identifiers
func validateSchema(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ValidateIdentifier(chi.URLParam(r, "schema")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
