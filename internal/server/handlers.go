package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/formatter"
	"github.com/tordrt/ddldump/internal/logger"
	"github.com/tordrt/ddldump/internal/schema"
)

// kindResponse is the body of GET /schemas/{schema}/ddl/{kind}
type kindResponse struct {
	Schema     string   `json:"schema"`
	Kind       string   `json:"kind"`
	Statements []string `json:"statements"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).ErrorWith("health check failed", err, nil)
		writeError(w, http.StatusServiceUnavailable, "database unavailable", errs.KindOf(err).String())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, "ok")
}

func (s *Server) dump(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "schema")

	kinds, err := schema.ParseKinds(r.URL.Query().Get("kinds"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatter.FormatSQL
	}
	if !formatter.ValidFormat(format) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", format), "")
		return
	}

	d, err := s.catalog.Extract(ctx, name, kinds)
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}

	body, err := formatter.Render(d, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	if format == formatter.FormatMarkdown {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/sql; charset=utf-8")
	}
	_, _ = w.Write(body)
}

func (s *Server) kind(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "schema")
	kind := schema.Kind(chi.URLParam(r, "kind"))

	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown object kind: %q", kind), "")
		return
	}
	if !s.catalog.Supports(kind) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s does not support %s", s.catalog.Dialect(), kind), "")
		return
	}

	stmts, err := s.catalog.Fetch(r.Context(), name, kind)
	if err != nil {
		s.writeFetchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, kindResponse{Schema: name, Kind: string(kind), Statements: stmts})
}

// writeFetchError maps a catalog error: caller mistakes are 400, a timeout
// of the request itself is 504, everything the database reports is 502
func (s *Server) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	logger.FromContext(r.Context()).ErrorWith("fetch failed", err, map[string]interface{}{
		"error_kind": kind.String(),
	})

	status := http.StatusBadGateway
	switch kind {
	case errs.ErrKindInvalidInput:
		status = http.StatusBadRequest
	case errs.ErrKindTimeout:
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, err.Error(), kind.String())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}
