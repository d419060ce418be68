// Package server exposes the service over HTTP and MCP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lexandro/contexter/service"
)

const (
	// APIKeyHeader carries the caller's credential.
	APIKeyHeader = "X-API-Key"

	maxBodyBytes        = 1 << 20
	unauthorizedMessage = "Invalid or missing API key"
)

// Service is the contract the HTTP handlers are built on. *service.Service
// implements it.
type Service interface {
	ListProjects(ctx context.Context, credential string) ([]service.ProjectSummary, error)
	ProjectMetadata(ctx context.Context, credential, name string) (*service.ProjectMetadata, error)
	RunAggregation(ctx context.Context, credential, name string, subPaths []string) (*service.Aggregation, error)
}

type projectListResponse struct {
	Projects []service.ProjectSummary `json:"projects"`
}

type aggregationRequest struct {
	Paths []string `json:"paths"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	svc    Service
	logger *slog.Logger
}

// NewRouter builds the HTTP API:
//
//	GET  /health
//	GET  /api/v1/projects
//	GET  /api/v1/projects/{name}
//	POST /api/v1/projects/{name}
func NewRouter(svc Service, logger *slog.Logger) http.Handler {
	h := &handlers{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects", h.listProjects)
		r.Get("/projects/{name}", h.projectMetadata)
		r.Post("/projects/{name}", h.runAggregation)
	})
	return r
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context(), credential(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectListResponse{Projects: projects})
}

func (h *handlers) projectMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.ProjectMetadata(r.Context(), credential(r), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *handlers) runAggregation(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[aggregationRequest](w, r)
	if !ok {
		return
	}
	result, err := h.svc.RunAggregation(r.Context(), credential(r), chi.URLParam(r, "name"), req.Paths)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func credential(r *http.Request) string {
	return r.Header.Get(APIKeyHeader)
}

// writeServiceError maps service errors to status codes. Every
// authorization failure gets the same body.
func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, unauthorizedMessage)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		h.logger.Debug("request abandoned", "path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()))
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// readJSON decodes an optional JSON request body with a size limit. An empty
// body decodes to the zero value.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
