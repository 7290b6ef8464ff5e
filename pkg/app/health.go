package app

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"
)

// Dependency is a backing service probed by /ready.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type HealthHandler struct {
	deps []Dependency
	log  *logger.Logger
}

func NewHealthHandler(log *logger.Logger, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		deps: deps,
		log:  log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Dependencies: make(map[string]string, len(h.deps))}
	for _, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Error("Dependency health check failed", "dependency", dep.Name, "error", err)
			resp.Dependencies[dep.Name] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[dep.Name] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
