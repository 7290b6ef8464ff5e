package handler

import (
	"net/http"

	"frontdesk/internal/notifications/service"
	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log,
	}
}

func (h *NotificationHandler) Latest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())

	notifications, err := h.service.Latest(r.Context(), actor)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Latest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, notifications, len(notifications)); err != nil {
		h.log.Error("failed to write list response", "handler", "Latest", "operation", "WriteList", "error", err)
	}
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())

	if err := h.service.MarkRead(r.Context(), actor, ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "MarkRead", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write no content response", "handler", "MarkRead", "operation", "WriteNoContent", "error", err)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications", h.Latest)
	router.POST("/api/v1/notifications/:id/read", h.MarkRead)
}
