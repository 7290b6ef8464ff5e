package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"frontdesk/internal/settings/service"
	apperrors "frontdesk/pkg/errors"
	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// WebhookTester delivers the booking webhook for one appointment on demand.
type WebhookTester interface {
	Deliver(ctx context.Context, appointmentID string) error
}

type SettingsHandler struct {
	service service.SettingsService
	webhook WebhookTester
	log     *logger.Logger
}

func NewSettingsHandler(service service.SettingsService, webhook WebhookTester, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		webhook: webhook,
		log:     log,
	}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SettingsHandler) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	settings, err := h.service.Refresh(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Refresh", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "Refresh", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())

	var update model.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	settings, err := h.service.Update(r.Context(), actor, &update)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, settings); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// TestWebhook delivers the webhook for an appointment right away. Admin only.
func (h *SettingsHandler) TestWebhook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())
	if !actor.IsAdmin() {
		if writeErr := httputil.WriteError(w, apperrors.Forbidden("Only admins can test the webhook")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "TestWebhook", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.webhook.Deliver(r.Context(), ps.ByName("appointment_id")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "TestWebhook", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write no content response", "handler", "TestWebhook", "operation", "WriteNoContent", "error", err)
	}
}

func (h *SettingsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/settings", h.Get)
	router.PATCH("/api/v1/settings", h.Update)
	router.POST("/api/v1/settings/refresh", h.Refresh)
	router.POST("/api/v1/settings/webhook/test/:appointment_id", h.TestWebhook)
}
