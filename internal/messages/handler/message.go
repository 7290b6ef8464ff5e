package handler

import (
	"encoding/json"
	"net/http"

	"frontdesk/internal/messages/service"
	apperrors "frontdesk/pkg/errors"
	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type MessageHandler struct {
	service service.MessageService
	log     *logger.Logger
}

func NewMessageHandler(service service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		log:     log,
	}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())

	var message model.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Send", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Send(r.Context(), actor, &message); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Send", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, message); err != nil {
		h.log.Error("failed to write created response", "handler", "Send", "operation", "WriteCreated", "error", err)
	}
}

func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())

	messages, err := h.service.Conversation(r.Context(), actor, ps.ByName("peer_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Conversation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, messages, len(messages)); err != nil {
		h.log.Error("failed to write list response", "handler", "Conversation", "operation", "WriteList", "error", err)
	}
}

func (h *MessageHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/messages", h.Send)
	router.GET("/api/v1/conversations/:peer_id", h.Conversation)
}
