package presence

import (
	"net/http"

	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type PresenceHandler struct {
	tracker *Tracker
	log     *logger.Logger
}

func NewPresenceHandler(tracker *Tracker, log *logger.Logger) *PresenceHandler {
	return &PresenceHandler{tracker: tracker, log: log}
}

type onlineResponse struct {
	ActorID string `json:"actor_id"`
	Online  bool   `json:"online"`
}

func (h *PresenceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	members := h.tracker.Members()
	if err := httputil.WriteList(w, members, len(members)); err != nil {
		h.log.Error("failed to write list response", "handler", "List", "operation", "WriteList", "error", err)
	}
}

func (h *PresenceHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actorID := ps.ByName("actor_id")
	resp := onlineResponse{ActorID: actorID, Online: h.tracker.Online(actorID)}
	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PresenceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/presence", h.List)
	router.GET("/api/v1/presence/:actor_id", h.Get)
}
