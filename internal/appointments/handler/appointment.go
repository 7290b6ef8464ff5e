package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"frontdesk/internal/appointments/service"
	apperrors "frontdesk/pkg/errors"
	httputil "frontdesk/pkg/http"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
	loc     *time.Location
	now     func() time.Time
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
		loc:     time.Local,
		now:     time.Now,
	}
}

type activeResponse struct {
	HostID      string             `json:"host_id"`
	Busy        bool               `json:"busy"`
	Appointment *model.Appointment `json:"appointment,omitempty"`
}

type conflictResponse struct {
	Conflicting   bool   `json:"conflicting"`
	ConflictingID string `json:"conflicting_id,omitempty"`
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())

	var appointment model.Appointment
	if err := json.NewDecoder(r.Body).Decode(&appointment); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Book(r.Context(), actor, &appointment); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	appointment, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Edit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())
	id := ps.ByName("id")

	var update model.AppointmentUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Edit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	appointment, err := h.service.Edit(r.Context(), actor, id, &update)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Edit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Edit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, _ := middleware.ActorFrom(r.Context())
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write no content response", "handler", "Delete", "operation", "WriteNoContent", "error", err)
	}
}

// ListByHost serves a host's agenda. Either ?date=YYYY-MM-DD (default today)
// or an explicit ?from=&to= RFC3339 range.
func (h *AppointmentHandler) ListByHost(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID := ps.ByName("host_id")

	from, to, err := httputil.ExtractDay(r, h.now(), h.loc)
	if err == nil {
		from, err = httputil.ExtractTime(r, "from", from)
	}
	if err == nil {
		to, err = httputil.ExtractTime(r, "to", to)
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByHost", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	appointments, err := h.service.ListByHost(r.Context(), hostID, from, to)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByHost", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, appointments, len(appointments)); err != nil {
		h.log.Error("failed to write list response", "handler", "ListByHost", "operation", "WriteList", "error", err)
	}
}

func (h *AppointmentHandler) Active(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID := ps.ByName("host_id")

	appointment, err := h.service.ActiveForHost(r.Context(), hostID, h.now())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Active", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp := activeResponse{HostID: hostID, Busy: appointment != nil, Appointment: appointment}
	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Active", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) CheckConflict(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hostID := ps.ByName("host_id")

	start, err := httputil.ExtractTime(r, "start", time.Time{})
	var end time.Time
	if err == nil {
		end, err = httputil.ExtractTime(r, "end", time.Time{})
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CheckConflict", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	check, err := h.service.CheckConflict(r.Context(), hostID, start, end, r.URL.Query().Get("exclude_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CheckConflict", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp := conflictResponse{Conflicting: check.Conflicting, ConflictingID: check.ConflictingID}
	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckConflict", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.GET("/api/v1/appointments/:id", h.GetByID)
	router.PATCH("/api/v1/appointments/:id", h.Edit)
	router.DELETE("/api/v1/appointments/:id", h.Delete)
	router.GET("/api/v1/hosts/:host_id/appointments", h.ListByHost)
	router.GET("/api/v1/hosts/:host_id/active", h.Active)
	router.GET("/api/v1/hosts/:host_id/conflicts", h.CheckConflict)
}
