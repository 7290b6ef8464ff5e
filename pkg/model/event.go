package model

import "time"

const (
	EventAppointmentBooked   = "appointment.booked"
	EventAppointmentUpdated  = "appointment.updated"
	EventAppointmentDeleted  = "appointment.deleted"
	EventAppointmentStarted  = "appointment.started"
	EventAppointmentEnded    = "appointment.ended"
	EventAppointmentReminded = "appointment.reminded"
)

// AppointmentEvent is published on the appointment events topic, keyed by host id.
type AppointmentEvent struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	AppointmentID string       `json:"appointment_id"`
	HostID        string       `json:"host_id"`
	ActorID       string       `json:"actor_id,omitempty"`
	ActorRole     string       `json:"actor_role,omitempty"`
	Appointment   *Appointment `json:"appointment,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}
