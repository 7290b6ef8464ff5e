package model

import "time"

const (
	AppointmentInternal = "internal"
	AppointmentExternal = "external"
	AppointmentPersonal = "personal"
)

type Appointment struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	HostID      string    `json:"host_id" bson:"host_id" validate:"required,max=64"`
	CreatedBy   string    `json:"created_by" bson:"created_by" validate:"required,max=64"`
	Title       string    `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"max=2000"`
	StartTime   time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" bson:"end_time" validate:"required"`
	Type        string    `json:"type" bson:"type" validate:"required,oneof=internal external personal"`
	GuestName   string    `json:"guest_name,omitempty" bson:"guest_name,omitempty" validate:"max=200"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`

	// Lifecycle watermarks. Set once by the watcher and dispatcher.
	StartedNotifiedAt *time.Time `json:"-" bson:"started_notified_at,omitempty"`
	EndedNotifiedAt   *time.Time `json:"-" bson:"ended_notified_at,omitempty"`
	RemindedAt        *time.Time `json:"-" bson:"reminded_at,omitempty"`
}

// Overlaps reports whether a and the half-open interval [start, end) intersect.
// Touching endpoints do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndTime.After(start)
}

// ActiveAt reports whether t falls inside [StartTime, EndTime).
func (a *Appointment) ActiveAt(t time.Time) bool {
	return !t.Before(a.StartTime) && t.Before(a.EndTime)
}

type AppointmentUpdate struct {
	HostID      *string    `json:"host_id,omitempty" validate:"omitempty,max=64"`
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Type        *string    `json:"type,omitempty" validate:"omitempty,oneof=internal external personal"`
	GuestName   *string    `json:"guest_name,omitempty" validate:"omitempty,max=200"`
}

// Apply returns a copy of a with the non-nil fields of u overlaid.
func (u *AppointmentUpdate) Apply(a *Appointment) *Appointment {
	next := *a
	if u.HostID != nil {
		next.HostID = *u.HostID
	}
	if u.Title != nil {
		next.Title = *u.Title
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.StartTime != nil {
		next.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		next.EndTime = *u.EndTime
	}
	if u.Type != nil {
		next.Type = *u.Type
	}
	if u.GuestName != nil {
		next.GuestName = *u.GuestName
	}
	return &next
}
