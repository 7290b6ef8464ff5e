// Package webhook builds and posts the outbound appointment webhook.
package webhook

import (
	"slices"
	"time"

	"frontdesk/pkg/model"
	"frontdesk/pkg/sanitizer"
)

// Field labels an admin can select in app_settings.webhook_fields. They are
// stored as shown in the back office and matched exactly.
const (
	FieldVisitDate  = "Data da Visita"
	FieldGuestName  = "Nome do Visitante"
	FieldHostName   = "Nome do Funcionário"
	FieldHostEmail  = "Email do Funcionário"
	FieldHostPhone  = "Telefone do Funcionário"
	FieldVisitType  = "Tipo de Visita"
	FieldVisitNotes = "Observações"
)

// Payload keys as received by the webhook consumer.
const (
	KeyAppointmentDate  = "appointment_date"
	KeyAppointmentTime  = "appointment_time"
	KeyGuestName        = "guest_name"
	KeyHostName         = "host_name"
	KeyHostEmail        = "host_email"
	KeyHostPhone        = "host_phone"
	KeyAppointmentType  = "appointment_type"
	KeyNotes            = "notes"
	KeyAppointmentTitle = "appointment_title"
)

const (
	dateLayout = "02-01-2006"
	timeLayout = "15:04"
)

// AllFields lists every selectable label.
var AllFields = []string{
	FieldVisitDate, FieldGuestName, FieldHostName, FieldHostEmail,
	FieldHostPhone, FieldVisitType, FieldVisitNotes,
}

// BuildPayload returns the keys selected by fields plus the title, which is
// always present. Selected values that are empty are sent as null. host may
// be nil when the host is no longer in the directory.
func BuildPayload(fields []string, appointment *model.Appointment, host *model.Employee, loc *time.Location) map[string]any {
	payload := map[string]any{}
	has := func(label string) bool { return slices.Contains(fields, label) }

	if has(FieldVisitDate) {
		start := appointment.StartTime.In(loc)
		payload[KeyAppointmentDate] = start.Format(dateLayout)
		payload[KeyAppointmentTime] = start.Format(timeLayout)
	}
	if has(FieldGuestName) {
		payload[KeyGuestName] = nullable(appointment.GuestName)
	}
	if has(FieldHostName) {
		payload[KeyHostName] = hostValue(host, func(e *model.Employee) string { return e.FullName })
	}
	if has(FieldHostEmail) {
		payload[KeyHostEmail] = hostValue(host, func(e *model.Employee) string { return e.Email })
	}
	if has(FieldHostPhone) {
		payload[KeyHostPhone] = hostValue(host, func(e *model.Employee) string { return sanitizer.NormalizePhone(e.Phone) })
	}
	if has(FieldVisitType) {
		payload[KeyAppointmentType] = nullable(appointment.Type)
	}
	if has(FieldVisitNotes) {
		payload[KeyNotes] = nullable(appointment.Description)
	}

	payload[KeyAppointmentTitle] = appointment.Title
	return payload
}

func hostValue(host *model.Employee, get func(*model.Employee) string) any {
	if host == nil {
		return nil
	}
	return nullable(get(host))
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
