package webhook

import (
	"reflect"
	"testing"
	"time"

	"frontdesk/pkg/model"
)

func TestBuildPayload(t *testing.T) {
	appointment := &model.Appointment{
		ID:          "apt-1",
		Title:       "Partnership meeting",
		Description: "Bring the contract",
		StartTime:   time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC),
		Type:        model.AppointmentExternal,
		GuestName:   "Acme Corp",
	}
	host := &model.Employee{FullName: "Ana Costa", Email: "ana@example.com"}

	tests := []struct {
		name   string
		fields []string
		host   *model.Employee
		want   map[string]any
	}{
		{
			name:   "guest and type only",
			fields: []string{FieldGuestName, FieldVisitType},
			host:   host,
			want: map[string]any{
				KeyGuestName:        "Acme Corp",
				KeyAppointmentType:  "external",
				KeyAppointmentTitle: "Partnership meeting",
			},
		},
		{
			name:   "no fields keeps the title",
			fields: nil,
			host:   host,
			want:   map[string]any{KeyAppointmentTitle: "Partnership meeting"},
		},
		{
			name:   "visit date splits into date and time",
			fields: []string{FieldVisitDate},
			host:   host,
			want: map[string]any{
				KeyAppointmentDate:  "09-03-2026",
				KeyAppointmentTime:  "14:05",
				KeyAppointmentTitle: "Partnership meeting",
			},
		},
		{
			name:   "empty host phone is null",
			fields: []string{FieldHostName, FieldHostEmail, FieldHostPhone, FieldVisitNotes},
			host:   host,
			want: map[string]any{
				KeyHostName:         "Ana Costa",
				KeyHostEmail:        "ana@example.com",
				KeyHostPhone:        nil,
				KeyNotes:            "Bring the contract",
				KeyAppointmentTitle: "Partnership meeting",
			},
		},
		{
			name:   "host phone is sent as e164",
			fields: []string{FieldHostPhone},
			host:   &model.Employee{FullName: "Ana Costa", Phone: "(11) 98765-4321"},
			want: map[string]any{
				KeyHostPhone:        "+5511987654321",
				KeyAppointmentTitle: "Partnership meeting",
			},
		},
		{
			name:   "missing host",
			fields: []string{FieldHostName},
			host:   nil,
			want: map[string]any{
				KeyHostName:         nil,
				KeyAppointmentTitle: "Partnership meeting",
			},
		},
		{
			name:   "unknown labels ignored",
			fields: []string{"Visitor Name", "tipo de visita"},
			host:   host,
			want:   map[string]any{KeyAppointmentTitle: "Partnership meeting"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPayload(tt.fields, appointment, tt.host, time.UTC)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildPayload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildPayload_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	appointment := &model.Appointment{Title: "Late", StartTime: time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)}

	got := BuildPayload([]string{FieldVisitDate}, appointment, nil, loc)
	if got[KeyAppointmentDate] != "09-03-2026" || got[KeyAppointmentTime] != "22:30" {
		t.Errorf("expected local date and time, got %v", got)
	}
}
