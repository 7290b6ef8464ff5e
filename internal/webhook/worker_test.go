package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"frontdesk/internal/events"
	"frontdesk/pkg/client"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/kafka"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

type capturePublisher struct {
	msg kafka.Message
}

func (c *capturePublisher) Publish(ctx context.Context, msg kafka.Message) error {
	c.msg = msg
	return nil
}

type stubSender struct {
	calls []string
	err   error
}

func (s *stubSender) Deliver(ctx context.Context, appointmentID string) error {
	s.calls = append(s.calls, appointmentID)
	return s.err
}

func eventMessage(t *testing.T, event *model.AppointmentEvent) kafka.Message {
	t.Helper()
	capture := &capturePublisher{}
	if err := events.NewAppointmentPublisher(capture, "test").Publish(context.Background(), event); err != nil {
		t.Fatalf("failed to build message: %v", err)
	}
	return capture.msg
}

func TestBookingHandler_Filtering(t *testing.T) {
	tests := []struct {
		name      string
		event     model.AppointmentEvent
		wantCalls int
	}{
		{"receptionist booking", model.AppointmentEvent{Type: model.EventAppointmentBooked, ActorRole: model.RoleReceptionist}, 1},
		{"receptionist edit", model.AppointmentEvent{Type: model.EventAppointmentUpdated, ActorRole: model.RoleReceptionist}, 1},
		{"employee booking", model.AppointmentEvent{Type: model.EventAppointmentBooked, ActorRole: model.RoleEmployee}, 0},
		{"receptionist delete", model.AppointmentEvent{Type: model.EventAppointmentDeleted, ActorRole: model.RoleReceptionist}, 0},
		{"lifecycle event", model.AppointmentEvent{Type: model.EventAppointmentStarted}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &stubSender{}
			handler := BookingHandler(sender, logger.Discard())

			event := tt.event
			event.ID = "evt-1"
			event.AppointmentID = "apt-1"
			event.HostID = "host-h"
			if err := handler(context.Background(), eventMessage(t, &event)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(sender.calls) != tt.wantCalls {
				t.Errorf("expected %d deliveries, got %d", tt.wantCalls, len(sender.calls))
			}
		})
	}
}

func TestBookingHandler_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantNil  bool
		wantType kafka.ErrorType
	}{
		{"delivery failed is not retried", apperrors.DeliveryFailed("500", nil), false, kafka.ErrorTypePermanent},
		{"store outage is retried", apperrors.StoreUnavailable("host lookup", errors.New("x")), false, kafka.ErrorTypeTransient},
		{"deleted appointment is dropped", apperrors.NotFoundWithID("Appointment", "apt-1"), true, kafka.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BookingHandler(&stubSender{err: tt.err}, logger.Discard())
			msg := eventMessage(t, &model.AppointmentEvent{
				ID: "evt-1", Type: model.EventAppointmentBooked, ActorRole: model.RoleReceptionist,
				AppointmentID: "apt-1", HostID: "host-h",
			})

			err := handler(context.Background(), msg)
			if tt.wantNil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if got := kafka.ClassifyError(err); got != tt.wantType {
				t.Errorf("expected error type %v, got %v", tt.wantType, got)
			}
		})
	}
}

func TestBookingHandler_DelivererLookupFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	outage := errors.New("server selection timeout")
	configured := &model.Settings{WebhookURL: server.URL}

	tests := []struct {
		name         string
		settings     *stubSettings
		appointments *stubAppointments
		employees    *stubEmployees
		wantNil      bool
		wantType     kafka.ErrorType
	}{
		{
			name:         "settings store outage is retried",
			settings:     &stubSettings{err: fmt.Errorf("failed to load settings: %w", outage)},
			appointments: &stubAppointments{appointment: testAppointment()},
			employees:    &stubEmployees{},
			wantType:     kafka.ErrorTypeTransient,
		},
		{
			name:         "appointment store outage is retried",
			settings:     &stubSettings{settings: configured},
			appointments: &stubAppointments{err: apperrors.Internal("Failed to get appointment", outage)},
			employees:    &stubEmployees{},
			wantType:     kafka.ErrorTypeTransient,
		},
		{
			name:         "host store outage is retried",
			settings:     &stubSettings{settings: configured},
			appointments: &stubAppointments{appointment: testAppointment()},
			employees:    &stubEmployees{err: outage},
			wantType:     kafka.ErrorTypeTransient,
		},
		{
			name:         "deleted appointment is dropped",
			settings:     &stubSettings{settings: configured},
			appointments: &stubAppointments{err: apperrors.NotFoundWithID("Appointment", "apt-1")},
			employees:    &stubEmployees{},
			wantNil:      true,
		},
		{
			name:         "delivered",
			settings:     &stubSettings{settings: configured},
			appointments: &stubAppointments{appointment: testAppointment()},
			employees:    &stubEmployees{},
			wantNil:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deliverer := NewDeliverer(tt.appointments, tt.employees, tt.settings, client.NewHttpClient(2*time.Second), logger.Discard())
			handler := BookingHandler(deliverer, logger.Discard())
			msg := eventMessage(t, &model.AppointmentEvent{
				ID: "evt-1", Type: model.EventAppointmentBooked, ActorRole: model.RoleReceptionist,
				AppointmentID: "apt-1", HostID: "emp-1",
			})

			err := handler(context.Background(), msg)
			if tt.wantNil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if got := kafka.ClassifyError(err); got != tt.wantType {
				t.Errorf("expected error type %v, got %v (%v)", tt.wantType, got, err)
			}
		})
	}
}
