package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"frontdesk/pkg/kafka"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"
)

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return m.err
}

func TestPublish_KeysByHostAndSetsHeaders(t *testing.T) {
	mock := &mockPublisher{}
	p := NewAppointmentPublisher(mock, "appointments-service")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	event := &model.AppointmentEvent{
		ID:            "evt-1",
		Type:          model.EventAppointmentBooked,
		AppointmentID: "apt-1",
		HostID:        "host-h",
		ActorRole:     model.RoleReceptionist,
		OccurredAt:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	if err := p.Publish(ctx, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(mock.published))
	}

	msg := mock.published[0]
	if msg.Key != "host-h" {
		t.Errorf("expected key host-h, got %q", msg.Key)
	}
	if msg.GetEventID() != "evt-1" || msg.GetEventType() != model.EventAppointmentBooked {
		t.Errorf("unexpected headers: %v", msg.Headers)
	}
	if msg.GetCorrelationID() != "req-42" {
		t.Errorf("expected correlation id from request, got %q", msg.GetCorrelationID())
	}

	decoded, err := Decode(msg)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.AppointmentID != "apt-1" || decoded.ActorRole != model.RoleReceptionist {
		t.Errorf("unexpected decoded event: %+v", decoded)
	}
}

func TestPublish_PropagatesError(t *testing.T) {
	mock := &mockPublisher{err: errors.New("broker down")}
	p := NewAppointmentPublisher(mock, "test")

	err := p.Publish(context.Background(), &model.AppointmentEvent{ID: "e", Type: model.EventAppointmentDeleted, HostID: "h"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDecode_InvalidPayloadIsPermanent(t *testing.T) {
	_, err := Decode(kafka.Message{Value: []byte("{broken")})
	if err == nil {
		t.Fatal("expected error")
	}
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("expected permanent error, got %v", kafka.ClassifyError(err))
	}
}
