package kafka

import (
	"math"
	"testing"
)

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("host-1").
		WithEventType("appointment.booked").
		WithValue(map[string]string{"appointment_id": "a1"}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Key != "host-1" {
		t.Errorf("expected key host-1, got %s", msg.Key)
	}
	if msg.GetEventID() == "" {
		t.Error("expected generated event id")
	}
	if msg.GetEventType() != "appointment.booked" {
		t.Errorf("unexpected event type %q", msg.GetEventType())
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil || decoded["appointment_id"] != "a1" {
		t.Errorf("unexpected decoded value %v (err %v)", decoded, err)
	}
}

func TestMessageBuilder_EncodingFailure(t *testing.T) {
	if _, err := NewMessage().WithKey("k").WithValue(math.Inf(1)).Build(); err == nil {
		t.Fatal("expected encoding error for +Inf")
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("expected retry count 12, got %d", got)
	}
}
