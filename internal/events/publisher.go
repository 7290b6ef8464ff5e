// Package events publishes appointment domain events on Kafka, keyed by host
// id so every event of one host lands on the same partition in order.
package events

import (
	"context"
	"fmt"

	"frontdesk/pkg/kafka"
	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"
)

type AppointmentPublisher struct {
	publisher kafka.Publisher
	source    string
}

func NewAppointmentPublisher(publisher kafka.Publisher, source string) *AppointmentPublisher {
	return &AppointmentPublisher{publisher: publisher, source: source}
}

func (p *AppointmentPublisher) Publish(ctx context.Context, event *model.AppointmentEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.HostID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}
	return p.publisher.Publish(ctx, msg)
}

// Decode reads an AppointmentEvent back from a consumed message.
func Decode(msg kafka.Message) (*model.AppointmentEvent, error) {
	var event model.AppointmentEvent
	if err := msg.DecodeValue(&event); err != nil {
		return nil, kafka.NewPermanentError("invalid appointment event", err)
	}
	if event.Type == "" {
		event.Type = msg.GetEventType()
	}
	return &event, nil
}
