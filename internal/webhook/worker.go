package webhook

import (
	"context"

	"frontdesk/internal/events"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/kafka"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

// BookingHandler consumes appointment events and delivers the webhook once for
// every appointment a receptionist saved. Delivery failures are not retried;
// they go to the DLQ for inspection. Store outages are retried by the consumer.
func BookingHandler(deliverer Sender, log *logger.Logger) kafka.MessageHandler {
	log = log.Component("webhook-worker")

	return func(ctx context.Context, msg kafka.Message) error {
		event, err := events.Decode(msg)
		if err != nil {
			return err
		}
		if !receptionistSave(event) {
			return nil
		}

		err = deliverer.Deliver(ctx, event.AppointmentID)
		switch {
		case err == nil:
			return nil
		case apperrors.HasCode(err, apperrors.CodeStoreUnavailable):
			return kafka.NewTransientError("webhook store lookup failed", err)
		case apperrors.HasCode(err, apperrors.CodeNotFound):
			log.Info("Appointment gone before webhook delivery", "appointment_id", event.AppointmentID)
			return nil
		default:
			return kafka.NewPermanentError("webhook delivery failed", err)
		}
	}
}

func receptionistSave(event *model.AppointmentEvent) bool {
	if event.ActorRole != model.RoleReceptionist {
		return false
	}
	return event.Type == model.EventAppointmentBooked || event.Type == model.EventAppointmentUpdated
}
