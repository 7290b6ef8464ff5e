// Package reminders fires the outbound webhook once per appointment shortly
// before it starts.
package reminders

import (
	"context"
	"time"

	"frontdesk/internal/watcher"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"

	"github.com/google/uuid"
)

type AppointmentFinder interface {
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

// Sender delivers the webhook for one appointment.
type Sender interface {
	Deliver(ctx context.Context, appointmentID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event *model.AppointmentEvent) error
}

// Dispatcher sweeps [now+minLead, now+maxLead] every period. Each appointment
// is marked reminded before delivery, and a failed delivery is not retried.
// A window wider than the period guarantees every start is seen by a sweep.
type Dispatcher struct {
	appointments AppointmentFinder
	ledger       watcher.Ledger
	sender       Sender
	events       EventPublisher
	period       time.Duration
	minLead      time.Duration
	maxLead      time.Duration
	log          *logger.Logger
	now          func() time.Time
}

func NewDispatcher(
	appointments AppointmentFinder,
	ledger watcher.Ledger,
	sender Sender,
	events EventPublisher,
	cfg *config.Config,
) *Dispatcher {
	return &Dispatcher{
		appointments: appointments,
		ledger:       ledger,
		sender:       sender,
		events:       events,
		period:       cfg.ReminderPeriod,
		minLead:      cfg.ReminderMinLead,
		maxLead:      cfg.ReminderMaxLead,
		log:          cfg.Log.Component("reminder-dispatcher"),
		now:          time.Now,
	}
}

func (d *Dispatcher) Name() string {
	return "reminder-dispatcher"
}

func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		if _, err := d.Sweep(ctx); err != nil {
			d.log.Error("Reminder sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep reminds every appointment starting inside the lead window that was not
// reminded before. It returns the number of deliveries attempted.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	now := d.now()
	defer d.ledger.Trim()

	upcoming, err := d.appointments.FindStartingBetween(ctx, now.Add(d.minLead), now.Add(d.maxLead))
	if err != nil {
		return 0, apperrors.StoreUnavailable("upcoming appointments", err)
	}

	attempted := 0
	for _, appointment := range upcoming {
		claimed, err := d.ledger.Claim(ctx, watcher.KindReminded, appointment.ID, now)
		if err != nil {
			d.log.Error("Failed to mark appointment reminded", "appointment_id", appointment.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		attempted++
		if err := d.sender.Deliver(ctx, appointment.ID); err != nil {
			d.log.Warn("Reminder delivery failed", "appointment_id", appointment.ID, "error", err)
			continue
		}
		d.log.Info("Reminder delivered", "appointment_id", appointment.ID, "start_time", appointment.StartTime)

		event := &model.AppointmentEvent{
			ID:            uuid.NewString(),
			Type:          model.EventAppointmentReminded,
			AppointmentID: appointment.ID,
			HostID:        appointment.HostID,
			OccurredAt:    now.UTC(),
		}
		if err := d.events.Publish(ctx, event); err != nil {
			d.log.Warn("Failed to publish reminder event", "appointment_id", appointment.ID, "error", err)
		}
	}
	return attempted, nil
}
