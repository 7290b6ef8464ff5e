// Package watcher raises "started" and "ended" notifications exactly once per
// appointment boundary by sweeping a trailing time window on a fixed period.
package watcher

import (
	"context"
	"fmt"
	"time"

	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"

	"github.com/google/uuid"
)

const timeLayout = "15:04"

type AppointmentFinder interface {
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
	FindEndingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

type Notifier interface {
	NotifyReceptionists(ctx context.Context, template model.Notification) (int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event *model.AppointmentEvent) error
}

type Watcher struct {
	appointments AppointmentFinder
	ledger       Ledger
	notifier     Notifier
	events       EventPublisher
	period       time.Duration
	lookback     time.Duration
	log          *logger.Logger
	loc          *time.Location
	now          func() time.Time
}

func New(
	appointments AppointmentFinder,
	ledger Ledger,
	notifier Notifier,
	events EventPublisher,
	cfg *config.Config,
) *Watcher {
	return &Watcher{
		appointments: appointments,
		ledger:       ledger,
		notifier:     notifier,
		events:       events,
		period:       cfg.WatchPeriod,
		lookback:     cfg.WatchLookback,
		log:          cfg.Log.Component("lifecycle-watcher"),
		loc:          time.Local,
		now:          time.Now,
	}
}

func (w *Watcher) Name() string {
	return "lifecycle-watcher"
}

// Run sweeps immediately and then once per period until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		if err := w.Sweep(ctx); err != nil {
			w.log.Error("Lifecycle sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep handles every start and end boundary that fell inside [now-lookback, now].
func (w *Watcher) Sweep(ctx context.Context) error {
	now := w.now()
	from := now.Add(-w.lookback)
	defer w.ledger.Trim()

	starting, err := w.appointments.FindStartingBetween(ctx, from, now)
	if err != nil {
		return apperrors.StoreUnavailable("starting appointments", err)
	}
	for _, a := range starting {
		w.handle(ctx, KindStarted, a, now)
	}

	ending, err := w.appointments.FindEndingBetween(ctx, from, now)
	if err != nil {
		return apperrors.StoreUnavailable("ending appointments", err)
	}
	for _, a := range ending {
		w.handle(ctx, KindEnded, a, now)
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, kind Kind, appointment *model.Appointment, now time.Time) {
	claimed, err := w.ledger.Claim(ctx, kind, appointment.ID, now)
	if err != nil {
		w.log.Error("Failed to claim transition", "kind", kind, "appointment_id", appointment.ID, "error", err)
		return
	}
	if !claimed {
		return
	}

	count, err := w.notifier.NotifyReceptionists(ctx, w.notification(kind, appointment))
	if err != nil {
		w.log.Error("Failed to store transition notification", "kind", kind, "appointment_id", appointment.ID, "error", err)
		if releaseErr := w.ledger.Release(ctx, kind, appointment.ID); releaseErr != nil {
			w.log.Error("Failed to release transition claim", "kind", kind, "appointment_id", appointment.ID, "error", releaseErr)
		}
		return
	}
	w.log.Info("Appointment transition notified", "kind", kind, "appointment_id", appointment.ID, "recipients", count)

	event := &model.AppointmentEvent{
		ID:            uuid.NewString(),
		Type:          eventType(kind),
		AppointmentID: appointment.ID,
		HostID:        appointment.HostID,
		Appointment:   appointment,
		OccurredAt:    now.UTC(),
	}
	if err := w.events.Publish(ctx, event); err != nil {
		w.log.Warn("Failed to publish transition event", "kind", kind, "appointment_id", appointment.ID, "error", err)
	}
}

func (w *Watcher) notification(kind Kind, appointment *model.Appointment) model.Notification {
	n := model.Notification{
		Type:      model.NotificationAppointment,
		RelatedID: appointment.ID,
	}
	if kind == KindStarted {
		n.Title = "Meeting started"
		n.Content = fmt.Sprintf("\"%s\" started at %s", appointment.Title, appointment.StartTime.In(w.loc).Format(timeLayout))
	} else {
		n.Title = "Meeting ended"
		n.Content = fmt.Sprintf("\"%s\" ended at %s", appointment.Title, appointment.EndTime.In(w.loc).Format(timeLayout))
	}
	return n
}

func eventType(kind Kind) string {
	switch kind {
	case KindStarted:
		return model.EventAppointmentStarted
	case KindEnded:
		return model.EventAppointmentEnded
	default:
		return model.EventAppointmentReminded
	}
}
