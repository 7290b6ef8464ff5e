package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"frontdesk/internal/watcher"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

type mockFinder struct {
	findStartingBetweenFunc func(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

func (m *mockFinder) FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return m.findStartingBetweenFunc(ctx, from, to)
}

func startingFrom(appointments ...*model.Appointment) *mockFinder {
	return &mockFinder{
		findStartingBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
			var out []*model.Appointment
			for _, a := range appointments {
				if !a.StartTime.Before(from) && !a.StartTime.After(to) {
					out = append(out, a)
				}
			}
			return out, nil
		},
	}
}

type mockSender struct {
	calls []string
	err   error
}

func (m *mockSender) Deliver(ctx context.Context, appointmentID string) error {
	m.calls = append(m.calls, appointmentID)
	return m.err
}

type mockPublisher struct {
	events []*model.AppointmentEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event *model.AppointmentEvent) error {
	m.events = append(m.events, event)
	return nil
}

func newTestDispatcher(finder AppointmentFinder, ledger watcher.Ledger, sender Sender, publisher EventPublisher) (*Dispatcher, *time.Time) {
	cfg := &config.Config{
		ReminderPeriod:  5 * time.Minute,
		ReminderMinLead: 25 * time.Minute,
		ReminderMaxLead: 35 * time.Minute,
		Log:             logger.Discard(),
	}
	d := NewDispatcher(finder, ledger, sender, publisher, cfg)
	clock := at(8, 0)
	d.now = func() time.Time { return clock }
	return d, &clock
}

func TestSweep_ExactlyOneReminder(t *testing.T) {
	appointment := &model.Appointment{ID: "apt-1", HostID: "host-h", StartTime: at(10, 0)}
	sender := &mockSender{}
	publisher := &mockPublisher{}
	d, clock := newTestDispatcher(startingFrom(appointment), watcher.NewMemoryLedger(100), sender, publisher)

	for *clock = at(9, 0); clock.Before(at(10, 0)); *clock = clock.Add(5 * time.Minute) {
		if _, err := d.Sweep(context.Background()); err != nil {
			t.Fatalf("sweep at %s failed: %v", clock.Format("15:04"), err)
		}
	}

	if len(sender.calls) != 1 {
		t.Fatalf("expected exactly one reminder, got %d", len(sender.calls))
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != model.EventAppointmentReminded {
		t.Errorf("expected one reminded event, got %+v", publisher.events)
	}
}

func TestSweep_LeadWindow(t *testing.T) {
	var gotFrom, gotTo time.Time
	finder := &mockFinder{
		findStartingBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	d, clock := newTestDispatcher(finder, watcher.NewMemoryLedger(100), &mockSender{}, &mockPublisher{})
	*clock = at(9, 30)

	if _, err := d.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotFrom.Equal(at(9, 55)) || !gotTo.Equal(at(10, 5)) {
		t.Errorf("expected window [09:55, 10:05], got [%s, %s]", gotFrom.Format("15:04"), gotTo.Format("15:04"))
	}
}

func TestSweep_FailedDeliveryIsNotRetried(t *testing.T) {
	appointment := &model.Appointment{ID: "apt-1", StartTime: at(10, 0)}
	sender := &mockSender{err: apperrors.DeliveryFailed("Webhook returned status 500", nil)}
	publisher := &mockPublisher{}
	d, clock := newTestDispatcher(startingFrom(appointment), watcher.NewMemoryLedger(100), sender, publisher)

	for _, now := range []time.Time{at(9, 30), at(9, 35)} {
		*clock = now
		if _, err := d.Sweep(context.Background()); err != nil {
			t.Fatalf("delivery failure must not fail the sweep, got %v", err)
		}
	}

	if len(sender.calls) != 1 {
		t.Errorf("expected a single delivery attempt, got %d", len(sender.calls))
	}
	if len(publisher.events) != 0 {
		t.Errorf("expected no reminded event for a failed delivery, got %d", len(publisher.events))
	}
}

func TestSweep_StoreUnavailable(t *testing.T) {
	finder := &mockFinder{
		findStartingBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
			return nil, errors.New("connection refused")
		},
	}
	sender := &mockSender{}
	d, _ := newTestDispatcher(finder, watcher.NewMemoryLedger(100), sender, &mockPublisher{})

	if _, err := d.Sweep(context.Background()); !apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
		t.Errorf("expected STORE_UNAVAILABLE, got %v", err)
	}
	if len(sender.calls) != 0 {
		t.Errorf("expected no deliveries, got %d", len(sender.calls))
	}
}

func TestSweep_MarksBeforeDelivering(t *testing.T) {
	appointment := &model.Appointment{ID: "apt-1", StartTime: at(10, 0)}
	ledger := watcher.NewMemoryLedger(100)
	sender := &mockSender{}
	d, clock := newTestDispatcher(startingFrom(appointment), ledger, sender, &mockPublisher{})
	*clock = at(9, 30)

	sender.err = errors.New("boom")
	attempted, err := d.Sweep(context.Background())
	if err != nil || attempted != 1 {
		t.Fatalf("expected one attempt, got %d, %v", attempted, err)
	}
	if claimed, _ := ledger.Claim(context.Background(), watcher.KindReminded, "apt-1", at(9, 31)); claimed {
		t.Error("expected the appointment to stay marked reminded after a failed delivery")
	}
}
