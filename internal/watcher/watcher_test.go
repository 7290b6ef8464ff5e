package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appointmentserrors "frontdesk/internal/appointments/errors"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

type fakeFinder struct {
	appointments []*model.Appointment
	err          error
}

func (f *fakeFinder) FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return f.between(from, to, func(a *model.Appointment) time.Time { return a.StartTime })
}

func (f *fakeFinder) FindEndingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return f.between(from, to, func(a *model.Appointment) time.Time { return a.EndTime })
}

func (f *fakeFinder) between(from, to time.Time, field func(*model.Appointment) time.Time) ([]*model.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.Appointment
	for _, a := range f.appointments {
		t := field(a)
		if !t.Before(from) && !t.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []model.Notification
	failures int
}

func (n *recordingNotifier) NotifyReceptionists(ctx context.Context, template model.Notification) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failures > 0 {
		n.failures--
		return 0, apperrors.StoreUnavailable("notification insert", errors.New("write failed"))
	}
	n.sent = append(n.sent, template)
	return 2, nil
}

func (n *recordingNotifier) count(title string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, s := range n.sent {
		if s.Title == title {
			c++
		}
	}
	return c
}

type recordingPublisher struct {
	events []*model.AppointmentEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *model.AppointmentEvent) error {
	p.events = append(p.events, event)
	return nil
}

// fakeMarker mimics the conditional watermark update of the appointment store.
type fakeMarker struct {
	mu     sync.Mutex
	fields map[string]time.Time
	err    error
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{fields: map[string]time.Time{}}
}

func (m *fakeMarker) MarkOnce(ctx context.Context, id, field string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := id + "/" + field
	if _, ok := m.fields[key]; ok {
		return appointmentserrors.ErrAlreadyMarked
	}
	m.fields[key] = t
	return nil
}

func (m *fakeMarker) ClearMark(ctx context.Context, id, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fields, id+"/"+field)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		WatchPeriod:   time.Minute,
		WatchLookback: 5 * time.Minute,
		Log:           logger.Discard(),
	}
}

func newTestWatcher(finder AppointmentFinder, ledger Ledger, notifier Notifier, publisher EventPublisher) (*Watcher, *time.Time) {
	w := New(finder, ledger, notifier, publisher, testConfig())
	clock := at(9, 0)
	w.now = func() time.Time { return clock }
	w.loc = time.UTC
	return w, &clock
}

func ledgers() map[string]func() Ledger {
	return map[string]func() Ledger{
		"memory": func() Ledger { return NewMemoryLedger(100) },
		"store":  func() Ledger { return NewStoreLedger(newFakeMarker()) },
	}
}

func TestSweep_ExactlyOnePerBoundary(t *testing.T) {
	for name, newLedger := range ledgers() {
		t.Run(name, func(t *testing.T) {
			finder := &fakeFinder{appointments: []*model.Appointment{
				{ID: "apt-1", HostID: "host-h", Title: "Sync", StartTime: at(10, 0), EndTime: at(11, 0)},
			}}
			notifier := &recordingNotifier{}
			publisher := &recordingPublisher{}
			w, clock := newTestWatcher(finder, newLedger(), notifier, publisher)

			for *clock = at(9, 55); !clock.After(at(11, 10)); *clock = clock.Add(time.Minute) {
				if err := w.Sweep(context.Background()); err != nil {
					t.Fatalf("sweep at %s failed: %v", clock.Format("15:04"), err)
				}
				if clock.Equal(at(10, 7)) && notifier.count("Meeting started") != 1 {
					t.Fatalf("expected one started notification by 10:07, got %d", notifier.count("Meeting started"))
				}
			}

			if got := notifier.count("Meeting started"); got != 1 {
				t.Errorf("expected exactly one started notification, got %d", got)
			}
			if got := notifier.count("Meeting ended"); got != 1 {
				t.Errorf("expected exactly one ended notification, got %d", got)
			}
			if len(publisher.events) != 2 ||
				publisher.events[0].Type != model.EventAppointmentStarted ||
				publisher.events[1].Type != model.EventAppointmentEnded {
				t.Errorf("expected started then ended events, got %+v", publisher.events)
			}
		})
	}
}

func TestSweep_NotificationContent(t *testing.T) {
	finder := &fakeFinder{appointments: []*model.Appointment{
		{ID: "apt-1", Title: "Sync", StartTime: at(10, 0), EndTime: at(11, 0)},
	}}
	notifier := &recordingNotifier{}
	w, clock := newTestWatcher(finder, NewMemoryLedger(100), notifier, &recordingPublisher{})
	*clock = at(10, 1)

	if err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.sent))
	}
	got := notifier.sent[0]
	if got.Type != model.NotificationAppointment || got.RelatedID != "apt-1" || got.Content != `"Sync" started at 10:00` {
		t.Errorf("unexpected notification: %+v", got)
	}
}

func TestSweep_PersistFailureIsRetriedNextTick(t *testing.T) {
	for name, newLedger := range ledgers() {
		t.Run(name, func(t *testing.T) {
			finder := &fakeFinder{appointments: []*model.Appointment{
				{ID: "apt-1", StartTime: at(10, 0), EndTime: at(11, 0)},
			}}
			notifier := &recordingNotifier{failures: 1}
			w, clock := newTestWatcher(finder, newLedger(), notifier, &recordingPublisher{})

			*clock = at(10, 1)
			if err := w.Sweep(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if notifier.count("Meeting started") != 0 {
				t.Fatal("expected the failed notification not to be recorded")
			}

			*clock = at(10, 2)
			if err := w.Sweep(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := notifier.count("Meeting started"); got != 1 {
				t.Errorf("expected the next tick to deliver once, got %d", got)
			}
		})
	}
}

func TestSweep_StoreErrorSkipsTick(t *testing.T) {
	notifier := &recordingNotifier{}
	w, _ := newTestWatcher(&fakeFinder{err: errors.New("server selection timeout")}, NewMemoryLedger(100), notifier, &recordingPublisher{})

	err := w.Sweep(context.Background())
	if !apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
		t.Errorf("expected STORE_UNAVAILABLE, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifier.sent))
	}
}

func TestSweep_TrimmedLedgerCanRefire(t *testing.T) {
	var appointments []*model.Appointment
	for _, id := range []string{"a", "b", "c"} {
		appointments = append(appointments, &model.Appointment{ID: id, StartTime: at(10, 0), EndTime: at(12, 0)})
	}
	notifier := &recordingNotifier{}
	ledger := NewMemoryLedger(2)
	w, clock := newTestWatcher(&fakeFinder{appointments: appointments}, ledger, notifier, &recordingPublisher{})

	*clock = at(10, 1)
	if err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.Len(KindStarted) != 0 {
		t.Fatalf("expected the start set to be cleared past the bound, got %d keys", ledger.Len(KindStarted))
	}

	*clock = at(10, 2)
	if err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := notifier.count("Meeting started"); got != 6 {
		t.Errorf("expected trimmed keys to fire again, got %d notifications", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	finder := &fakeFinder{}
	w, _ := newTestWatcher(finder, NewMemoryLedger(100), &recordingNotifier{}, &recordingPublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
