package live

import (
	"context"
	"sync"
	"time"

	"frontdesk/pkg/model"
)

type fakeStream struct {
	events chan Event
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func (s *fakeStream) Next(ctx context.Context) (Event, error) {
	select {
	case e := <-s.events:
		return e, nil
	case err := <-s.errs:
		return Event{}, err
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (s *fakeStream) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// fakeFeed hands every opened stream to the test through opened.
type fakeFeed struct {
	opened chan *fakeStream
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{opened: make(chan *fakeStream, 4)}
}

func (f *fakeFeed) Subscribe(ctx context.Context, recipientID string) (Stream, error) {
	s := &fakeStream{events: make(chan Event), errs: make(chan error), closed: make(chan struct{})}
	f.opened <- s
	return s, nil
}

func (f *fakeFeed) next(t interface{ Fatal(...any) }) *fakeStream {
	select {
	case s := <-f.opened:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a subscription")
		return nil
	}
}

type fakeHistory struct {
	mu            sync.Mutex
	messages      []*model.Message
	notifications []*model.Notification
	since         []time.Time
}

func (h *fakeHistory) MessagesSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.since = append(h.since, since)
	return h.messages, nil
}

func (h *fakeHistory) NotificationsSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Notification, error) {
	return h.notifications, nil
}
