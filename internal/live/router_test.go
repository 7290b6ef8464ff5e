package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

type recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
	signal     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 64)}
}

func (r *recorder) deliver(d Delivery) {
	r.mu.Lock()
	r.deliveries = append(r.deliveries, d)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) []Delivery {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		r.mu.Lock()
		got := len(r.deliveries)
		r.mu.Unlock()
		if got >= n {
			break
		}
		select {
		case <-r.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %d", n, got)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

func newTestRouter(feed ChangeFeed, history History, rec *recorder) *Router {
	r := NewRouter("actor-a", feed, history, 10*time.Minute, rec.deliver, logger.Discard())
	r.resubscribeDelay = time.Millisecond
	return r
}

func TestRouter_OwnEchoDeliveredOnce(t *testing.T) {
	tests := []struct {
		name      string
		feedFirst bool
		wantLast  string
	}{
		{"confirm before feed", false, DeliveryConfirmed},
		{"feed before confirm", true, DeliveryDiscarded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			r := newTestRouter(newFakeFeed(), &fakeHistory{}, rec)

			local := r.AddLocal(&model.Message{SenderID: "actor-a", RecipientID: "actor-a", Content: "note to self"})
			stored := MessageEvent(message("m1", "actor-a"))
			if tt.feedFirst {
				r.Receive(stored)
				r.Confirm(local.TempKey, stored.Message)
			} else {
				r.Confirm(local.TempKey, stored.Message)
				r.Receive(stored)
			}

			if r.View().Len() != 1 {
				t.Errorf("expected one entry in the view, got %d", r.View().Len())
			}
			deliveries := rec.wait(t, 1)
			last := deliveries[len(deliveries)-1]
			if tt.feedFirst {
				if last.Type != tt.wantLast || last.Event.TempKey != local.TempKey {
					t.Errorf("expected the local echo to be discarded, got %+v", last)
				}
			} else {
				if len(deliveries) != 2 || last.Type != tt.wantLast || last.Event.ID != "m1" {
					t.Errorf("expected echo then confirmation only, got %+v", deliveries)
				}
			}
		})
	}
}

func TestRouter_AlertSuppressionOnChat(t *testing.T) {
	tests := []struct {
		name       string
		surface    string
		peer       string
		event      Event
		wantAlert  bool
		wantInOpen bool
	}{
		{"message elsewhere alerts", SurfaceOther, "", MessageEvent(message("m1", "b")), true, false},
		{"message in open conversation", SurfaceChat, "b", MessageEvent(message("m2", "b")), false, true},
		{"message from another contact on chat", SurfaceChat, "c", MessageEvent(message("m3", "b")), false, false},
		{"notification on chat still alerts", SurfaceChat, "b", NotificationEvent(&model.Notification{ID: "n1"}), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder()
			r := newTestRouter(newFakeFeed(), &fakeHistory{}, rec)
			r.SetSurface(tt.surface, tt.peer)

			r.Receive(tt.event)

			d := rec.wait(t, 1)[0]
			if d.Alert != tt.wantAlert || d.InOpenConversation != tt.wantInOpen {
				t.Errorf("expected alert=%v in_open=%v, got alert=%v in_open=%v",
					tt.wantAlert, tt.wantInOpen, d.Alert, d.InOpenConversation)
			}
		})
	}
}

func TestRouter_ResubscribesAndBackfills(t *testing.T) {
	t1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	m1 := message("m1", "b")
	m1.CreatedAt = t1
	m2 := message("m2", "b")
	m2.CreatedAt = t1.Add(time.Minute)

	feed := newFakeFeed()
	history := &fakeHistory{messages: []*model.Message{m1, m2}}
	rec := newRecorder()
	r := newTestRouter(feed, history, rec)

	var joins int
	var joinsMu sync.Mutex
	r.OnSubscribed(func() {
		joinsMu.Lock()
		joins++
		joinsMu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	first := feed.next(t)
	first.events <- MessageEvent(m1)
	rec.wait(t, 1)

	first.errs <- errors.New("connection reset")
	<-first.closed

	second := feed.next(t)
	deliveries := rec.wait(t, 2)

	if len(deliveries) != 2 || deliveries[1].Event.ID != "m2" {
		t.Fatalf("expected backfill to add only m2, got %+v", deliveries)
	}
	history.mu.Lock()
	since := history.since
	history.mu.Unlock()
	if len(since) != 1 || !since[0].Equal(t1.Add(-10*time.Minute)) {
		t.Errorf("expected backfill from one window before the last event, got %v", since)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	select {
	case <-second.closed:
	case <-time.After(time.Second):
		t.Error("expected the subscription to be closed on teardown")
	}

	joinsMu.Lock()
	defer joinsMu.Unlock()
	if joins != 1 {
		t.Errorf("expected one join per session, got %d", joins)
	}
}
