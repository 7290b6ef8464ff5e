package live

import (
	"context"
	"sync"
	"time"

	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

const defaultResubscribeDelay = 2 * time.Second

// Delivery types pushed to the client.
const (
	DeliveryEvent     = "event"
	DeliveryConfirmed = "confirmed"
	DeliveryDiscarded = "discarded"
)

type Delivery struct {
	Type               string `json:"type"`
	Event              Event  `json:"event"`
	Alert              bool   `json:"alert"`
	InOpenConversation bool   `json:"in_open_conversation"`
}

// Router owns the live view of one actor. It consumes the change feed,
// re-subscribes after a drop and backfills the gap from history, and merges
// in the actor's own optimistic writes.
type Router struct {
	actorID          string
	feed             ChangeFeed
	history          History
	view             *View
	window           time.Duration
	resubscribeDelay time.Duration
	deliver          func(Delivery)
	onSubscribed     func()
	log              *logger.Logger
	now              func() time.Time

	mu        sync.Mutex
	surface   string
	peerID    string
	lastSeen  time.Time
	startedAt time.Time
	joined    bool
}

func NewRouter(actorID string, feed ChangeFeed, history History, window time.Duration, deliver func(Delivery), log *logger.Logger) *Router {
	return &Router{
		actorID:          actorID,
		feed:             feed,
		history:          history,
		view:             NewView(),
		window:           window,
		resubscribeDelay: defaultResubscribeDelay,
		deliver:          deliver,
		log:              log.With("actor_id", actorID),
		now:              time.Now,
		surface:          SurfaceOther,
	}
}

// OnSubscribed registers fn to run once, after the first subscription opens.
func (r *Router) OnSubscribed(fn func()) {
	r.onSubscribed = fn
}

// Run keeps the subscription alive until ctx ends.
func (r *Router) Run(ctx context.Context) error {
	r.mu.Lock()
	r.startedAt = r.now()
	r.mu.Unlock()

	for {
		err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Warn("Change feed subscription dropped", "error", apperrors.SubscriptionDropped("change feed", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.resubscribeDelay):
		}
	}
}

func (r *Router) subscribe(ctx context.Context) error {
	since := r.resumePoint()

	stream, err := r.feed.Subscribe(ctx, r.actorID)
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(context.WithoutCancel(ctx)); err != nil {
			r.log.Warn("Failed to close change feed", "error", err)
		}
	}()

	r.mu.Lock()
	first := !r.joined
	r.joined = true
	r.mu.Unlock()

	if first {
		if r.onSubscribed != nil {
			r.onSubscribed()
		}
	} else {
		r.backfill(ctx, since)
	}

	for {
		event, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		r.Receive(event)
	}
}

func (r *Router) resumePoint() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.lastSeen
	if base.IsZero() {
		base = r.startedAt
	}
	return base.Add(-r.window)
}

// backfill replays what may have been missed while the feed was down.
// Replays already in the view are dropped by id.
func (r *Router) backfill(ctx context.Context, since time.Time) {
	messages, err := r.history.MessagesSince(ctx, r.actorID, since)
	if err != nil {
		r.log.Error("Failed to backfill messages", "since", since, "error", err)
	}
	for _, m := range messages {
		r.Receive(MessageEvent(m))
	}

	notifications, err := r.history.NotificationsSince(ctx, r.actorID, since)
	if err != nil {
		r.log.Error("Failed to backfill notifications", "since", since, "error", err)
	}
	for _, n := range notifications {
		r.Receive(NotificationEvent(n))
	}
	r.log.Info("Live view backfilled", "since", since, "messages", len(messages), "notifications", len(notifications))
}

// Receive adds a store-delivered event to the view and pushes it once.
func (r *Router) Receive(event Event) {
	if !r.view.Add(event) {
		return
	}

	r.mu.Lock()
	if event.CreatedAt.After(r.lastSeen) {
		r.lastSeen = event.CreatedAt
	}
	surface, peerID := r.surface, r.peerID
	r.mu.Unlock()

	d := Delivery{Type: DeliveryEvent, Event: event, Alert: true}
	if event.Kind == KindMessage {
		onChat := surface == SurfaceChat
		d.Alert = !onChat
		d.InOpenConversation = onChat && event.Message != nil && event.Message.SenderID == peerID
	}
	r.deliver(d)
}

// SetSurface records what the actor is looking at. peerID is the open
// conversation on the chat surface.
func (r *Router) SetSurface(surface, peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if surface != SurfaceChat {
		surface, peerID = SurfaceOther, ""
	}
	r.surface, r.peerID = surface, peerID
}

// AddLocal echoes an own message before the store has acknowledged it.
func (r *Router) AddLocal(message *model.Message) Event {
	event := r.view.AddLocal(MessageEvent(message))
	r.deliver(Delivery{Type: DeliveryEvent, Event: event})
	return event
}

// Confirm attaches the stored id and timestamp to a local echo.
func (r *Router) Confirm(tempKey string, stored *model.Message) {
	event, kept := r.view.Confirm(tempKey, stored)
	if kept {
		r.deliver(Delivery{Type: DeliveryConfirmed, Event: event})
		return
	}
	r.deliver(Delivery{Type: DeliveryDiscarded, Event: Event{Kind: KindMessage, ID: stored.ID, TempKey: tempKey}})
}

// Discard drops a local echo whose write failed.
func (r *Router) Discard(tempKey string) {
	r.view.Discard(tempKey)
	r.deliver(Delivery{Type: DeliveryDiscarded, Event: Event{Kind: KindMessage, TempKey: tempKey}})
}

func (r *Router) View() *View {
	return r.view
}
