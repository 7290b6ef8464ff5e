package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"frontdesk/pkg/config"
	"frontdesk/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SyncPeriod = 30 * time.Second
	StaleAfter = 3 * SyncPeriod
)

// PubSub is the part of the Redis client the broadcaster uses.
type PubSub interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Broadcaster announces this instance's sessions on the presence channel and
// feeds every instance's announcements into the Tracker.
type Broadcaster struct {
	rdb      PubSub
	channel  string
	instance string
	tracker  *Tracker
	log      *logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	local map[string]int
}

func NewBroadcaster(rdb PubSub, tracker *Tracker, cfg *config.Config) *Broadcaster {
	return &Broadcaster{
		rdb:      rdb,
		channel:  cfg.PresenceChannel,
		instance: uuid.NewString(),
		tracker:  tracker,
		log:      cfg.Log.Component("presence"),
		now:      time.Now,
		local:    make(map[string]int),
	}
}

func (b *Broadcaster) Name() string {
	return "presence"
}

// Join records one more session for actorID and broadcasts a join.
func (b *Broadcaster) Join(ctx context.Context, actorID string) error {
	b.mu.Lock()
	b.local[actorID]++
	b.mu.Unlock()

	return b.announce(ctx, Update{Type: UpdateJoin, ActorID: actorID})
}

// Leave drops one session for actorID. The leave is broadcast once the
// actor's last session on this instance is gone.
func (b *Broadcaster) Leave(ctx context.Context, actorID string) error {
	b.mu.Lock()
	n, ok := b.local[actorID]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	if n > 1 {
		b.local[actorID] = n - 1
		b.mu.Unlock()
		return nil
	}
	delete(b.local, actorID)
	b.mu.Unlock()

	return b.announce(ctx, Update{Type: UpdateLeave, ActorID: actorID})
}

// Snapshot lists the actors with a session on this instance.
func (b *Broadcaster) Snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.local))
	for id := range b.local {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (b *Broadcaster) sync(ctx context.Context) error {
	return b.announce(ctx, Update{Type: UpdateSync, Members: b.Snapshot()})
}

func (b *Broadcaster) announce(ctx context.Context, u Update) error {
	u.Instance = b.instance
	u.At = b.now().UTC()
	b.tracker.Apply(u)

	payload, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode presence update: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish presence %s: %w", u.Type, err)
	}
	return nil
}

// Run listens on the presence channel and re-broadcasts this instance's
// snapshot every SyncPeriod until ctx ends.
func (b *Broadcaster) Run(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			b.log.Warn("Failed to close presence subscription", "error", err)
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.log.Info("Presence subscribed", "channel", b.channel, "instance", b.instance)

	if err := b.sync(ctx); err != nil {
		b.log.Warn("Presence sync failed", "error", err)
	}

	ticker := time.NewTicker(SyncPeriod)
	defer ticker.Stop()
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.tracker.Expire()
			if err := b.sync(ctx); err != nil {
				b.log.Warn("Presence sync failed", "error", err)
			}
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("presence channel %s closed", b.channel)
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *Broadcaster) handle(payload string) {
	var u Update
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		b.log.Warn("Ignoring malformed presence update", "error", err)
		return
	}
	if u.Instance == b.instance || u.Instance == "" {
		return
	}
	b.tracker.Apply(u)
}
