package presence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"frontdesk/pkg/config"
	"frontdesk/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

type fakePubSub struct {
	published []Update
	channels  []string
	err       error
}

func (f *fakePubSub) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var u Update
	_ = json.Unmarshal(message.([]byte), &u)
	f.published = append(f.published, u)
	f.channels = append(f.channels, channel)
	return redis.NewIntResult(1, nil)
}

func (f *fakePubSub) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return nil
}

func newTestBroadcaster(rdb PubSub) (*Broadcaster, *Tracker) {
	tracker := NewTracker(StaleAfter)
	cfg := &config.Config{PresenceChannel: "online-users", Log: logger.Discard()}
	return NewBroadcaster(rdb, tracker, cfg), tracker
}

func TestBroadcaster_JoinLeave(t *testing.T) {
	rdb := &fakePubSub{}
	b, tracker := newTestBroadcaster(rdb)
	ctx := context.Background()

	if err := b.Join(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Join(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rdb.published) != 2 || rdb.published[0].Type != UpdateJoin || rdb.channels[0] != "online-users" {
		t.Fatalf("expected one join per session, got %+v", rdb.published)
	}

	if err := b.Leave(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rdb.published) != 2 || !tracker.Online("a") {
		t.Error("expected the actor to stay online while another session is open")
	}

	if err := b.Leave(ctx, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rdb.published) != 3 || rdb.published[2].Type != UpdateLeave {
		t.Errorf("expected a leave after the last session, got %+v", rdb.published)
	}
	if tracker.Online("a") {
		t.Error("expected the actor to be offline")
	}

	if err := b.Leave(ctx, "a"); err != nil || len(rdb.published) != 3 {
		t.Errorf("expected an unknown leave to be ignored, got %v", err)
	}
}

func TestBroadcaster_PublishError(t *testing.T) {
	b, _ := newTestBroadcaster(&fakePubSub{err: errors.New("connection refused")})
	if err := b.Join(context.Background(), "a"); err == nil {
		t.Error("expected the publish error to propagate")
	}
}

func TestBroadcaster_HandleRemoteUpdates(t *testing.T) {
	b, tracker := newTestBroadcaster(&fakePubSub{})

	remote, _ := json.Marshal(Update{Type: UpdateSync, Instance: "other", Members: []string{"x", "y"}, At: time.Now()})
	b.handle(string(remote))
	b.handle("not json")

	own, _ := json.Marshal(Update{Type: UpdateJoin, Instance: b.instance, ActorID: "ghost"})
	b.handle(string(own))

	if got := tracker.Members(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("expected remote members only, got %v", got)
	}
}

func TestBroadcaster_SyncCarriesSnapshot(t *testing.T) {
	rdb := &fakePubSub{}
	b, _ := newTestBroadcaster(rdb)
	ctx := context.Background()
	_ = b.Join(ctx, "b")
	_ = b.Join(ctx, "a")

	if err := b.sync(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := rdb.published[len(rdb.published)-1]
	if last.Type != UpdateSync || !slices.Equal(last.Members, []string{"a", "b"}) || last.Instance != b.instance {
		t.Errorf("unexpected sync update: %+v", last)
	}
}

func TestPresenceHandler(t *testing.T) {
	tracker := NewTracker(time.Minute)
	tracker.Apply(Update{Type: UpdateJoin, Instance: "i1", ActorID: "a"})

	router := httprouter.New()
	NewPresenceHandler(tracker, logger.Discard()).RegisterRoutes(router)

	for path, want := range map[string]string{
		"/api/v1/presence":   `"a"`,
		"/api/v1/presence/a": `"online":true`,
		"/api/v1/presence/z": `"online":false`,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), want) {
			t.Errorf("%s: expected 200 containing %s, got %d %s", path, want, w.Code, w.Body.String())
		}
	}
}
