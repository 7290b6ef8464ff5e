// Package live merges the change feed and an actor's own writes into one
// ordered, duplicate-free stream of UI events pushed over a websocket.
package live

import (
	"time"

	"frontdesk/pkg/model"
)

const (
	KindMessage      = "message"
	KindNotification = "notification"
)

// Surface names the screen the actor is looking at.
const (
	SurfaceChat  = "chat"
	SurfaceOther = "other"
)

// Event is one entry of a live view. ID is the store id; TempKey is set
// instead while an optimistic local insert awaits confirmation.
type Event struct {
	Kind         string              `json:"kind"`
	ID           string              `json:"id,omitempty"`
	TempKey      string              `json:"temp_key,omitempty"`
	Message      *model.Message      `json:"message,omitempty"`
	Notification *model.Notification `json:"notification,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func MessageEvent(m *model.Message) Event {
	return Event{Kind: KindMessage, ID: m.ID, Message: m, CreatedAt: m.CreatedAt}
}

func NotificationEvent(n *model.Notification) Event {
	return Event{Kind: KindNotification, ID: n.ID, Notification: n, CreatedAt: n.CreatedAt}
}

// key is the identity of e inside a view.
func (e Event) key() string {
	if e.ID != "" {
		return e.Kind + ":" + e.ID
	}
	return "local:" + e.TempKey
}
