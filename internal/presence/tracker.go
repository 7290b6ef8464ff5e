// Package presence tracks which actors have a live session, from snapshots
// broadcast by every gateway instance over Redis pub/sub.
package presence

import (
	"slices"
	"sync"
	"time"
)

const (
	UpdateJoin  = "join"
	UpdateLeave = "leave"
	UpdateSync  = "sync"
)

// Update is one presence broadcast. Sync carries the sender's full member
// list and replaces whatever was known about that instance.
type Update struct {
	Type     string    `json:"type"`
	Instance string    `json:"instance"`
	ActorID  string    `json:"actor_id,omitempty"`
	Members  []string  `json:"members,omitempty"`
	At       time.Time `json:"at"`
}

type instanceState struct {
	members map[string]struct{}
	seen    time.Time
}

// Tracker derives membership purely from the latest state of each instance.
// Instances silent for longer than staleAfter are forgotten.
type Tracker struct {
	mu         sync.RWMutex
	instances  map[string]*instanceState
	staleAfter time.Duration
	onChange   func(members []string)
	now        func() time.Time
}

func NewTracker(staleAfter time.Duration) *Tracker {
	return &Tracker{
		instances:  make(map[string]*instanceState),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// OnChange registers fn to receive the member list whenever it changes.
func (t *Tracker) OnChange(fn func(members []string)) {
	t.onChange = fn
}

func (t *Tracker) Apply(u Update) {
	t.mu.Lock()
	before := t.membersLocked()

	state, ok := t.instances[u.Instance]
	if !ok {
		state = &instanceState{members: make(map[string]struct{})}
		t.instances[u.Instance] = state
	}
	state.seen = t.now()

	switch u.Type {
	case UpdateJoin:
		state.members[u.ActorID] = struct{}{}
	case UpdateLeave:
		delete(state.members, u.ActorID)
	case UpdateSync:
		state.members = make(map[string]struct{}, len(u.Members))
		for _, id := range u.Members {
			state.members[id] = struct{}{}
		}
	}
	t.expireLocked()

	after := t.membersLocked()
	t.mu.Unlock()

	if t.onChange != nil && !slices.Equal(before, after) {
		t.onChange(after)
	}
}

// Expire forgets silent instances.
func (t *Tracker) Expire() {
	t.mu.Lock()
	before := t.membersLocked()
	t.expireLocked()
	after := t.membersLocked()
	t.mu.Unlock()

	if t.onChange != nil && !slices.Equal(before, after) {
		t.onChange(after)
	}
}

func (t *Tracker) expireLocked() {
	if t.staleAfter <= 0 {
		return
	}
	cutoff := t.now().Add(-t.staleAfter)
	for id, state := range t.instances {
		if state.seen.Before(cutoff) {
			delete(t.instances, id)
		}
	}
}

// Members returns the sorted, de-duplicated union of all instances.
func (t *Tracker) Members() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.membersLocked()
}

func (t *Tracker) Online(actorID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, state := range t.instances {
		if _, ok := state.members[actorID]; ok {
			return true
		}
	}
	return false
}

func (t *Tracker) membersLocked() []string {
	set := make(map[string]struct{})
	for _, state := range t.instances {
		for id := range state.members {
			set[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
