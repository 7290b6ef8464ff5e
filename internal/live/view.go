package live

import (
	"sync"

	"github.com/google/uuid"

	"frontdesk/pkg/model"
)

// DefaultViewCapacity is the number of entries a view keeps per actor.
const DefaultViewCapacity = 500

// View is the append-only, id-keyed list of events shown to one actor. An
// event id enters the view at most once, whichever of the local insert and
// the change feed delivers it first. Once full, the oldest confirmed entry is
// evicted; its id is still remembered for a further capacity of evictions.
type View struct {
	mu       sync.Mutex
	capacity int
	entries  []Event
	index    map[string]int
	evicted  map[string]struct{}
	order    []string
}

func NewView() *View {
	return NewViewWithCapacity(DefaultViewCapacity)
}

func NewViewWithCapacity(capacity int) *View {
	if capacity <= 0 {
		capacity = DefaultViewCapacity
	}
	return &View{
		capacity: capacity,
		index:    make(map[string]int),
		evicted:  make(map[string]struct{}),
	}
}

// Add appends e unless its id is already present. It reports whether e was added.
func (v *View) Add(e Event) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	k := e.key()
	if v.seen(k) {
		return false
	}
	v.index[k] = len(v.entries)
	v.entries = append(v.entries, e)
	v.evict()
	return true
}

func (v *View) seen(k string) bool {
	if _, ok := v.index[k]; ok {
		return true
	}
	_, ok := v.evicted[k]
	return ok
}

// evict drops the oldest entries that carry a store id until the view fits.
// Unconfirmed local entries are never evicted.
func (v *View) evict() {
	for len(v.entries) > v.capacity {
		pos := -1
		for i, e := range v.entries {
			if e.ID != "" {
				pos = i
				break
			}
		}
		if pos < 0 {
			return
		}
		k := v.entries[pos].key()
		v.removeAt(pos)
		delete(v.index, k)
		v.remember(k)
	}
}

func (v *View) remember(k string) {
	v.evicted[k] = struct{}{}
	v.order = append(v.order, k)
	if len(v.order) > v.capacity {
		delete(v.evicted, v.order[0])
		v.order = v.order[1:]
	}
}

// AddLocal appends an unconfirmed own write under a fresh temp key and returns it.
func (v *View) AddLocal(e Event) Event {
	e.ID = ""
	e.TempKey = uuid.NewString()
	v.Add(e)
	return e
}

// Confirm replaces the local entry tempKey with the stored message, taking
// its id and creation time. When the change feed already delivered the id,
// the local entry is dropped instead and Confirm returns false.
func (v *View) Confirm(tempKey string, stored *model.Message) (Event, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	local := "local:" + tempKey
	pos, ok := v.index[local]
	if !ok {
		return Event{}, false
	}
	e := v.entries[pos]
	e.ID = stored.ID
	e.TempKey = ""
	if !stored.CreatedAt.IsZero() {
		e.CreatedAt = stored.CreatedAt
	}
	if e.Message != nil {
		m := *e.Message
		m.ID = stored.ID
		m.CreatedAt = e.CreatedAt
		e.Message = &m
	}

	if v.seen(e.key()) {
		v.removeAt(pos)
		delete(v.index, local)
		return e, false
	}

	e.TempKey = tempKey
	v.entries[pos] = e
	delete(v.index, local)
	v.index[e.key()] = pos
	return e, true
}

// Discard removes a local entry whose write failed.
func (v *View) Discard(tempKey string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	local := "local:" + tempKey
	if pos, ok := v.index[local]; ok {
		v.removeAt(pos)
		delete(v.index, local)
	}
}

func (v *View) removeAt(pos int) {
	v.entries = append(v.entries[:pos], v.entries[pos+1:]...)
	for k, i := range v.index {
		if i > pos {
			v.index[k] = i - 1
		}
	}
}

func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Entries returns a copy of the view in arrival order.
func (v *View) Entries() []Event {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]Event, len(v.entries))
	copy(out, v.entries)
	return out
}
