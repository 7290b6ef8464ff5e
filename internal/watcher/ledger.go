package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	appointmentserrors "frontdesk/internal/appointments/errors"
	appointments "frontdesk/internal/appointments/repository"
)

// Kind names one once-per-appointment side effect.
type Kind string

const (
	KindStarted  Kind = "started"
	KindEnded    Kind = "ended"
	KindReminded Kind = "reminded"
)

// Ledger records which appointment transitions were already handled.
//
// Claim returns true exactly once per (kind, id) until the claim is released
// or forgotten. Release undoes a claim whose side effect could not be
// persisted. Trim bounds the ledger's memory and is called after every sweep.
type Ledger interface {
	Claim(ctx context.Context, kind Kind, id string, at time.Time) (bool, error)
	Release(ctx context.Context, kind Kind, id string) error
	Trim()
}

// MemoryLedger keeps process-local key sets. Each set is cleared entirely once
// it grows past bound, so a transition can fire again after a restart or a trim.
type MemoryLedger struct {
	mu    sync.Mutex
	bound int
	sets  map[Kind]map[string]struct{}
}

func NewMemoryLedger(bound int) *MemoryLedger {
	return &MemoryLedger{
		bound: bound,
		sets: map[Kind]map[string]struct{}{
			KindStarted:  {},
			KindEnded:    {},
			KindReminded: {},
		},
	}
}

func memoryKey(kind Kind, id string) string {
	switch kind {
	case KindStarted:
		return "start-" + id
	case KindEnded:
		return "end-" + id
	default:
		return id
	}
}

func (l *MemoryLedger) Claim(_ context.Context, kind Kind, id string, _ time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.sets[kind]
	if !ok {
		return false, errUnknownKind(kind)
	}
	key := memoryKey(kind, id)
	if _, seen := set[key]; seen {
		return false, nil
	}
	set[key] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, kind Kind, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if set, ok := l.sets[kind]; ok {
		delete(set, memoryKey(kind, id))
	}
	return nil
}

func (l *MemoryLedger) Trim() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for kind, set := range l.sets {
		if len(set) > l.bound {
			l.sets[kind] = map[string]struct{}{}
		}
	}
}

// Len reports the number of keys held for kind.
func (l *MemoryLedger) Len(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sets[kind])
}

// Marker is the part of the appointment repository StoreLedger writes through.
type Marker interface {
	MarkOnce(ctx context.Context, id, field string, at time.Time) error
	ClearMark(ctx context.Context, id, field string) error
}

// StoreLedger persists claims as watermark fields on the appointment itself,
// so dedup survives restarts. A claim is a conditional update that only
// succeeds while the field is unset.
type StoreLedger struct {
	marker Marker
}

func NewStoreLedger(marker Marker) *StoreLedger {
	return &StoreLedger{marker: marker}
}

func storeField(kind Kind) (string, error) {
	switch kind {
	case KindStarted:
		return appointments.FieldStartedNotifiedAt, nil
	case KindEnded:
		return appointments.FieldEndedNotifiedAt, nil
	case KindReminded:
		return appointments.FieldRemindedAt, nil
	default:
		return "", errUnknownKind(kind)
	}
}

func (l *StoreLedger) Claim(ctx context.Context, kind Kind, id string, at time.Time) (bool, error) {
	field, err := storeField(kind)
	if err != nil {
		return false, err
	}
	if err := l.marker.MarkOnce(ctx, id, field, at.UTC()); err != nil {
		if errors.Is(err, appointmentserrors.ErrAlreadyMarked) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *StoreLedger) Release(ctx context.Context, kind Kind, id string) error {
	field, err := storeField(kind)
	if err != nil {
		return err
	}
	return l.marker.ClearMark(ctx, id, field)
}

// Trim is a no-op: watermarks live with the appointment.
func (l *StoreLedger) Trim() {}

type errUnknownKind Kind

func (e errUnknownKind) Error() string {
	return "unknown ledger kind: " + string(e)
}
