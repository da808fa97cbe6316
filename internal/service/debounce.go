package service

import (
	"sync"
	"time"
)

// ActionKind is a playback control action
type ActionKind string

const (
	ActionPlay  ActionKind = "play"
	ActionPause ActionKind = "pause"
	ActionSeek  ActionKind = "seek"
)

const (
	// DebounceWindow is how long a cross-user near-duplicate of an
	// applied action stays suppressed.
	DebounceWindow = 500 * time.Millisecond

	// PositionTolerance is the playback-position distance (seconds)
	// under which two actions count as "the same position".
	PositionTolerance = 1.0

	playPauseMinInterval = 100 * time.Millisecond
	seekMinInterval      = 200 * time.Millisecond
)

type recordKey struct {
	roomID string
	kind   ActionKind
}

type actionRecord struct {
	currentTime float64
	userID      string
	appliedAt   time.Time
}

// Debouncer filters playback control actions before they are applied.
// Two independent checks, both keyed by (room, action kind):
//
//  1. Allow: suppresses a near-duplicate of an already-applied action
//     when it comes from a DIFFERENT user within DebounceWindow at
//     nearly the same position. This is the feedback-loop filter: two
//     clients reacting to the same UI event both issue corrective
//     commands, and only the first should win. A user's own repeats
//     always pass.
//  2. AllowRate / MarkApplied: a minimum interval between applied
//     actions of one kind, to absorb command floods.
//
// This is a heuristic, not a causal-ordering scheme: records are
// approximate, staleness across rooms is tolerated, and the filter
// gives no consistency guarantee under network reordering or
// multi-instance deployment. It only exists to reduce flicker.
type Debouncer struct {
	mu      sync.Mutex
	records map[recordKey]actionRecord
	applied map[recordKey]time.Time
}

// NewDebouncer creates an empty debouncer
func NewDebouncer() *Debouncer {
	return &Debouncer{
		records: make(map[recordKey]actionRecord),
		applied: make(map[recordKey]time.Time),
	}
}

// Allow reports whether the action passes the cross-user duplicate
// filter, and on acceptance overwrites the record for (roomID, kind).
func (d *Debouncer) Allow(roomID string, kind ActionKind, currentTime float64, userID string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := recordKey{roomID: roomID, kind: kind}
	if rec, ok := d.records[key]; ok {
		sameTime := abs(rec.currentTime-currentTime) < PositionTolerance
		recent := now.Sub(rec.appliedAt) < DebounceWindow
		sameUser := rec.userID == userID

		if sameTime && recent && !sameUser {
			return false
		}
	}

	d.records[key] = actionRecord{
		currentTime: currentTime,
		userID:      userID,
		appliedAt:   now,
	}
	return true
}

// AllowRate reports whether enough time has passed since the last
// APPLIED action of this kind in this room. It does not record
// anything; callers confirm with MarkApplied once the action has
// actually been applied, so that suppressed actions do not push the
// interval forward.
func (d *Debouncer) AllowRate(roomID string, kind ActionKind, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, ok := d.applied[recordKey{roomID: roomID, kind: kind}]
	return !ok || now.Sub(last) >= minInterval(kind)
}

// MarkApplied records that an action of this kind was applied
func (d *Debouncer) MarkApplied(roomID string, kind ActionKind, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.applied[recordKey{roomID: roomID, kind: kind}] = now
}

// Purge drops bookkeeping older than twice the debounce window
func (d *Debouncer) Purge(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, rec := range d.records {
		if now.Sub(rec.appliedAt) > 2*DebounceWindow {
			delete(d.records, key)
		}
	}
	for key, at := range d.applied {
		if now.Sub(at) > 2*DebounceWindow {
			delete(d.applied, key)
		}
	}
}

// DropRoom removes all bookkeeping for a room
func (d *Debouncer) DropRoom(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.records {
		if key.roomID == roomID {
			delete(d.records, key)
		}
	}
	for key := range d.applied {
		if key.roomID == roomID {
			delete(d.applied, key)
		}
	}
}

func minInterval(kind ActionKind) time.Duration {
	if kind == ActionSeek {
		return seekMinInterval
	}
	return playPauseMinInterval
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
