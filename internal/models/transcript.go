package models

import (
	"sync"
	"time"
)

// Transcript is an append-only ordered log of negotiation events. Entries are
// never mutated, reordered, or removed after insertion; "undo" does not exist
// for negotiations. Safe for concurrent readers with a single writer.
type Transcript struct {
	mu     sync.RWMutex
	events []NegotiationEvent
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds an event to the end of the transcript. A zero timestamp is
// filled with the current time; timestamps are clamped so the sequence stays
// monotonically non-decreasing.
func (t *Transcript) Append(event NegotiationEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if n := len(t.events); n > 0 && event.Timestamp.Before(t.events[n-1].Timestamp) {
		event.Timestamp = t.events[n-1].Timestamp
	}

	t.events = append(t.events, event)
}

// All returns a copy of the event sequence in insertion order
func (t *Transcript) All() []NegotiationEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]NegotiationEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Len returns the number of recorded events
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// HasKind reports whether any event of the given kind has been recorded
func (t *Transcript) HasKind(kind EventKind) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.events {
		if t.events[i].Kind == kind {
			return true
		}
	}
	return false
}

// LastOfKind returns the most recent event of the given kind, if any
func (t *Transcript) LastOfKind(kind EventKind) (NegotiationEvent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].Kind == kind {
			return t.events[i], true
		}
	}
	return NegotiationEvent{}, false
}

// CountKind returns how many events of the given kind have been recorded
func (t *Transcript) CountKind(kind EventKind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for i := range t.events {
		if t.events[i].Kind == kind {
			count++
		}
	}
	return count
}
