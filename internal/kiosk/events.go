package kiosk

import (
	"sync"
	"time"
)

// Event types published on the kiosk event stream.
const (
	EventRecognition  = "recognition"
	EventAnnouncement = "announcement"
	EventError        = "error"
)

// Event is one item on the kiosk event stream, consumed by the web UI over
// SSE.
type Event struct {
	Type       string    `json:"type"`
	PersonID   string    `json:"person_id,omitempty"`
	PersonName string    `json:"person_name,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	FromCache  bool      `json:"from_cache,omitempty"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Events fans kiosk events out to subscribers. Slow subscribers drop
// events instead of blocking the recognition loop.
type Events struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewEvents creates an empty event hub.
func NewEvents() *Events {
	return &Events{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a cancel function. The channel
// is closed on cancel.
func (e *Events) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++
	ch := make(chan Event, 16)
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all subscribers without blocking.
func (e *Events) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (e *Events) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
