// Package cooldown rate limits per-person voice announcements so the same
// face in front of the camera does not trigger a greeting every frame.
package cooldown

import (
	"sync"
	"time"
)

// DefaultWindow is how long a person stays muted after an announcement.
const DefaultWindow = 30 * time.Second

// Gate decides whether a recognized person may be announced. A person is
// eligible when they have never been announced, or when strictly more than
// the window has passed since their last announcement, and audio playback
// is idle. Both conditions must hold.
type Gate struct {
	window time.Duration
	busy   func() bool

	mu   sync.Mutex
	last map[string]time.Time

	now func() time.Time
}

// New creates a gate. busy reports whether audio playback is in progress;
// nil means never busy. A non-positive window selects the default.
func New(window time.Duration, busy func() bool) *Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	if busy == nil {
		busy = func() bool { return false }
	}
	return &Gate{
		window: window,
		busy:   busy,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// ShouldAnnounce reports whether an announcement for the person is allowed
// right now. It does not record anything; call RecordAnnounced after the
// announcement is actually started.
func (g *Gate) ShouldAnnounce(personID string) bool {
	if g.busy() {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.last[personID]
	if !ok {
		return true
	}
	return g.now().Sub(last) > g.window
}

// RecordAnnounced marks the person as announced now, starting their window.
func (g *Gate) RecordAnnounced(personID string) {
	g.mu.Lock()
	g.last[personID] = g.now()
	g.mu.Unlock()
}

// LastAnnounced returns when the person was last announced.
func (g *Gate) LastAnnounced(personID string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.last[personID]
	return last, ok
}

// Clear forgets announcement history. An empty person id clears everyone.
func (g *Gate) Clear(personID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if personID == "" {
		g.last = make(map[string]time.Time)
		return
	}
	delete(g.last, personID)
}

// Window returns the configured cooldown window.
func (g *Gate) Window() time.Duration { return g.window }
