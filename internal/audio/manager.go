package audio

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kozaktomas/memory-mirror/internal/speech"
)

// Announcement describes one spoken message.
type Announcement struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id,omitempty"`
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

// Manager speaks announcements asynchronously. Starting a new announcement
// stops the one currently playing. Busy reports whether playback is in
// progress so the cooldown gate can hold new announcements back.
type Manager struct {
	synth   speech.Synthesizer
	player  Player
	enabled bool

	// active counts in-flight announcement goroutines. A counter rather
	// than a flag: a replaced announcement finishes its cleanup after its
	// successor has already started.
	active atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	volume float64
}

// NewManager creates a manager. A nil synthesizer or disabled flag turns
// Announce into a no-op.
func NewManager(synth speech.Synthesizer, player Player, enabled bool) *Manager {
	if player == nil {
		player = NullPlayer{}
	}
	return &Manager{
		synth:   synth,
		player:  player,
		enabled: enabled && synth != nil,
		volume:  1.0,
	}
}

// SetVolume clamps the volume to [0,1] and hands it to the player.
func (m *Manager) SetVolume(volume float64) {
	volume = clampVolume(volume)
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
	m.player.SetVolume(volume)
}

// Volume returns the current playback volume.
func (m *Manager) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Enabled reports whether announcements are active.
func (m *Manager) Enabled() bool { return m.enabled }

// Busy reports whether an announcement is currently being synthesized or
// played.
func (m *Manager) Busy() bool { return m.active.Load() > 0 }

// Announce speaks a message without blocking the caller. Empty messages and
// disabled audio are no-ops. Returns the announcement, or nil when nothing
// was started.
func (m *Manager) Announce(personID, message, lang string) *Announcement {
	if !m.enabled || message == "" {
		return nil
	}

	a := &Announcement{
		ID:       uuid.NewString(),
		PersonID: personID,
		Message:  message,
		Language: lang,
	}

	ctx := m.replaceCurrent()
	m.active.Add(1)

	go func() {
		defer m.active.Add(-1)

		data, err := m.synth.Synthesize(ctx, a.Message, a.Language)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("audio: synthesis failed for %s: %v", a.ID, err)
			}
			return
		}

		if err := m.player.Play(ctx, data); err != nil {
			if ctx.Err() == nil {
				log.Printf("audio: playback failed for %s: %v", a.ID, err)
			}
			return
		}

		log.Printf("audio: announced %s (%s)", a.PersonID, a.ID)
	}()

	return a
}

// Stop cancels the current announcement, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// replaceCurrent cancels the running announcement and returns a fresh
// context for the next one.
func (m *Manager) replaceCurrent() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return ctx
}
