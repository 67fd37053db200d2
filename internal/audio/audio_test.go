package audio

import (
	"context"
	"sync"
	"testing"
	"time"
)

// blockingSynth blocks in Synthesize until released, so tests can observe
// the busy state.
type blockingSynth struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (s *blockingSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	select {
	case <-s.release:
		return []byte("audio"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *blockingSynth) Name() string { return "blocking" }

// recordingPlayer remembers what it was asked to play.
type recordingPlayer struct {
	mu     sync.Mutex
	played [][]byte
	volume float64
	done   chan struct{}
}

func (p *recordingPlayer) Play(ctx context.Context, data []byte) error {
	p.mu.Lock()
	p.played = append(p.played, data)
	p.mu.Unlock()
	if p.done != nil {
		close(p.done)
	}
	return nil
}

func (p *recordingPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAnnounce_PlaysAndClearsBusy(t *testing.T) {
	synth := &blockingSynth{release: make(chan struct{})}
	player := &recordingPlayer{done: make(chan struct{})}
	m := NewManager(synth, player, true)

	a := m.Announce("alice", "Hello Alice!", "en")
	if a == nil {
		t.Fatal("expected announcement to start")
	}
	if a.ID == "" {
		t.Error("expected announcement id")
	}

	waitFor(t, m.Busy, "expected manager busy during synthesis")

	close(synth.release)
	<-player.done

	waitFor(t, func() bool { return !m.Busy() }, "expected busy cleared after playback")

	player.mu.Lock()
	defer player.mu.Unlock()
	if len(player.played) != 1 || string(player.played[0]) != "audio" {
		t.Errorf("unexpected playback: %v", player.played)
	}
}

func TestAnnounce_EmptyMessageNoOp(t *testing.T) {
	m := NewManager(&blockingSynth{release: make(chan struct{})}, NullPlayer{}, true)
	if a := m.Announce("alice", "", "en"); a != nil {
		t.Error("expected no announcement for empty message")
	}
	if m.Busy() {
		t.Error("expected manager idle")
	}
}

func TestAnnounce_DisabledNoOp(t *testing.T) {
	m := NewManager(&blockingSynth{release: make(chan struct{})}, NullPlayer{}, false)
	if a := m.Announce("alice", "Hello!", "en"); a != nil {
		t.Error("expected no announcement when disabled")
	}
}

func TestAnnounce_NilSynthesizerNoOp(t *testing.T) {
	m := NewManager(nil, NullPlayer{}, true)
	if m.Enabled() {
		t.Error("expected manager disabled without synthesizer")
	}
	if a := m.Announce("alice", "Hello!", "en"); a != nil {
		t.Error("expected no announcement without synthesizer")
	}
}

func TestAnnounce_ReplacesRunningAnnouncement(t *testing.T) {
	synth := &blockingSynth{release: make(chan struct{})}
	m := NewManager(synth, NullPlayer{}, true)

	m.Announce("alice", "Hello Alice!", "en")
	waitFor(t, m.Busy, "expected first announcement running")

	// The second announcement cancels the first; with the synth still
	// blocked, exactly one goroutine stays active.
	m.Announce("bob", "Hello Bob!", "en")

	waitFor(t, func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return synth.calls == 2
	}, "expected second synthesis started")

	m.Stop()
	waitFor(t, func() bool { return !m.Busy() }, "expected stop to end playback")
}

func TestNewCommandPlayer(t *testing.T) {
	p, err := NewCommandPlayer("mpg123 -q -")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.command != "mpg123" || len(p.args) != 2 {
		t.Errorf("unexpected parse: %s %v", p.command, p.args)
	}

	if _, err := NewCommandPlayer("  "); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestCommandPlayer_EmptyData(t *testing.T) {
	p, _ := NewCommandPlayer("definitely-not-a-real-player")
	if err := p.Play(context.Background(), nil); err != nil {
		t.Errorf("expected empty data to be a no-op, got %v", err)
	}
}

func TestCommandPlayer_VolumePlaceholder(t *testing.T) {
	p, err := NewCommandPlayer("ffplay -volume {volume} -")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Full volume by default.
	if args := p.expandArgs(); args[1] != "100" {
		t.Errorf("expected default volume 100, got %v", args)
	}

	p.SetVolume(0.8)
	args := p.expandArgs()
	if len(args) != 3 || args[1] != "80" || args[2] != "-" {
		t.Errorf("unexpected args: %v", args)
	}

	p.SetVolume(1.5)
	if args := p.expandArgs(); args[1] != "100" {
		t.Errorf("expected volume clamped to 100, got %v", args)
	}
}

func TestManager_Volume(t *testing.T) {
	player := &recordingPlayer{}
	m := NewManager(&blockingSynth{release: make(chan struct{})}, player, true)

	if m.Volume() != 1.0 {
		t.Errorf("expected full volume by default, got %f", m.Volume())
	}

	m.SetVolume(0.5)
	if m.Volume() != 0.5 {
		t.Errorf("expected volume 0.5, got %f", m.Volume())
	}
	player.mu.Lock()
	forwarded := player.volume
	player.mu.Unlock()
	if forwarded != 0.5 {
		t.Errorf("expected volume forwarded to player, got %f", forwarded)
	}

	m.SetVolume(-1)
	if m.Volume() != 0 {
		t.Errorf("expected volume clamped to 0, got %f", m.Volume())
	}
}
