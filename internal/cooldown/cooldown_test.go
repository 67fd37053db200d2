package cooldown

import (
	"testing"
	"time"
)

func TestShouldAnnounce_FirstTime(t *testing.T) {
	g := New(30*time.Second, nil)
	if !g.ShouldAnnounce("alice") {
		t.Error("expected never-announced person to be eligible")
	}
}

func TestShouldAnnounce_WindowBoundary(t *testing.T) {
	g := New(30*time.Second, nil)

	base := time.Now()
	g.now = func() time.Time { return base }
	g.RecordAnnounced("alice")

	// 29.9s in: still muted.
	g.now = func() time.Time { return base.Add(29900 * time.Millisecond) }
	if g.ShouldAnnounce("alice") {
		t.Error("expected alice muted at 29.9s")
	}

	// Exactly at the window: still muted, the comparison is strict.
	g.now = func() time.Time { return base.Add(30 * time.Second) }
	if g.ShouldAnnounce("alice") {
		t.Error("expected alice muted at exactly 30s")
	}

	// 30.1s in: eligible again.
	g.now = func() time.Time { return base.Add(30100 * time.Millisecond) }
	if !g.ShouldAnnounce("alice") {
		t.Error("expected alice eligible at 30.1s")
	}
}

func TestShouldAnnounce_PerPerson(t *testing.T) {
	g := New(30*time.Second, nil)
	g.RecordAnnounced("alice")

	if g.ShouldAnnounce("alice") {
		t.Error("expected alice muted")
	}
	if !g.ShouldAnnounce("bob") {
		t.Error("expected bob unaffected by alice's cooldown")
	}
}

func TestShouldAnnounce_BusyBlocksEveryone(t *testing.T) {
	busy := true
	g := New(30*time.Second, func() bool { return busy })

	if g.ShouldAnnounce("alice") {
		t.Error("expected busy playback to block announcements")
	}

	busy = false
	if !g.ShouldAnnounce("alice") {
		t.Error("expected idle playback to allow announcements")
	}
}

func TestClear(t *testing.T) {
	g := New(30*time.Second, nil)
	g.RecordAnnounced("alice")
	g.RecordAnnounced("bob")

	g.Clear("alice")
	if !g.ShouldAnnounce("alice") {
		t.Error("expected cleared person to be eligible")
	}
	if g.ShouldAnnounce("bob") {
		t.Error("expected bob still muted")
	}

	g.Clear("")
	if !g.ShouldAnnounce("bob") {
		t.Error("expected full clear to reset everyone")
	}
}

func TestLastAnnounced(t *testing.T) {
	g := New(30*time.Second, nil)

	if _, ok := g.LastAnnounced("alice"); ok {
		t.Error("expected no record before announcement")
	}

	g.RecordAnnounced("alice")
	if _, ok := g.LastAnnounced("alice"); !ok {
		t.Error("expected record after announcement")
	}
}
