// Package audio plays synthesized announcements through an external player
// process and tracks playback state for the cooldown gate.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Player plays one audio clip, blocking until playback finishes or the
// context is canceled.
type Player interface {
	Play(ctx context.Context, data []byte) error
	// SetVolume adjusts the playback volume in [0,1] for subsequent clips.
	SetVolume(volume float64)
}

// CommandPlayer pipes audio bytes into an external player command, e.g.
// "mpg123 -q -" for MP3 or "aplay -q" for WAV. A {volume} argument
// placeholder expands to the current volume as an integer percentage, e.g.
// "ffplay -nodisp -autoexit -volume {volume} -".
type CommandPlayer struct {
	command string
	args    []string

	mu     sync.Mutex
	volume float64
}

// NewCommandPlayer parses a player command line. The audio is written to
// the player's stdin.
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("player command must not be empty")
	}
	return &CommandPlayer{
		command: fields[0],
		args:    fields[1:],
		volume:  1.0,
	}, nil
}

// SetVolume stores the volume substituted into the {volume} placeholder,
// clamped to [0,1].
func (p *CommandPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	p.volume = clampVolume(volume)
	p.mu.Unlock()
}

func (p *CommandPlayer) Play(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, p.command, p.expandArgs()...)
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player %s failed: %w (%s)", p.command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// expandArgs replaces the {volume} placeholder with the current volume as a
// percentage.
func (p *CommandPlayer) expandArgs() []string {
	p.mu.Lock()
	volume := p.volume
	p.mu.Unlock()

	percent := strconv.Itoa(int(math.Round(volume * 100)))
	args := make([]string, len(p.args))
	for i, a := range p.args {
		args[i] = strings.ReplaceAll(a, "{volume}", percent)
	}
	return args
}

func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}

// NullPlayer discards audio. Used when playback is disabled and in tests.
type NullPlayer struct{}

func (NullPlayer) Play(ctx context.Context, data []byte) error { return nil }

func (NullPlayer) SetVolume(volume float64) {}
