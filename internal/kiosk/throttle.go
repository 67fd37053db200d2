package kiosk

import (
	"context"
	"time"
)

const (
	DefaultTargetFPS = 10
	DefaultFrameSkip = 2
)

// Throttle paces the capture loop to a target frame rate and skips frames
// so the expensive recognition path runs on a fraction of them.
type Throttle struct {
	interval time.Duration
	skip     int
	counter  int
}

// NewThrottle creates a throttle. Non-positive arguments select defaults.
func NewThrottle(targetFPS, frameSkip int) *Throttle {
	if targetFPS <= 0 {
		targetFPS = DefaultTargetFPS
	}
	if frameSkip <= 0 {
		frameSkip = DefaultFrameSkip
	}
	return &Throttle{
		interval: time.Second / time.Duration(targetFPS),
		skip:     frameSkip,
	}
}

// Interval returns the pause between capture iterations.
func (t *Throttle) Interval() time.Duration { return t.interval }

// Wait sleeps one frame interval or until the context is canceled.
func (t *Throttle) Wait(ctx context.Context) error {
	select {
	case <-time.After(t.interval):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShouldProcess reports whether the current frame should go through the
// recognition pipeline. With skip N, every Nth frame is processed.
func (t *Throttle) ShouldProcess() bool {
	t.counter++
	return t.counter%t.skip == 0
}
