// Package kiosk runs the recognition loop: frames come in from the camera,
// suitable ones are matched against the gallery and recognized persons are
// greeted, rate limited per person.
package kiosk

import (
	"errors"
	"image"
)

// ErrNoFrame signals the camera has nothing new to deliver yet. It is a
// normal idle condition, not a capture failure.
var ErrNoFrame = errors.New("no frame available")

// Camera abstracts the frame source. Implementations wrap a capture device
// or, in tests, canned frames.
type Camera interface {
	// Initialize opens the device. Returns false when no camera is usable.
	Initialize() bool
	// Frame grabs the next frame. ErrNoFrame means no frame is ready yet;
	// any other error is a read or decode failure.
	Frame() (image.Image, error)
	// Release closes the device. Safe to call more than once.
	Release()
}
