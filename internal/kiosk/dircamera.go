package kiosk

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kozaktomas/memory-mirror/internal/vision"
)

// DirectoryCamera reads frames from a spool directory that an external
// capture process (fswebcam, ffmpeg, a phone pushing snapshots) writes JPEG
// or PNG files into. Consumed frames are deleted so the spool stays small.
type DirectoryCamera struct {
	dir string
}

// NewDirectoryCamera creates a camera over a spool directory.
func NewDirectoryCamera(dir string) *DirectoryCamera {
	return &DirectoryCamera{dir: dir}
}

// Initialize checks the spool directory exists, creating it if needed.
func (c *DirectoryCamera) Initialize() bool {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Printf("camera: could not create spool directory %s: %v", c.dir, err)
		return false
	}
	return true
}

// Frame picks the oldest image in the spool, decodes it and removes it. An
// empty spool is the idle ErrNoFrame condition; an unreadable or corrupt
// file is a failure. Bad files are removed too so they cannot jam the spool.
func (c *DirectoryCamera) Frame() (image.Image, error) {
	path, err := c.oldest()
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", path, err)
	}

	frame, err := vision.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return frame, nil
}

// Release is a no-op; the external capture process owns the device.
func (c *DirectoryCamera) Release() {}

func (c *DirectoryCamera) oldest() (string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return "", fmt.Errorf("read spool directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrNoFrame
	}

	// Capture tools name files by timestamp, so lexical order is capture
	// order.
	sort.Strings(names)
	return filepath.Join(c.dir, names[0]), nil
}
