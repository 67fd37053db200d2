package cache

import (
	"crypto/md5"
	"fmt"
	"image"

	"github.com/kozaktomas/memory-mirror/internal/vision"
)

// Fingerprint modes. Content mode hashes downscaled pixels so small camera
// noise still maps nearby frames to distinct keys while identical frames
// collide. Geometry mode hashes only the face position and is cheaper but
// collides across different persons standing in the same spot.
const (
	FingerprintContent  = "content"
	FingerprintGeometry = "geometry"
)

// hashSize is the side of the square thumbnail hashed in content mode.
const hashSize = 64

// Hasher turns frames into cache fingerprints.
type Hasher struct {
	mode string
}

// NewHasher creates a hasher. Unrecognized modes fall back to content.
func NewHasher(mode string) *Hasher {
	if mode != FingerprintGeometry {
		mode = FingerprintContent
	}
	return &Hasher{mode: mode}
}

// Mode returns the configured fingerprint mode.
func (h *Hasher) Mode() string { return h.mode }

// Frame fingerprints a frame, optionally restricted to a face region. Returns
// an empty string for nil frames; callers treat that as "do not cache".
func (h *Hasher) Frame(frame image.Image, region *image.Rectangle) string {
	if frame == nil {
		return ""
	}

	if h.mode == FingerprintGeometry && region != nil {
		return HashGeometry(*region, frame.Bounds())
	}

	return HashContent(frame, region)
}

// HashContent computes the content fingerprint: crop to the region when
// given, downscale to a small thumbnail, grayscale, MD5 the pixel bytes.
func HashContent(frame image.Image, region *image.Rectangle) string {
	if frame == nil {
		return ""
	}

	src := frame
	if region != nil {
		cropped := vision.CropPadded(frame, *region, 0)
		if cropped == nil {
			return ""
		}
		src = cropped
	}

	gray := vision.Gray(vision.Resize(src, hashSize, hashSize))
	return fmt.Sprintf("%x", md5.Sum(gray.Pix))
}

// HashGeometry computes the geometry fingerprint from the face rectangle and
// the frame dimensions.
func HashGeometry(region image.Rectangle, frameBounds image.Rectangle) string {
	key := fmt.Sprintf("%d_%d_%d_%d_%d_%d",
		region.Min.X, region.Min.Y, region.Dx(), region.Dy(),
		frameBounds.Dx(), frameBounds.Dy())
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}
