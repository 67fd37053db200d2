// Package detect locates faces in frames and scores them with a heuristic
// quality confidence used to pick the best candidate for recognition.
package detect

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/kozaktomas/memory-mirror/internal/engine"
	"github.com/kozaktomas/memory-mirror/internal/vision"
)

const (
	// ExtractPadding is added around a face before cropping, clamped to
	// the frame bounds.
	ExtractPadding = 20

	// ExtractSize is the canonical square size faces are resized to for
	// recognition.
	ExtractSize = 160

	// DefaultMinConfidence and DefaultMinArea are the quality filter
	// thresholds.
	DefaultMinConfidence = 0.3
	DefaultMinArea       = 1000
)

// Region is a detected face in frame pixel coordinates.
type Region struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	CenterX int     `json:"center_x"`
	CenterY int     `json:"center_y"`
	Area    int     `json:"area"`
	// Confidence is a heuristic quality score in [0,1], not the engine's
	// detection score.
	Confidence float64 `json:"confidence"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Locator wraps the face engine and produces ordered face regions.
type Locator struct {
	engine *engine.Client
}

// NewLocator creates a face locator backed by the given engine client.
func NewLocator(client *engine.Client) *Locator {
	return &Locator{engine: client}
}

// Detect returns the faces found in a frame, largest area first. A nil
// frame yields an empty slice; an unavailable engine or a failed engine
// call is an error, so callers can tell "nobody in front of the camera"
// apart from "detection is broken".
func (l *Locator) Detect(ctx context.Context, frame image.Image) ([]Region, error) {
	if frame == nil {
		return nil, nil
	}
	if l.engine == nil || !l.engine.Available() {
		return nil, engine.ErrUnavailable
	}

	data, err := vision.EncodeJPEG(frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	resp, err := l.engine.DetectFaces(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	gray := vision.Gray(frame)
	bounds := frame.Bounds()

	regions := make([]Region, 0, len(resp.Faces))
	for _, face := range resp.Faces {
		if len(face.BBox) != 4 {
			continue
		}
		x := int(face.BBox[0])
		y := int(face.BBox[1])
		w := int(face.BBox[2] - face.BBox[0])
		h := int(face.BBox[3] - face.BBox[1])
		if w <= 0 || h <= 0 {
			continue
		}

		region := Region{
			X:       x,
			Y:       y,
			Width:   w,
			Height:  h,
			CenterX: x + w/2,
			CenterY: y + h/2,
			Area:    w * h,
		}
		region.Confidence = regionConfidence(gray, region, bounds.Dx(), bounds.Dy())
		regions = append(regions, region)
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Area > regions[j].Area
	})

	return regions, nil
}

// Extract crops a face region with padding clamped to the frame bounds and
// resizes it to the canonical size. Returns nil for an empty region.
func (l *Locator) Extract(frame image.Image, region Region) image.Image {
	if frame == nil {
		return nil
	}

	crop := vision.CropPadded(frame, region.Rect(), ExtractPadding)
	if crop == nil {
		return nil
	}

	return vision.Resize(crop, ExtractSize, ExtractSize)
}

// FilterByQuality drops faces below the confidence or area thresholds,
// preserving order.
func FilterByQuality(regions []Region, minConfidence float64, minArea int) []Region {
	filtered := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Confidence < minConfidence {
			continue
		}
		if r.Area < minArea {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Largest returns the biggest detected face. Regions from Detect are
// already sorted by area.
func Largest(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	return regions[0], true
}

// regionConfidence combines three normalized quality signals: face size,
// distance from the frame center, and local contrast.
func regionConfidence(gray *image.Gray, region Region, frameWidth, frameHeight int) float64 {
	if frameWidth <= 0 || frameHeight <= 0 {
		return 0
	}

	// Size score, normalized to a 100x100 face.
	sizeScore := math.Min(1.0, float64(region.Area)/(100*100))

	// Position score: 1 at the frame center, 0 at a corner.
	centerX := float64(frameWidth) / 2
	centerY := float64(frameHeight) / 2
	dx := float64(region.CenterX) - centerX
	dy := float64(region.CenterY) - centerY
	distance := math.Sqrt(dx*dx + dy*dy)
	maxDistance := math.Sqrt(centerX*centerX + centerY*centerY)
	positionScore := 0.0
	if maxDistance > 0 {
		positionScore = 1.0 - distance/maxDistance
	}

	// Contrast score: standard deviation of the face pixels.
	contrastScore := vision.StdDev(gray, region.Rect()) / 255.0

	confidence := 0.4*sizeScore + 0.3*positionScore + 0.3*contrastScore
	return math.Max(0.0, math.Min(1.0, confidence))
}
