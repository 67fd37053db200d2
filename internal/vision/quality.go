package vision

import (
	"image"
	"math"
)

const (
	// DefaultBlurThreshold is the minimum Laplacian variance for a frame
	// to be considered sharp enough for recognition.
	DefaultBlurThreshold = 100.0

	// Brightness bounds on the 0-255 grayscale. Values of exactly 30 and
	// 225 still pass; only frames strictly outside the range are rejected.
	MinBrightness = 30.0
	MaxBrightness = 225.0
)

// QualityGate rejects frames unsuitable for face detection: too blurry,
// too dark or too bright. It is a pure function of the pixel data and the
// configured thresholds.
type QualityGate struct {
	BlurThreshold float64
	MinBrightness float64
	MaxBrightness float64
}

// NewQualityGate creates a gate with the given blur threshold and the
// standard brightness bounds. A non-positive threshold selects the default.
func NewQualityGate(blurThreshold float64) *QualityGate {
	if blurThreshold <= 0 {
		blurThreshold = DefaultBlurThreshold
	}
	return &QualityGate{
		BlurThreshold: blurThreshold,
		MinBrightness: MinBrightness,
		MaxBrightness: MaxBrightness,
	}
}

// Suitable reports whether a frame should be processed. Nil or empty frames
// are rejected without error.
func (g *QualityGate) Suitable(frame image.Image) bool {
	if frame == nil {
		return false
	}
	bounds := frame.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return false
	}

	gray := Gray(frame)

	if LaplacianVariance(gray) < g.BlurThreshold {
		return false
	}

	brightness := MeanBrightness(gray)
	return brightness >= g.MinBrightness && brightness <= g.MaxBrightness
}

// LaplacianVariance computes the variance of the 4-neighbor Laplacian over
// the interior pixels of a grayscale image. Low values indicate blur.
func LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width < 3 || height < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	n := (width - 2) * (height - 2)
	values := make([]float64, 0, n)
	var sum float64

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			values = append(values, lap)
			sum += lap
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

// MeanBrightness returns the average pixel intensity of a grayscale image.
func MeanBrightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += float64(gray.GrayAt(x, y).Y)
		}
	}
	return sum / float64(total)
}

// StdDev returns the standard deviation of pixel intensities within the
// given rectangle of a grayscale image, clamped to the image bounds.
func StdDev(gray *image.Gray, rect image.Rectangle) float64 {
	rect = rect.Intersect(gray.Bounds())
	total := rect.Dx() * rect.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += float64(gray.GrayAt(x, y).Y)
		}
	}
	mean := sum / float64(total)

	var variance float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			d := float64(gray.GrayAt(x, y).Y) - mean
			variance += d * d
		}
	}
	return math.Sqrt(variance / float64(total))
}
