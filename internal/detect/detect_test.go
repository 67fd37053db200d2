package detect

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/memory-mirror/internal/engine"
)

// noisyFrame creates a frame with alternating pixel values for contrast.
func noisyFrame(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 200})
			} else {
				img.SetGray(x, y, color.Gray{Y: 55})
			}
		}
	}
	return img
}

func fakeEngine(t *testing.T, faces []engine.Face) *engine.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(engine.DetectResponse{
			FacesCount: len(faces),
			Faces:      faces,
			Model:      "insightface",
		})
	}))
	t.Cleanup(server.Close)
	return engine.New(server.URL)
}

func TestDetect_NilFrame(t *testing.T) {
	l := NewLocator(engine.New(""))
	regions, err := l.Detect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error for nil frame: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("expected no regions for nil frame, got %d", len(regions))
	}
}

func TestDetect_EngineUnavailable(t *testing.T) {
	l := NewLocator(engine.New(""))
	if _, err := l.Detect(context.Background(), noisyFrame(64, 64)); !errors.Is(err, engine.ErrUnavailable) {
		t.Errorf("expected engine.ErrUnavailable, got %v", err)
	}
}

func TestDetect_SortedLargestFirst(t *testing.T) {
	l := NewLocator(fakeEngine(t, []engine.Face{
		{BBox: []float64{0, 0, 20, 20}, DetScore: 0.9},
		{BBox: []float64{100, 100, 200, 200}, DetScore: 0.8},
		{BBox: []float64{50, 50, 90, 90}, DetScore: 0.95},
	}))

	regions, err := l.Detect(context.Background(), noisyFrame(320, 240))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(regions))
	}

	if regions[0].Area != 100*100 {
		t.Errorf("expected largest face first, got area %d", regions[0].Area)
	}
	if regions[1].Area != 40*40 || regions[2].Area != 20*20 {
		t.Errorf("unexpected ordering: %d, %d", regions[1].Area, regions[2].Area)
	}
}

func TestDetect_ConfidenceInRange(t *testing.T) {
	l := NewLocator(fakeEngine(t, []engine.Face{
		{BBox: []float64{100, 70, 220, 170}},
	}))

	regions, err := l.Detect(context.Background(), noisyFrame(320, 240))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}

	c := regions[0].Confidence
	if c < 0 || c > 1 {
		t.Errorf("confidence out of range: %f", c)
	}
	// Large centered face on a high-contrast frame scores well.
	if c < 0.5 {
		t.Errorf("expected confidence above 0.5 for centered face, got %f", c)
	}
}

func TestRegionConfidence_CenteredVsCorner(t *testing.T) {
	frame := noisyFrame(320, 240)
	gray := frame

	centered := Region{X: 110, Y: 70, Width: 100, Height: 100, CenterX: 160, CenterY: 120, Area: 10000}
	corner := Region{X: 0, Y: 0, Width: 100, Height: 100, CenterX: 50, CenterY: 50, Area: 10000}

	cc := regionConfidence(gray, centered, 320, 240)
	co := regionConfidence(gray, corner, 320, 240)

	if cc <= co {
		t.Errorf("expected centered face to score higher: centered=%f corner=%f", cc, co)
	}
}

func TestRegionConfidence_SizeComponent(t *testing.T) {
	frame := noisyFrame(400, 400)

	// 100x100 face saturates the size component at 1.0.
	big := Region{X: 150, Y: 150, Width: 100, Height: 100, CenterX: 200, CenterY: 200, Area: 10000}
	c := regionConfidence(frame, big, 400, 400)

	// size=1.0 weighted 0.4, position=1.0 weighted 0.3, plus contrast.
	if c < 0.7 {
		t.Errorf("expected at least 0.7 for perfect size and position, got %f", c)
	}
}

func TestFilterByQuality(t *testing.T) {
	regions := []Region{
		{Area: 5000, Confidence: 0.8},
		{Area: 500, Confidence: 0.9},  // too small
		{Area: 2000, Confidence: 0.1}, // low confidence
		{Area: 1500, Confidence: 0.4},
	}

	filtered := FilterByQuality(regions, DefaultMinConfidence, DefaultMinArea)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 regions after filtering, got %d", len(filtered))
	}
	if filtered[0].Area != 5000 || filtered[1].Area != 1500 {
		t.Errorf("filter did not preserve order: %+v", filtered)
	}
}

func TestLargest(t *testing.T) {
	if _, ok := Largest(nil); ok {
		t.Error("expected no largest face for empty slice")
	}

	r, ok := Largest([]Region{{Area: 100}, {Area: 50}})
	if !ok || r.Area != 100 {
		t.Errorf("expected largest area 100, got %+v ok=%v", r, ok)
	}
}

func TestExtract_CanonicalSize(t *testing.T) {
	l := NewLocator(engine.New(""))
	frame := noisyFrame(320, 240)

	face := l.Extract(frame, Region{X: 100, Y: 80, Width: 60, Height: 60})
	if face == nil {
		t.Fatal("expected non-nil extraction")
	}
	if face.Bounds().Dx() != ExtractSize || face.Bounds().Dy() != ExtractSize {
		t.Errorf("expected %dx%d, got %dx%d", ExtractSize, ExtractSize, face.Bounds().Dx(), face.Bounds().Dy())
	}
}

func TestExtract_OutOfBounds(t *testing.T) {
	l := NewLocator(engine.New(""))
	frame := noisyFrame(100, 100)

	if face := l.Extract(frame, Region{X: 500, Y: 500, Width: 50, Height: 50}); face != nil {
		t.Error("expected nil extraction for region outside the frame")
	}
}

func TestRegionRect(t *testing.T) {
	r := Region{X: 10, Y: 20, Width: 30, Height: 40}
	want := image.Rect(10, 20, 40, 60)
	if r.Rect() != want {
		t.Errorf("expected %v, got %v", want, r.Rect())
	}
}

func TestRegionConfidence_ZeroFrame(t *testing.T) {
	if c := regionConfidence(image.NewGray(image.Rect(0, 0, 0, 0)), Region{}, 0, 0); c != 0 {
		t.Errorf("expected zero confidence, got %f", c)
	}
}

func TestRegionConfidence_Clamped(t *testing.T) {
	frame := noisyFrame(200, 200)
	huge := Region{X: 0, Y: 0, Width: 200, Height: 200, CenterX: 100, CenterY: 100, Area: 40000}
	c := regionConfidence(frame, huge, 200, 200)
	if c > 1.0 || math.IsNaN(c) {
		t.Errorf("confidence not clamped: %f", c)
	}
}
