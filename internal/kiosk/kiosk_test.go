package kiosk

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/kozaktomas/memory-mirror/internal/audio"
	"github.com/kozaktomas/memory-mirror/internal/cache"
	"github.com/kozaktomas/memory-mirror/internal/cooldown"
	"github.com/kozaktomas/memory-mirror/internal/detect"
	"github.com/kozaktomas/memory-mirror/internal/engine"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
	"github.com/kozaktomas/memory-mirror/internal/vision"
)

// checkerFrame is sharp and mid-brightness, so it passes the quality gate.
func checkerFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(100)
			if (x+y)%2 == 0 {
				v = 150
			}
			img.Set(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func darkFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: 10})
		}
	}
	return img
}

// fakeLocator reports one face region, or none, or a detection failure.
type fakeLocator struct {
	regions []detect.Region
	err     error
	detects int
}

func (f *fakeLocator) Detect(ctx context.Context, frame image.Image) ([]detect.Region, error) {
	f.detects++
	return f.regions, f.err
}

func (f *fakeLocator) Extract(frame image.Image, region detect.Region) image.Image {
	return frame
}

// fakeMatcher returns a canned result and counts invocations.
type fakeMatcher struct {
	result    recognize.Result
	embedding []float32
	calls     int
}

func (f *fakeMatcher) RecognizeEmbedding(ctx context.Context, face image.Image) (recognize.Result, []float32) {
	f.calls++
	return f.result, f.embedding
}

// fakeHistory records the embeddings handed to the event store.
type fakeHistory struct {
	embeddings [][]float32
}

func (f *fakeHistory) Record(ctx context.Context, result recognize.Result, fromCache, announced bool, embedding []float32) (string, error) {
	f.embeddings = append(f.embeddings, embedding)
	return "event-id", nil
}

// fakeAnnouncer records announcements.
type fakeAnnouncer struct {
	announced []string
	enabled   bool
}

func (f *fakeAnnouncer) Announce(personID, message, lang string) *audio.Announcement {
	f.announced = append(f.announced, message)
	return &audio.Announcement{ID: "test", PersonID: personID, Message: message}
}

func (f *fakeAnnouncer) Busy() bool    { return false }
func (f *fakeAnnouncer) Enabled() bool { return f.enabled }

func knownResult(person string) recognize.Result {
	return recognize.Result{
		PersonID:   person,
		Confidence: 0.9,
		Known:      true,
		Distance:   0.1,
		Timestamp:  time.Now(),
		Matcher:    "test-model",
	}
}

func faceRegion() detect.Region {
	return detect.Region{X: 10, Y: 10, Width: 50, Height: 50, Area: 2500, Confidence: 0.9}
}

// testOrchestrator wires fakes around the real cache, cooldown and quality
// gate.
func testOrchestrator(locator *fakeLocator, matcher *fakeMatcher, announcer *fakeAnnouncer) *Orchestrator {
	return &Orchestrator{
		quality:  vision.NewQualityGate(0),
		locator:  locator,
		matcher:  matcher,
		cache:    cache.New(10, time.Minute, time.Minute),
		hasher:   cache.NewHasher(cache.FingerprintContent),
		gate:     cooldown.New(30*time.Second, announcer.Busy),
		gallery:  gallery.NewStore("testdata-nonexistent", ""),
		audio:    announcer,
		events:   NewEvents(),
		throttle: NewThrottle(0, 0),
	}
}

func TestTick_NoFace(t *testing.T) {
	locator := &fakeLocator{}
	matcher := &fakeMatcher{result: knownResult("alice")}
	o := testOrchestrator(locator, matcher, &fakeAnnouncer{enabled: true})

	tick := o.Tick(context.Background(), checkerFrame(100, 100))

	if tick.Status != StatusReady {
		t.Errorf("expected status ready, got %s", tick.Status)
	}
	if matcher.calls != 0 {
		t.Error("expected matcher untouched without faces")
	}
}

func TestTick_LowQualityFrameSkipsDetection(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: knownResult("alice")}
	o := testOrchestrator(locator, matcher, &fakeAnnouncer{enabled: true})

	tick := o.Tick(context.Background(), darkFrame(100, 100))

	if tick.Status != StatusReady {
		t.Errorf("expected status ready for dark frame, got %s", tick.Status)
	}
	if locator.detects != 0 {
		t.Error("expected detection skipped for unsuitable frame")
	}
}

func TestTick_KnownPersonRecognizedAndAnnounced(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: knownResult("alice")}
	announcer := &fakeAnnouncer{enabled: true}
	o := testOrchestrator(locator, matcher, announcer)

	tick := o.Tick(context.Background(), checkerFrame(100, 100))

	if tick.Status != StatusRecognized {
		t.Errorf("expected status recognized, got %s", tick.Status)
	}
	if !tick.Announced {
		t.Error("expected announcement on first recognition")
	}
	if len(announcer.announced) != 1 || announcer.announced[0] != "Hello alice!" {
		t.Errorf("unexpected announcements: %v", announcer.announced)
	}
	if tick.FromCache {
		t.Error("expected first recognition to miss the cache")
	}
}

func TestTick_SecondFrameHitsCache(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: knownResult("alice")}
	o := testOrchestrator(locator, matcher, &fakeAnnouncer{enabled: true})

	frame := checkerFrame(100, 100)
	o.Tick(context.Background(), frame)
	tick := o.Tick(context.Background(), frame)

	if matcher.calls != 1 {
		t.Errorf("expected 1 matcher call, got %d", matcher.calls)
	}
	if !tick.FromCache {
		t.Error("expected second tick served from cache")
	}
}

func TestTick_CooldownSuppresssesRepeatAnnouncement(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: knownResult("alice")}
	announcer := &fakeAnnouncer{enabled: true}
	o := testOrchestrator(locator, matcher, announcer)

	frame := checkerFrame(100, 100)
	o.Tick(context.Background(), frame)
	tick := o.Tick(context.Background(), frame)

	if tick.Announced {
		t.Error("expected cooldown to suppress the second announcement")
	}
	if len(announcer.announced) != 1 {
		t.Errorf("expected a single announcement, got %d", len(announcer.announced))
	}
}

func TestTick_UnknownPersonNotAnnounced(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: recognize.Result{
		PersonID:  recognize.UnknownPerson,
		Known:     false,
		Timestamp: time.Now(),
	}}
	announcer := &fakeAnnouncer{enabled: true}
	o := testOrchestrator(locator, matcher, announcer)

	tick := o.Tick(context.Background(), checkerFrame(100, 100))

	if tick.Status != StatusUnknown {
		t.Errorf("expected status unknown, got %s", tick.Status)
	}
	if len(announcer.announced) != 0 {
		t.Errorf("expected no announcements, got %v", announcer.announced)
	}
}

func TestTick_DetectorFailureReportsError(t *testing.T) {
	locator := &fakeLocator{err: errors.New("engine down")}
	matcher := &fakeMatcher{result: knownResult("alice")}
	o := testOrchestrator(locator, matcher, &fakeAnnouncer{enabled: true})

	tick := o.Tick(context.Background(), checkerFrame(100, 100))

	if tick.Status != StatusError {
		t.Errorf("expected status error, got %s", tick.Status)
	}
	if matcher.calls != 0 {
		t.Error("expected matcher untouched on detection failure")
	}

	// Recoverable: the next tick with a healthy detector proceeds normally.
	locator.err = nil
	locator.regions = []detect.Region{faceRegion()}
	tick = o.Tick(context.Background(), checkerFrame(100, 100))
	if tick.Status != StatusRecognized {
		t.Errorf("expected recovery on next tick, got %s", tick.Status)
	}
}

func TestTick_UnconfiguredEngineReportsError(t *testing.T) {
	o := testOrchestrator(&fakeLocator{}, &fakeMatcher{}, &fakeAnnouncer{})
	o.locator = detect.NewLocator(engine.New(""))

	tick := o.Tick(context.Background(), checkerFrame(100, 100))
	if tick.Status != StatusError {
		t.Errorf("expected status error without a face engine, got %s", tick.Status)
	}
}

func TestTick_RecordsQueryEmbedding(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: knownResult("alice"), embedding: []float32{1, 0, 0}}
	o := testOrchestrator(locator, matcher, &fakeAnnouncer{enabled: true})
	hist := &fakeHistory{}
	o.history = hist

	frame := checkerFrame(100, 100)
	o.Tick(context.Background(), frame)
	o.Tick(context.Background(), frame)

	if len(hist.embeddings) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(hist.embeddings))
	}
	if len(hist.embeddings[0]) != 3 {
		t.Error("expected fresh recognition to record the query embedding")
	}
	if hist.embeddings[1] != nil {
		t.Error("expected cache hit to record no embedding")
	}
}

func TestInvalidateCache_ResetsCooldown(t *testing.T) {
	locator := &fakeLocator{regions: []detect.Region{faceRegion()}}
	matcher := &fakeMatcher{result: knownResult("alice")}
	announcer := &fakeAnnouncer{enabled: true}
	o := testOrchestrator(locator, matcher, announcer)

	frame := checkerFrame(100, 100)
	o.Tick(context.Background(), frame)
	o.InvalidateCache("alice")
	tick := o.Tick(context.Background(), frame)

	if !tick.Announced {
		t.Error("expected announcement after cache invalidation")
	}
	if tick.FromCache {
		t.Error("expected fresh recognition after invalidation")
	}
}

// fakeCamera serves frames from a slice. Once exhausted it reports err, or
// the idle ErrNoFrame condition when err is nil.
type fakeCamera struct {
	frames   []image.Image
	err      error
	idx      int
	released bool
	initOK   bool
}

func (c *fakeCamera) Initialize() bool { return c.initOK }

func (c *fakeCamera) Frame() (image.Image, error) {
	if c.idx >= len(c.frames) {
		if c.err != nil {
			return nil, c.err
		}
		return nil, ErrNoFrame
	}
	f := c.frames[c.idx]
	c.idx++
	return f, nil
}

func (c *fakeCamera) Release() { c.released = true }

func TestRun_InitFailure(t *testing.T) {
	o := testOrchestrator(&fakeLocator{}, &fakeMatcher{}, &fakeAnnouncer{})
	if err := o.Run(context.Background(), &fakeCamera{initOK: false}); err == nil {
		t.Error("expected error when camera initialization fails")
	}
}

func TestRun_RepeatedCaptureFailuresFatal(t *testing.T) {
	o := testOrchestrator(&fakeLocator{}, &fakeMatcher{}, &fakeAnnouncer{})
	o.throttle = &Throttle{interval: time.Millisecond, skip: 1}

	camera := &fakeCamera{initOK: true, err: errors.New("device gone")}
	err := o.Run(context.Background(), camera)
	if err == nil {
		t.Fatal("expected fatal error after repeated capture failures")
	}
	if !camera.released {
		t.Error("expected camera released on fatal error")
	}
}

func TestRun_EmptySpoolIsNotFatal(t *testing.T) {
	o := testOrchestrator(&fakeLocator{}, &fakeMatcher{}, &fakeAnnouncer{})
	o.throttle = &Throttle{interval: time.Millisecond, skip: 1}

	// A camera with nothing to deliver idles; well past 5 polls, the loop
	// must still be alive when the context expires.
	camera := &fakeCamera{initOK: true}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := o.Run(ctx, camera); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline, got %v", err)
	}
	if !camera.released {
		t.Error("expected camera released on context expiry")
	}
}

func TestRun_ContextCancel(t *testing.T) {
	o := testOrchestrator(&fakeLocator{}, &fakeMatcher{}, &fakeAnnouncer{})
	o.throttle = &Throttle{interval: time.Millisecond, skip: 1}

	frames := make([]image.Image, 1000)
	for i := range frames {
		frames[i] = checkerFrame(10, 10)
	}
	camera := &fakeCamera{initOK: true, frames: frames}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := o.Run(ctx, camera); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !camera.released {
		t.Error("expected camera released on cancel")
	}
}

func TestThrottle_ShouldProcess(t *testing.T) {
	th := NewThrottle(10, 2)

	var processed int
	for i := 0; i < 10; i++ {
		if th.ShouldProcess() {
			processed++
		}
	}
	if processed != 5 {
		t.Errorf("expected every 2nd frame processed, got %d of 10", processed)
	}
}

func TestThrottle_Defaults(t *testing.T) {
	th := NewThrottle(0, 0)
	if th.Interval() != 100*time.Millisecond {
		t.Errorf("expected 100ms interval for 10 FPS, got %s", th.Interval())
	}
}

func TestEvents_PublishSubscribe(t *testing.T) {
	e := NewEvents()

	ch, cancel := e.Subscribe()
	defer cancel()

	e.Publish(Event{Type: EventRecognition, PersonID: "alice"})

	select {
	case ev := <-ch:
		if ev.Type != EventRecognition || ev.PersonID != "alice" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("expected timestamp set on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("expected event delivery")
	}
}

func TestEvents_CancelClosesChannel(t *testing.T) {
	e := NewEvents()
	ch, cancel := e.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}
	if e.Subscribers() != 0 {
		t.Errorf("expected no subscribers, got %d", e.Subscribers())
	}
}
