package kiosk

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/memory-mirror/internal/audio"
	"github.com/kozaktomas/memory-mirror/internal/cache"
	"github.com/kozaktomas/memory-mirror/internal/cooldown"
	"github.com/kozaktomas/memory-mirror/internal/detect"
	"github.com/kozaktomas/memory-mirror/internal/gallery"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
	"github.com/kozaktomas/memory-mirror/internal/vision"
)

// maxConsecutiveErrors aborts the capture loop when the camera fails this
// many times in a row.
const maxConsecutiveErrors = 5

// Pipeline status values exposed to the web UI.
const (
	StatusReady      = "ready"
	StatusDetecting  = "detecting"
	StatusRecognized = "recognized"
	StatusUnknown    = "unknown"
	StatusError      = "error"
)

// TickResult is the outcome of processing one frame.
type TickResult struct {
	Status    string            `json:"status"`
	Result    *recognize.Result `json:"result,omitempty"`
	Region    *detect.Region    `json:"region,omitempty"`
	FromCache bool              `json:"from_cache"`
	Announced bool              `json:"announced"`
	Timestamp time.Time         `json:"timestamp"`
}

// faceLocator finds faces in frames and extracts normalized face crops.
type faceLocator interface {
	Detect(ctx context.Context, frame image.Image) ([]detect.Region, error)
	Extract(frame image.Image, region detect.Region) image.Image
}

// recognizer matches a face crop against the enrolled gallery and reports
// the query embedding for the history store.
type recognizer interface {
	RecognizeEmbedding(ctx context.Context, face image.Image) (recognize.Result, []float32)
}

// announcer speaks greetings. Satisfied by audio.Manager.
type announcer interface {
	Announce(personID, message, lang string) *audio.Announcement
	Busy() bool
	Enabled() bool
}

// historyRecorder persists recognition events. Satisfied by history.Store.
type historyRecorder interface {
	Record(ctx context.Context, result recognize.Result, fromCache, announced bool, embedding []float32) (string, error)
}

// Orchestrator wires the recognition pipeline: quality gate, face locator,
// fingerprint cache, identity matcher, cooldown gate and announcements.
type Orchestrator struct {
	quality  *vision.QualityGate
	locator  faceLocator
	matcher  recognizer
	cache    *cache.Cache
	hasher   *cache.Hasher
	gate     *cooldown.Gate
	gallery  *gallery.Store
	audio    announcer
	history  historyRecorder
	events   *Events
	throttle *Throttle

	mu         sync.Mutex
	lastTick   TickResult
	errorCount int
}

// Options carries the orchestrator collaborators. History may be nil.
type Options struct {
	Quality  *vision.QualityGate
	Locator  *detect.Locator
	Matcher  *recognize.Matcher
	Cache    *cache.Cache
	Hasher   *cache.Hasher
	Cooldown *cooldown.Gate
	Gallery  *gallery.Store
	Audio    *audio.Manager
	History  historyRecorder
	Events   *Events
	Throttle *Throttle
}

// New creates an orchestrator from its collaborators.
func New(opts Options) *Orchestrator {
	events := opts.Events
	if events == nil {
		events = NewEvents()
	}
	throttle := opts.Throttle
	if throttle == nil {
		throttle = NewThrottle(0, 0)
	}
	o := &Orchestrator{
		quality:  opts.Quality,
		cache:    opts.Cache,
		hasher:   opts.Hasher,
		gate:     opts.Cooldown,
		gallery:  opts.Gallery,
		history:  opts.History,
		events:   events,
		throttle: throttle,
	}
	// Assign interfaces only for non-nil collaborators so nil checks on the
	// interface fields keep working.
	if opts.Locator != nil {
		o.locator = opts.Locator
	}
	if opts.Matcher != nil {
		o.matcher = opts.Matcher
	}
	if opts.Audio != nil {
		o.audio = opts.Audio
	}
	return o
}

// Events returns the event hub for SSE subscribers.
func (o *Orchestrator) Events() *Events { return o.events }

// Cache returns the recognition cache for administrative handlers.
func (o *Orchestrator) Cache() *cache.Cache { return o.cache }

// LastTick returns the most recent tick result.
func (o *Orchestrator) LastTick() TickResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastTick
}

// InvalidateCache drops cached results, for one person or everyone, and
// resets their cooldown so a re-enrolled person is greeted again.
func (o *Orchestrator) InvalidateCache(personID string) {
	o.cache.Invalidate(personID)
	o.gate.Clear(personID)
}

// Run drives the capture loop until the context is canceled or the camera
// fails repeatedly. The camera is always released on return.
func (o *Orchestrator) Run(ctx context.Context, camera Camera) error {
	if !camera.Initialize() {
		return fmt.Errorf("camera initialization failed")
	}
	defer camera.Release()

	log.Printf("kiosk: capture loop started (interval %s)", o.throttle.Interval())

	for {
		if err := o.throttle.Wait(ctx); err != nil {
			return err
		}

		frame, err := camera.Frame()
		if err != nil {
			if errors.Is(err, ErrNoFrame) {
				// Nothing in the spool yet. Idle, not a failure.
				continue
			}
			if fatal := o.captureFailed(err); fatal != nil {
				return fatal
			}
			continue
		}
		o.captureSucceeded()

		if !o.throttle.ShouldProcess() {
			continue
		}

		o.Tick(ctx, frame)
	}
}

// captureFailed counts a camera failure and returns an error once the limit
// is reached.
func (o *Orchestrator) captureFailed(err error) error {
	o.mu.Lock()
	o.errorCount++
	count := o.errorCount
	o.mu.Unlock()

	log.Printf("kiosk: frame capture failed (%d/%d): %v", count, maxConsecutiveErrors, err)
	if count >= maxConsecutiveErrors {
		o.events.Publish(Event{Type: EventError, Error: "camera failed repeatedly"})
		return fmt.Errorf("camera failed %d times in a row", count)
	}
	return nil
}

func (o *Orchestrator) captureSucceeded() {
	o.mu.Lock()
	o.errorCount = 0
	o.mu.Unlock()
}

// Tick runs the recognition pipeline on one frame.
func (o *Orchestrator) Tick(ctx context.Context, frame image.Image) TickResult {
	tick := TickResult{Status: StatusReady, Timestamp: time.Now()}

	if !o.quality.Suitable(frame) {
		return o.finish(tick)
	}

	regions, err := o.locator.Detect(ctx, frame)
	if err != nil {
		// Recoverable on the next tick, once the engine is back.
		log.Printf("kiosk: face detection failed: %v", err)
		tick.Status = StatusError
		o.events.Publish(Event{Type: EventError, Error: err.Error()})
		return o.finish(tick)
	}
	region, found := detect.Largest(regions)
	if !found {
		return o.finish(tick)
	}
	tick.Status = StatusDetecting
	tick.Region = &region

	result, embedding, fromCache := o.recognizeRegion(ctx, frame, region)
	tick.Result = &result
	tick.FromCache = fromCache
	if result.Known {
		tick.Status = StatusRecognized
	} else {
		tick.Status = StatusUnknown
	}

	if result.Known && o.gate.ShouldAnnounce(result.PersonID) {
		tick.Announced = o.announce(result)
	}

	o.record(ctx, result, fromCache, tick.Announced, embedding)

	o.events.Publish(Event{
		Type:       EventRecognition,
		PersonID:   result.PersonID,
		Confidence: result.Confidence,
		FromCache:  fromCache,
	})

	return o.finish(tick)
}

// recognizeRegion consults the fingerprint cache before running the
// expensive match. The query embedding is only available on a fresh match;
// cache hits return nil.
func (o *Orchestrator) recognizeRegion(ctx context.Context, frame image.Image, region detect.Region) (recognize.Result, []float32, bool) {
	rect := region.Rect()
	fingerprint := o.hasher.Frame(frame, &rect)

	if result, ok := o.cache.Get(fingerprint); ok {
		return result, nil, true
	}

	face := o.locator.Extract(frame, region)
	result, embedding := o.matcher.RecognizeEmbedding(ctx, face)

	o.cache.Put(fingerprint, result)
	return result, embedding, false
}

// announce speaks the person's greeting and starts their cooldown window.
func (o *Orchestrator) announce(result recognize.Result) bool {
	if o.audio == nil || !o.audio.Enabled() {
		return false
	}

	profile, ok := o.gallery.Profile(result.PersonID)
	if !ok {
		profile = gallery.Profile{ID: result.PersonID, Name: result.PersonID}
	}

	message := profile.VoiceMessageFor(profile.Language)
	if o.audio.Announce(result.PersonID, message, profile.Language) == nil {
		return false
	}

	o.gate.RecordAnnounced(result.PersonID)
	o.events.Publish(Event{
		Type:       EventAnnouncement,
		PersonID:   result.PersonID,
		PersonName: profile.DisplayName(),
		Message:    message,
	})
	return true
}

// record persists the event when a history store is configured. Failures
// are logged, never fatal.
func (o *Orchestrator) record(ctx context.Context, result recognize.Result, fromCache, announced bool, embedding []float32) {
	if o.history == nil {
		return
	}
	if _, err := o.history.Record(ctx, result, fromCache, announced, embedding); err != nil {
		log.Printf("kiosk: could not record recognition event: %v", err)
	}
}

func (o *Orchestrator) finish(tick TickResult) TickResult {
	o.mu.Lock()
	o.lastTick = tick
	o.mu.Unlock()
	return tick
}
