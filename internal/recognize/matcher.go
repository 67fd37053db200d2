// Package recognize matches face images against the enrolled gallery and
// converts engine distances into identity decisions.
package recognize

import (
	"context"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"github.com/kozaktomas/memory-mirror/internal/engine"
	"github.com/kozaktomas/memory-mirror/internal/vision"
)

// UnknownPerson is the sentinel identity for faces that match nobody.
const UnknownPerson = "unknown"

// Result is the outcome of matching one face image. Immutable once
// constructed.
type Result struct {
	PersonID   string    `json:"person_id"`
	Confidence float64   `json:"confidence"`
	Known      bool      `json:"is_known"`
	Distance   float64   `json:"distance"`
	Timestamp  time.Time `json:"timestamp"`
	Matcher    string    `json:"matcher"`
}

// unknownResult builds the neutral result returned for every failure path.
func unknownResult(matcher string) Result {
	return Result{
		PersonID:  UnknownPerson,
		Known:     false,
		Timestamp: time.Now(),
		Matcher:   matcher,
	}
}

// GalleryEmbedding is one enrolled reference image reduced to its embedding.
type GalleryEmbedding struct {
	PersonID  string
	ImagePath string
	Embedding []float32
}

// Matcher compares query faces against per-person gallery embeddings.
type Matcher struct {
	engine *engine.Client
	model  string

	mu        sync.RWMutex
	metric    string
	threshold float64
	gallery   map[string][]GalleryEmbedding // person id -> embeddings
}

// NewMatcher creates a matcher. The gallery starts empty; call SetGallery
// once embeddings are available.
func NewMatcher(client *engine.Client, model, metric string, threshold float64) *Matcher {
	return &Matcher{
		engine:    client,
		model:     model,
		metric:    metric,
		threshold: clamp01(threshold),
		gallery:   make(map[string][]GalleryEmbedding),
	}
}

// SetGallery replaces the enrolled embeddings. Persons with zero embeddings
// contribute no candidate and may be omitted entirely.
func (m *Matcher) SetGallery(embeddings []GalleryEmbedding) {
	gallery := make(map[string][]GalleryEmbedding)
	for _, e := range embeddings {
		if len(e.Embedding) == 0 {
			continue
		}
		gallery[e.PersonID] = append(gallery[e.PersonID], e)
	}

	m.mu.Lock()
	m.gallery = gallery
	m.mu.Unlock()
}

// KnownPersons returns the ids of persons with at least one embedding.
func (m *Matcher) KnownPersons() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	persons := make([]string, 0, len(m.gallery))
	for id := range m.gallery {
		persons = append(persons, id)
	}
	return persons
}

// ConfidenceThreshold returns the current acceptance threshold.
func (m *Matcher) ConfidenceThreshold() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.threshold
}

// SetConfidenceThreshold updates the acceptance threshold, clamped to [0,1].
func (m *Matcher) SetConfidenceThreshold(threshold float64) {
	m.mu.Lock()
	m.threshold = clamp01(threshold)
	m.mu.Unlock()
}

// SetDistanceMetric updates the distance metric at runtime.
func (m *Matcher) SetDistanceMetric(metric string) {
	m.mu.Lock()
	m.metric = metric
	m.mu.Unlock()
}

// Recognize matches a face image against the gallery. It never returns an
// error: an unavailable engine, empty gallery or nil image all yield the
// unknown result.
func (m *Matcher) Recognize(ctx context.Context, faceImage image.Image) Result {
	result, _ := m.RecognizeEmbedding(ctx, faceImage)
	return result
}

// RecognizeEmbedding is Recognize plus the query embedding, so callers can
// persist the embedding alongside the result. The embedding is nil on every
// failure path.
func (m *Matcher) RecognizeEmbedding(ctx context.Context, faceImage image.Image) (Result, []float32) {
	if faceImage == nil || m.engine == nil || !m.engine.Available() {
		return unknownResult(m.model), nil
	}

	m.mu.RLock()
	galleryEmpty := len(m.gallery) == 0
	m.mu.RUnlock()
	if galleryEmpty {
		return unknownResult(m.model), nil
	}

	data, err := vision.EncodeJPEG(faceImage)
	if err != nil {
		log.Printf("recognize: failed to encode face: %v", err)
		return unknownResult(m.model), nil
	}

	query, err := m.engine.EmbedFace(ctx, data)
	if err != nil {
		log.Printf("recognize: embedding failed: %v", err)
		return unknownResult(m.model), nil
	}

	return m.Match(query), query
}

// Match compares a query embedding against the gallery: per person, average
// the distances to every enrolled image, then accept the closest person only
// when the converted confidence clears the threshold. The raw distance and
// confidence are reported for diagnostics even when the identity is rejected.
func (m *Matcher) Match(query []float32) Result {
	m.mu.RLock()
	metric := m.metric
	threshold := m.threshold
	gallery := m.gallery
	m.mu.RUnlock()

	dist := distanceFunc(metric)

	bestPerson := UnknownPerson
	bestDistance := math.Inf(1)

	for personID, embeddings := range gallery {
		var sum float64
		var count int
		for _, e := range embeddings {
			d := dist(query, e.Embedding)
			if math.IsInf(d, 1) {
				continue
			}
			sum += d
			count++
		}
		if count == 0 {
			continue
		}

		avg := sum / float64(count)
		if avg < bestDistance {
			bestDistance = avg
			bestPerson = personID
		}
	}

	if math.IsInf(bestDistance, 1) {
		return unknownResult(m.model)
	}

	confidence := DistanceToConfidence(metric, bestDistance)
	known := confidence >= threshold
	if !known {
		bestPerson = UnknownPerson
	}

	return Result{
		PersonID:   bestPerson,
		Confidence: confidence,
		Known:      known,
		Distance:   bestDistance,
		Timestamp:  time.Now(),
		Matcher:    m.model,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
