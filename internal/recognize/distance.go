package recognize

import "math"

// Distance metric names accepted by the matcher.
const (
	MetricCosine      = "cosine"
	MetricEuclidean   = "euclidean"
	MetricEuclideanL2 = "euclidean_l2"
)

// CosineDistance computes the cosine distance between two vectors.
// Returns a value between 0 (identical) and 2 (opposite).
// Cosine distance = 1 - cosine similarity.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0 // Maximum distance for invalid input
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 2.0 // Maximum distance for zero vectors
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}

// EuclideanDistance computes the straight-line distance between two vectors.
// Returns +Inf for invalid input so callers map it to zero confidence.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// EuclideanL2Distance computes the euclidean distance between the
// L2-normalized forms of the two vectors.
func EuclideanL2Distance(a, b []float32) float64 {
	na := l2Normalize(a)
	nb := l2Normalize(b)
	if na == nil || nb == nil {
		return math.Inf(1)
	}
	return EuclideanDistance(na, nb)
}

func l2Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// distanceFunc returns the distance function for a metric name. Unknown
// metrics fall back to cosine.
func distanceFunc(metric string) func(a, b []float32) float64 {
	switch metric {
	case MetricEuclidean:
		return EuclideanDistance
	case MetricEuclideanL2:
		return EuclideanL2Distance
	default:
		return CosineDistance
	}
}

// DistanceToConfidence converts a match distance into a confidence score in
// [0,1] for the given metric. Unknown metrics use the cosine conversion.
func DistanceToConfidence(metric string, distance float64) float64 {
	var confidence float64
	switch metric {
	case MetricEuclidean:
		// Euclidean distance: lower is better, normalize to 0-1.
		confidence = 1.0 - distance/2.0
	case MetricCosine, MetricEuclideanL2:
		confidence = 1.0 - distance
	default:
		confidence = 1.0 - distance
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
