package history

import (
	"math"
)

// Vector represents a feeder state transition in a fixed basis:
// [load growth kVA, loss growth kW, per-unit sag (millipu), new violations].
type Vector []float64

// Known Patterns (Fingerprints)
var (
	// PatternUniformGrowth is organic demand growth: load and losses
	// climb together, voltage sags gently, few new violations.
	PatternUniformGrowth = Normalize(Vector{1.0, 0.6, 0.3, 0.1})

	// PatternLocalizedFault is a sick segment: losses and violations
	// spike without matching load growth.
	PatternLocalizedFault = Normalize(Vector{0.1, 1.0, 0.8, 1.0})
)

// Transition builds the state-change vector between two snapshots.
// Loss and sag components get rescaled so each axis carries comparable
// weight for small feeders.
func Transition(prev, cur Snapshot) Vector {
	return Vector{
		cur.TotalLoadKVA - prev.TotalLoadKVA,
		(cur.TotalLossKW - prev.TotalLossKW) * 10,
		(prev.MinPerUnit - cur.MinPerUnit) * 1000,
		float64(cur.ViolationCount - prev.ViolationCount),
	}
}

// Normalize returns the unit vector.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return v
	}

	result := make(Vector, len(v))
	for i, x := range v {
		result[i] = x / magnitude
	}
	return result
}

// DotProduct calculates the dot product of two vectors.
func DotProduct(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineSimilarity returns the cosine similarity between two vectors (-1 to 1).
// 1.0 = Identical direction
// 0.0 = Orthogonal (Unrelated)
// -1.0 = Opposite
func CosineSimilarity(a, b Vector) float64 {
	dot := DotProduct(a, b)

	var magA, magB float64
	for _, x := range a {
		magA += x * x
	}
	for _, x := range b {
		magB += x * x
	}

	magA = math.Sqrt(magA)
	magB = math.Sqrt(magB)

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (magA * magB)
}

// ClassifyPattern determines if a transition vector looks like a known pattern.
// Returns "GROWTH", "FAULT", or "UNKNOWN" based on similarity.
func ClassifyPattern(v Vector) string {
	if CosineSimilarity(v, PatternUniformGrowth) > 0.8 {
		return "GROWTH"
	}

	if CosineSimilarity(v, PatternLocalizedFault) > 0.8 {
		return "FAULT"
	}

	return "UNKNOWN"
}
