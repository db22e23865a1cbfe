package frontier

import "math"

// FloatPriorityMultiplier converts real-valued scores to integer queue
// priorities. The value fixes the ordering resolution at 1e-4: two scores
// closer than that may map to the same priority, which is acceptable
// because the queue breaks priority ties first-in-first-out.
const FloatPriorityMultiplier = 10000

// ScoreToPriority encodes a model score as an integer priority.
// The mapping is strictly order-preserving: s1 < s2 implies
// ScoreToPriority(s1) <= ScoreToPriority(s2), so ordering by priority is
// equivalent to ordering by the underlying scores.
func ScoreToPriority(score float64) int {
	return int(math.Round(score * FloatPriorityMultiplier))
}

// PriorityToScore decodes an integer priority back to an approximate
// score. The inverse is lossy (quantized to 1/FloatPriorityMultiplier);
// use it for diagnostics only, never for learning.
func PriorityToScore(priority int) float64 {
	return float64(priority) / FloatPriorityMultiplier
}
