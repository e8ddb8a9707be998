// Package fitness compares two benchmark snapshots and produces a
// signed score and a discrete verdict.
package fitness

// Verdict is a tagged classification of a fitness score.
type Verdict string

const (
	VerdictImproved  Verdict = "improved"
	VerdictNeutral   Verdict = "neutral"
	VerdictRegressed Verdict = "regressed"
)

// Weights are the per-metric contributions to a fitness score.
type Weights struct {
	Time   float64
	Memory float64
	Lines  float64
}

// DefaultWeights match spec: 60% time, 30% memory, 10% code size. Used
// whenever a caller has no config-driven override (e.g. pkg/bench's own
// representative call for this target).
var DefaultWeights = Weights{Time: 0.6, Memory: 0.3, Lines: 0.1}

// DefaultThreshold is the absolute score magnitude below which a result
// is classified neutral rather than improved or regressed, absent a
// config-driven override.
const DefaultThreshold = 0.05

// Score compares a before/after pair of benchmark maps using weights
// and threshold, and returns a signed score (positive = better) and its
// verdict. Missing keys contribute 0. A neutral verdict always reports
// score = 0.0 exactly, preserving threshold semantics even when the
// underlying score is a tiny non-zero value.
func Score(before, after map[string]float64, weights Weights, threshold float64) (float64, Verdict) {
	score := weights.Time*ratio(before, after, "execution_time_us") +
		weights.Memory*ratio(before, after, "memory_bytes") +
		weights.Lines*ratio(before, after, "code_size_lines")

	switch {
	case score > threshold:
		return score, VerdictImproved
	case score < -threshold:
		return score, VerdictRegressed
	default:
		return 0.0, VerdictNeutral
	}
}

// ratio computes (before[key] - after[key]) / before[key]. A missing
// key on either side, or a non-positive before value, contributes 0.
func ratio(before, after map[string]float64, key string) float64 {
	b, ok := before[key]
	if !ok || b <= 0 {
		return 0
	}
	a, ok := after[key]
	if !ok {
		return 0
	}
	return (b - a) / b
}
