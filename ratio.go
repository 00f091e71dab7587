package modelswitch

import "math"

// SmallInterval returns N, the period of the periodic policy: every Nth
// switching-phase position goes to the small model. N = round(1/r), at least 1.
// It returns 0 for r <= 0, meaning the small model is never used.
func SmallInterval(r float64) int {
	if r <= 0 || math.IsNaN(r) {
		return 0
	}
	n := int(math.Round(1 / r))
	if n < 1 {
		n = 1
	}
	return n
}

// EffectiveRatio is the small-model frequency the periodic policy actually
// achieves for a requested ratio r, which is 1/round(1/r). It only
// approximates r when 1/r is not an integer.
func EffectiveRatio(r float64) float64 {
	n := SmallInterval(r)
	if n == 0 {
		return 0
	}
	return 1 / float64(n)
}
