package pattern

// Distance returns the dissimilarity of a and b in [0,1]: one minus the share
// of positions (over the longer pattern) holding equal elements. Positions are
// compared pairwise up to the shorter length; extra trailing tokens only
// lengthen the denominator.
//
// The scan stops as soon as the running distance drops below maxDist, so the
// returned value is exact only for pairs that do not pass the threshold. Use it
// for accept/reject decisions, not as a metric.
func Distance(a, b Pattern, maxDist float64) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	// Counting matches keeps identical patterns at exactly 0.
	denom := float64(maxLen)
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
		if d := 1 - float64(matches)/denom; d < maxDist {
			return d
		}
	}
	return 1 - float64(matches)/denom
}
