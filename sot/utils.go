package sot

// clampInt limits v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// withinOpen reports whether v lies strictly inside (center-window, center+window).
func withinOpen(v, center, window int) bool {
	return v > center-window && v < center+window
}
