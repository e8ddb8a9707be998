package validator

import "strings"

// sizeLimit computes the changed-line count between old and new source
// and rejects when it exceeds a cap proportional to the old source's
// length. Prevents wholesale rewrites; encourages small, surgical
// changes a human can review.
func sizeLimit(oldSource, newSource string) *Rejection {
	oldLines := strings.Split(oldSource, "\n")
	newLines := strings.Split(newSource, "\n")

	changed := abs(len(newLines)-len(oldLines)) + countDiffering(oldLines, newLines)
	cap := clamp(round(0.6*float64(len(oldLines))), 20, 80)

	if changed > cap {
		return tooManyChanges(changed, cap)
	}
	return nil
}

func countDiffering(a, b []string) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	count := 0
	for i := 0; i < n; i++ {
		var av, bv string
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			count++
		}
	}
	return count
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func round(f float64) int {
	return int(f + 0.5)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
