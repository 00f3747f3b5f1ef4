package reporting

import "math"

// CompletionRate returns the completed percentage rounded to the nearest
// integer, 0 for an empty set.
func CompletionRate(total, completed int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
