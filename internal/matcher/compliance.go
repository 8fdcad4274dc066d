package matcher

import "math"

// Status summarizes an overall compliance percentage.
type Status string

const (
	StatusCompliant    Status = "Compliant"
	StatusNeedsReview  Status = "Needs Review"
	StatusNonCompliant Status = "Non-Compliant"
)

// Compliance thresholds (percent) for StatusFor.
const (
	CompliantThreshold   = 90
	NeedsReviewThreshold = 75
)

// Compliance is the rounded percentage of results that are within tolerance.
// An empty slice is 0% compliant.
func Compliance(results []ComparisonResult) int {
	if len(results) == 0 {
		return 0
	}

	passed := 0
	for _, r := range results {
		if r.IsWithinTolerance {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(results))))
}

// StatusFor maps a compliance percentage to a Status.
func StatusFor(compliance int) Status {
	switch {
	case compliance >= CompliantThreshold:
		return StatusCompliant
	case compliance >= NeedsReviewThreshold:
		return StatusNeedsReview
	default:
		return StatusNonCompliant
	}
}
