package matcher

import "testing"

func results(pass, fail int) []ComparisonResult {
	out := make([]ComparisonResult, 0, pass+fail)
	for i := 0; i < pass; i++ {
		out = append(out, ComparisonResult{IsWithinTolerance: true})
	}
	for i := 0; i < fail; i++ {
		out = append(out, ComparisonResult{})
	}
	return out
}

func TestCompliance(t *testing.T) {
	tests := []struct {
		name       string
		pass, fail int
		want       int
	}{
		{"empty", 0, 0, 0},
		{"all pass", 5, 0, 100},
		{"none pass", 0, 4, 0},
		{"two of three", 2, 1, 67},
		{"one of three", 1, 2, 33},
		{"half", 1, 1, 50},
		{"four of five", 4, 1, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compliance(results(tt.pass, tt.fail)); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		compliance int
		want       Status
	}{
		{100, StatusCompliant},
		{90, StatusCompliant},
		{89, StatusNeedsReview},
		{75, StatusNeedsReview},
		{74, StatusNonCompliant},
		{0, StatusNonCompliant},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.compliance); got != tt.want {
			t.Errorf("StatusFor(%d): got %q, want %q", tt.compliance, got, tt.want)
		}
	}
}
