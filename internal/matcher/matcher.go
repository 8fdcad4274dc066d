// Package matcher decides whether colors extracted from a design are close
// enough to a brand palette.
//
// A sample is compared against every reference color with CIEDE2000 and the
// nearest one is kept. The sample then passes if that distance is within an
// effective tolerance derived from the profile's base tolerance and the share
// of the image the sample covers: large areas are held to a stricter bar than
// small accents.
package matcher

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/deltae"
)

// Default tolerance policy.
const (
	// AreaThreshold is the area percentage at or above which a sample is
	// considered prominent.
	AreaThreshold = 30.0

	// StrictFactor scales the base tolerance for prominent samples.
	StrictFactor = 0.9

	// LenientFactor scales the base tolerance for minor samples.
	LenientFactor = 1.1
)

// ErrInvalidArgument is returned when a comparison is requested with inputs
// that cannot produce a result, such as an empty palette.
var ErrInvalidArgument = errors.New("invalid argument")

var distance = deltae.CIEDE2000

// Policy adjusts the base tolerance according to a sample's area weight.
type Policy struct {
	AreaThreshold float64 `json:"area_threshold"`
	StrictFactor  float64 `json:"strict_factor"`
	LenientFactor float64 `json:"lenient_factor"`
}

// DefaultPolicy is the 30% / 0.9 / 1.1 policy.
var DefaultPolicy = Policy{
	AreaThreshold: AreaThreshold,
	StrictFactor:  StrictFactor,
	LenientFactor: LenientFactor,
}

// EffectiveTolerance returns the tolerance a sample with the given area weight
// must meet.
func (p Policy) EffectiveTolerance(areaWeight, baseTolerance float64) float64 {
	if areaWeight >= p.AreaThreshold {
		return baseTolerance * p.StrictFactor
	}
	return baseTolerance * p.LenientFactor
}

// ComparisonResult is the outcome of matching one sample against a palette.
type ComparisonResult struct {
	Sample            SampleColor    `json:"extracted_color"`
	Closest           ReferenceColor `json:"closest_brand_color"`
	DeltaE            float64        `json:"delta_e"`
	Tolerance         float64        `json:"effective_tolerance"`
	IsWithinTolerance bool           `json:"is_within_tolerance"`
}

// Match compares sample against refs using DefaultPolicy.
func Match(sample SampleColor, refs []ReferenceColor, baseTolerance float64) (ComparisonResult, error) {
	return DefaultPolicy.Match(sample, refs, baseTolerance)
}

// Match finds the reference nearest to sample and checks it against the
// effective tolerance.
//
// The nearest reference is the one with the strictly smallest distance, so on
// an exact tie the one listed first wins. The tolerance boundary is inclusive.
//
// Returns an error wrapping ErrInvalidArgument if refs is empty.
func (p Policy) Match(sample SampleColor, refs []ReferenceColor, baseTolerance float64) (ComparisonResult, error) {
	if len(refs) == 0 {
		return ComparisonResult{}, fmt.Errorf("match %s: no reference colors: %w", sample.RGB.Hex(), ErrInvalidArgument)
	}

	sampleLab := colorspace.ToLab(sample.RGB)

	best := 0
	bestDistance := math.Inf(1)
	for i, ref := range refs {
		d := distance(sampleLab, colorspace.ToLab(ref.RGB))
		if d < bestDistance {
			best = i
			bestDistance = d
		}
	}

	tolerance := p.EffectiveTolerance(sample.AreaWeight, baseTolerance)

	return ComparisonResult{
		Sample:            sample,
		Closest:           refs[best],
		DeltaE:            bestDistance,
		Tolerance:         tolerance,
		IsWithinTolerance: bestDistance <= tolerance,
	}, nil
}
