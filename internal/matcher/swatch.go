package matcher

import (
	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
)

// Swatch is a color taking part in a comparison. The set of implementations is
// closed: a swatch is either a SampleColor taken from an image or a
// ReferenceColor from a brand palette.
type Swatch interface {
	// Color returns the swatch's sRGB value.
	Color() colorspace.RGBColor

	// Lab returns the swatch's CIE L*a*b* value.
	Lab() colorspace.LabColor

	swatch()
}

// SampleColor is a color extracted from an image together with the share of
// the image it covers.
type SampleColor struct {
	RGB colorspace.RGBColor `json:"rgb"`
	Hex string              `json:"hex"`

	// AreaWeight is the percentage of the image (0-100) covered by this color.
	AreaWeight float64 `json:"percentage"`
}

// NewSampleColor builds a sample from an RGB value and its area percentage.
func NewSampleColor(rgb colorspace.RGBColor, areaWeight float64) SampleColor {
	return SampleColor{RGB: rgb, Hex: rgb.Hex(), AreaWeight: areaWeight}
}

// Color implements Swatch.
func (s SampleColor) Color() colorspace.RGBColor { return s.RGB }

// Lab implements Swatch.
func (s SampleColor) Lab() colorspace.LabColor { return colorspace.ToLab(s.RGB) }

func (SampleColor) swatch() {}

// ReferenceColor is a named entry of a brand palette.
type ReferenceColor struct {
	Name        string              `json:"name"`
	RGB         colorspace.RGBColor `json:"rgb"`
	Hex         string              `json:"hex"`
	Description string              `json:"description,omitempty"`
}

// NewReferenceColor builds a palette entry.
func NewReferenceColor(name string, rgb colorspace.RGBColor) ReferenceColor {
	return ReferenceColor{Name: name, RGB: rgb, Hex: rgb.Hex()}
}

// Color implements Swatch.
func (r ReferenceColor) Color() colorspace.RGBColor { return r.RGB }

// Lab implements Swatch.
func (r ReferenceColor) Lab() colorspace.LabColor { return colorspace.ToLab(r.RGB) }

func (ReferenceColor) swatch() {}

// Distance is the CIEDE2000 distance between any two swatches.
func Distance(a, b Swatch) float64 {
	return distance(a.Lab(), b.Lab())
}
