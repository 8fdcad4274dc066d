package colorspace

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// D65 reference white for the 2° standard observer, scaled so Yn = 100.
const (
	WhiteX = 95.047
	WhiteY = 100.0
	WhiteZ = 108.883
)

// Thresholds of the sRGB transfer function and the Lab companding function.
const (
	gammaThreshold = 0.04045
	labEpsilon     = 0.008856
	labKappa       = 7.787
)

// RGBColor is an 8-bit sRGB color without alpha.
type RGBColor struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// XYZColor holds CIE XYZ tristimulus values scaled so that white has Y = 100.
type XYZColor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LabColor is a CIE L*a*b* color relative to the D65 white point.
//
// L is nominally 0-100 and may overshoot slightly from rounding. A (green to
// red) and B (blue to yellow) are unbounded.
type LabColor struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Linearize undoes the sRGB gamma encoding of one 8-bit channel, returning a
// linear intensity in [0,1].
func Linearize(c uint8) float64 {
	v := float64(c) / 255.0
	if v > gammaThreshold {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

// ToXYZ converts an sRGB color to XYZ using the D65/2° matrix.
func ToXYZ(rgb RGBColor) XYZColor {
	r := Linearize(rgb.R) * 100
	g := Linearize(rgb.G) * 100
	b := Linearize(rgb.B) * 100

	return XYZColor{
		X: r*0.4124 + g*0.3576 + b*0.1805,
		Y: r*0.2126 + g*0.7152 + b*0.0722,
		Z: r*0.0193 + g*0.1192 + b*0.9505,
	}
}

// XYZToLab converts XYZ to L*a*b* against the D65 reference white.
func XYZToLab(xyz XYZColor) LabColor {
	fx := labF(xyz.X / WhiteX)
	fy := labF(xyz.Y / WhiteY)
	fz := labF(xyz.Z / WhiteZ)

	return LabColor{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// ToLab converts an sRGB color to L*a*b*. It is pure and is recomputed on
// every call.
func ToLab(rgb RGBColor) LabColor {
	return XYZToLab(ToXYZ(rgb))
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + 16.0/116.0
}

// FromColor converts any color.Color to 8-bit RGB, discarding alpha.
func FromColor(c color.Color) RGBColor {
	r, g, b, _ := c.RGBA()
	return RGBColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// ParseHex parses "#RRGGBB", "RRGGBB", "#RGB" or "RGB" (case-insensitive).
func ParseHex(s string) (RGBColor, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: expected 3 or 6 hex digits", s)
	}

	c, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	r, g, b := c.RGB255()
	return RGBColor{R: r, G: g, B: b}, nil
}

// MustParseHex is like ParseHex but panics on malformed input. Intended for
// constants and tests.
func MustParseHex(s string) RGBColor {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as "#RRGGBB".
func (c RGBColor) Hex() string {
	return strings.ToUpper(c.colorful().Hex())
}

// String implements fmt.Stringer.
func (c RGBColor) String() string {
	return c.Hex()
}

// RGBA implements color.Color so an RGBColor can be drawn directly.
func (c RGBColor) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Luminance is the perceived brightness in [0,1] using ITU-R BT.601 weights.
func (c RGBColor) Luminance() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// IsLight reports whether dark text reads better than light text on c.
func (c RGBColor) IsLight() bool {
	return c.Luminance() > 0.5
}

// ContrastText returns "#000000" for light colors and "#FFFFFF" otherwise.
func (c RGBColor) ContrastText() string {
	if c.IsLight() {
		return "#000000"
	}
	return "#FFFFFF"
}

func (c RGBColor) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}
