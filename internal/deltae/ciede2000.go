// Package deltae computes perceptual color differences.
//
// CIEDE2000 follows Sharma, Wu and Dalal, "The CIEDE2000 Color-Difference
// Formula: Implementation Notes, Supplementary Test Data, and Mathematical
// Observations" (2005), with the parametric factors kL = kC = kH = 1.
package deltae

import (
	"math"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
)

// pow25To7 is 25^7.
const pow25To7 = 6103515625.0

// CIEDE2000 returns the ΔE00 distance between two Lab colors. The result is
// never negative and never NaN, including for achromatic inputs.
func CIEDE2000(c1, c2 colorspace.LabColor) float64 {
	// Chroma and the a-axis compensation G.
	C1 := math.Hypot(c1.A, c1.B)
	C2 := math.Hypot(c2.A, c2.B)
	G := 0.5 * (1 - chromaWeight((C1+C2)/2))

	a1p := c1.A * (1 + G)
	a2p := c2.A * (1 + G)
	C1p := math.Hypot(a1p, c1.B)
	C2p := math.Hypot(a2p, c2.B)
	h1p := hueAngle(c1.B, a1p)
	h2p := hueAngle(c2.B, a2p)

	// Differences.
	dLp := c2.L - c1.L
	dCp := C2p - C1p

	zeroChroma := C1p*C2p == 0

	var dhp float64
	if !zeroChroma {
		dhp = h2p - h1p
		switch {
		case dhp > 180:
			dhp -= 360
		case dhp < -180:
			dhp += 360
		}
	}
	dHp := 2 * math.Sqrt(C1p*C2p) * math.Sin(deg2Rad(dhp/2))

	// Means.
	Lbar := (c1.L + c2.L) / 2
	Cbarp := (C1p + C2p) / 2

	var hbarp float64
	switch {
	case zeroChroma:
		hbarp = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hbarp = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hbarp = (h1p + h2p + 360) / 2
	default:
		hbarp = (h1p + h2p - 360) / 2
	}

	// Weighting functions.
	T := 1 -
		0.17*math.Cos(deg2Rad(hbarp-30)) +
		0.24*math.Cos(deg2Rad(2*hbarp)) +
		0.32*math.Cos(deg2Rad(3*hbarp+6)) -
		0.20*math.Cos(deg2Rad(4*hbarp-63))

	lDev := (Lbar - 50) * (Lbar - 50)
	SL := 1 + 0.015*lDev/math.Sqrt(20+lDev)

	SC, SH, RT := 1.0, 1.0, 0.0
	if Cbarp != 0 {
		SC = 1 + 0.045*Cbarp
		SH = 1 + 0.015*Cbarp*T
		dTheta := 60 * math.Exp(-math.Pow((hbarp-275)/25, 2))
		RT = -2 * chromaWeight(Cbarp) * math.Sin(deg2Rad(dTheta))
	}

	l := dLp / SL
	c := dCp / SC
	h := dHp / SH

	sum := l*l + c*c + h*h + RT*c*h
	if sum <= 0 {
		return 0
	}
	return math.Sqrt(sum)
}

// BetweenRGB converts both colors to Lab and returns their ΔE00 distance.
func BetweenRGB(a, b colorspace.RGBColor) float64 {
	return CIEDE2000(colorspace.ToLab(a), colorspace.ToLab(b))
}

// chromaWeight is sqrt(C^7 / (C^7 + 25^7)), shared by G and RT.
func chromaWeight(c float64) float64 {
	c7 := math.Pow(c, 7)
	if c7 == 0 {
		return 0
	}
	return math.Sqrt(c7 / (c7 + pow25To7))
}

// hueAngle returns atan2(b, a) in degrees, normalized to [0,360).
func hueAngle(b, a float64) float64 {
	h := rad2Deg(math.Atan2(b, a))
	if h < 0 {
		h += 360
	}
	return h
}

func deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// rad2Deg multiplies before dividing. Folding 180/π into one factor rounds
// opposite hues (Sharma pair 14) to just past 180° and flips the Δh′ branch.
func rad2Deg(rad float64) float64 {
	return rad * 180 / math.Pi
}
