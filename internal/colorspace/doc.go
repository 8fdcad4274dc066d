// Package colorspace converts 8-bit sRGB colors to CIE XYZ and CIE L*a*b*.
//
// The conversion is the textbook chain used throughout the validator:
//
//  1. Normalize each channel to [0,1] (divide by 255).
//  2. Undo the sRGB gamma: ((c+0.055)/1.055)^2.4 above 0.04045, c/12.92 below.
//  3. Scale to [0,100] and multiply by the D65/2° sRGB matrix to get XYZ.
//  4. Divide by the D65 white (95.047, 100.0, 108.883) and apply the Lab
//     companding function f(t) = t^(1/3) above 0.008856, 7.787t + 16/116 below.
//  5. L = 116 f(Y) - 16, a = 500 (f(X) - f(Y)), b = 200 (f(Y) - f(Z)).
//
// The matrix coefficients are the four-digit ones, so results differ from
// libraries that use the full-precision matrix by a few hundredths of a unit.
// Brand tolerances were tuned against these values.
//
// # Thread Safety
//
// Every function is pure. Nothing is cached.
//
// # Hex Notation
//
// ParseHex accepts "#RRGGBB" and the short "#RGB" form, with or without the
// leading '#'. RGBColor.Hex always renders upper-case "#RRGGBB".
package colorspace
