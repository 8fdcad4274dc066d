package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/esimov/colorquant"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
)

// Method selects the dominant color extraction algorithm.
type Method string

const (
	// MethodGroup greedily groups similar pixels by Manhattan RGB distance.
	MethodGroup Method = "group"

	// MethodKMeans clusters pixels with k-means (prominentcolor).
	MethodKMeans Method = "kmeans"

	// MethodQuantize reduces the palette with median cut (colorquant) and
	// counts the pixels mapped to each palette entry.
	MethodQuantize Method = "quantize"
)

// Extraction defaults.
const (
	DefaultCount     = 5
	DefaultThreshold = 25
	DefaultMaxSize   = 200

	// MinAlpha is the lowest alpha value a pixel needs to take part in
	// extraction. Anything more transparent is skipped.
	MinAlpha = 200
)

// ErrNoColors is returned when an image (or region) has no pixel opaque enough
// to extract a color from.
var ErrNoColors = errors.New("no opaque pixels to extract colors from")

// ParseMethod converts a method name to a Method. The empty string selects
// MethodGroup.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodGroup:
		return MethodGroup, nil
	case MethodKMeans, "k-means":
		return MethodKMeans, nil
	case MethodQuantize, "median-cut":
		return MethodQuantize, nil
	}
	return "", fmt.Errorf("unknown extraction method %q (want %q, %q or %q)", s, MethodGroup, MethodKMeans, MethodQuantize)
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Validate checks that the region is non-empty and lies within bounds.
func (r Region) Validate(bounds image.Rectangle) error {
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return nil
}

// ExtractOptions controls ExtractColors. Zero values select the defaults.
type ExtractOptions struct {
	// Method is the extraction algorithm (default MethodGroup).
	Method Method `json:"method,omitempty"`

	// Count is the maximum number of colors returned (default 5).
	Count int `json:"count,omitempty"`

	// Threshold is the Manhattan RGB distance below which a pixel joins an
	// existing group (MethodGroup only, default 25).
	Threshold int `json:"threshold,omitempty"`

	// MaxSize bounds the longer side of the image before sampling
	// (default 200). Smaller images are not upscaled.
	MaxSize int `json:"max_size,omitempty"`

	// Region optionally restricts extraction to part of the image.
	Region *Region `json:"region,omitempty"`
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Method == "" {
		o.Method = MethodGroup
	}
	if o.Count <= 0 {
		o.Count = DefaultCount
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	return o
}

// Merge returns o with every non-zero field of override applied.
func (o ExtractOptions) Merge(override ExtractOptions) ExtractOptions {
	if override.Method != "" {
		o.Method = override.Method
	}
	if override.Count > 0 {
		o.Count = override.Count
	}
	if override.Threshold > 0 {
		o.Threshold = override.Threshold
	}
	if override.MaxSize > 0 {
		o.MaxSize = override.MaxSize
	}
	if override.Region != nil {
		o.Region = override.Region
	}
	return o
}

// ExtractedColor is one dominant color and the share of the sampled pixels it
// represents.
type ExtractedColor struct {
	Hex        string              `json:"hex"`
	RGB        colorspace.RGBColor `json:"rgb"`
	Percentage float64             `json:"percentage"`
	Pixels     int                 `json:"pixels"`
}

// ExtractResult contains the dominant colors of an image, most frequent
// first.
type ExtractResult struct {
	Method        Method           `json:"method"`
	Colors        []ExtractedColor `json:"colors"`
	SampledPixels int              `json:"sampled_pixels"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
}

// Samples converts the extracted colors to matcher samples, using each
// color's percentage as its area weight.
func (r *ExtractResult) Samples() []matcher.SampleColor {
	samples := make([]matcher.SampleColor, len(r.Colors))
	for i, c := range r.Colors {
		samples[i] = matcher.NewSampleColor(c.RGB, c.Percentage)
	}
	return samples
}

// ExtractColors finds the dominant colors of img.
//
// The image (or the requested region of it) is first downscaled so that its
// longer side is at most opts.MaxSize pixels. Pixels with alpha below
// MinAlpha are ignored.
//
// Percentages are whole numbers computed against the pixels covered by the
// returned colors, so they sum to roughly 100 even when smaller groups were
// dropped.
//
// # Errors
//
//   - Returns error if the region is empty or outside the image bounds
//   - Returns error if the method is unknown
//   - Returns ErrNoColors if no pixel is opaque enough
func ExtractColors(img image.Image, opts ExtractOptions) (*ExtractResult, error) {
	opts = opts.withDefaults()

	src := img
	if opts.Region != nil {
		if err := opts.Region.Validate(img.Bounds()); err != nil {
			return nil, err
		}
		src = imaging.Crop(img, opts.Region.Rect())
	}

	bounds := src.Bounds()
	if bounds.Dx() > opts.MaxSize || bounds.Dy() > opts.MaxSize {
		src = imaging.Fit(src, opts.MaxSize, opts.MaxSize, imaging.Box)
	}

	var (
		groups  []colorGroup
		sampled int
		err     error
	)
	switch opts.Method {
	case MethodGroup:
		groups, sampled = groupPixels(opaquePixels(src), opts.Threshold)
	case MethodKMeans:
		groups, sampled, err = kmeansGroups(src, opts.Count)
		if err != nil {
			return nil, err
		}
	case MethodQuantize:
		groups, sampled = quantizeGroups(src, opts.Count)
	default:
		return nil, fmt.Errorf("unknown extraction method %q", opts.Method)
	}

	if sampled == 0 || len(groups) == 0 {
		return nil, ErrNoColors
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})
	if len(groups) > opts.Count {
		groups = groups[:opts.Count]
	}

	total := 0
	for _, g := range groups {
		total += g.count
	}

	colors := make([]ExtractedColor, len(groups))
	for i, g := range groups {
		colors[i] = ExtractedColor{
			Hex:        g.color.Hex(),
			RGB:        g.color,
			Percentage: math.Round(float64(g.count) / float64(total) * 100),
			Pixels:     g.count,
		}
	}

	return &ExtractResult{
		Method:        opts.Method,
		Colors:        colors,
		SampledPixels: sampled,
		Width:         src.Bounds().Dx(),
		Height:        src.Bounds().Dy(),
	}, nil
}

type colorGroup struct {
	color colorspace.RGBColor
	count int
}

// opaquePixels returns the non-premultiplied colors of every pixel with alpha
// of at least MinAlpha, in row-major order.
func opaquePixels(img image.Image) []colorspace.RGBColor {
	rgba := clone.AsRGBA(img)
	bounds := rgba.Bounds()

	pixels := make([]colorspace.RGBColor, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := rgba.RGBAAt(x, y)
			if c.A < MinAlpha {
				continue
			}
			if c.A == 0xff {
				pixels = append(pixels, colorspace.RGBColor{R: c.R, G: c.G, B: c.B})
				continue
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			pixels = append(pixels, colorspace.RGBColor{R: n.R, G: n.G, B: n.B})
		}
	}
	return pixels
}

// groupPixels assigns each pixel to the first group whose color is within
// threshold (Manhattan distance, exclusive) and moves that group's color to
// the rounded running mean. Pixels that match no group start a new one.
func groupPixels(pixels []colorspace.RGBColor, threshold int) ([]colorGroup, int) {
	var groups []colorGroup

	for _, p := range pixels {
		found := false
		for i := range groups {
			g := &groups[i]
			if manhattan(p, g.color) < threshold {
				n := float64(g.count + 1)
				g.color = colorspace.RGBColor{
					R: runningMean(g.color.R, p.R, g.count, n),
					G: runningMean(g.color.G, p.G, g.count, n),
					B: runningMean(g.color.B, p.B, g.count, n),
				}
				g.count++
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, colorGroup{color: p, count: 1})
		}
	}

	return groups, len(pixels)
}

func manhattan(a, b colorspace.RGBColor) int {
	return absInt(int(a.R)-int(b.R)) + absInt(int(a.G)-int(b.G)) + absInt(int(a.B)-int(b.B))
}

func runningMean(mean, v uint8, count int, n float64) uint8 {
	return uint8(math.Round((float64(mean)*float64(count) + float64(v)) / n))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// kmeansGroups clusters the image with prominentcolor. The image has already
// been downscaled, so prominentcolor's own resizing is disabled.
func kmeansGroups(img image.Image, k int) ([]colorGroup, int, error) {
	if !hasOpaquePixel(img) {
		return nil, 0, ErrNoColors
	}

	items, err := prominentcolor.KmeansWithAll(
		k,
		img,
		prominentcolor.ArgumentNoCropping|prominentcolor.ArgumentAverageMean,
		uint(DefaultMaxSize),
		nil,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("k-means extraction failed: %w", err)
	}

	groups := make([]colorGroup, 0, len(items))
	sampled := 0
	for _, item := range items {
		if item.Cnt == 0 {
			continue
		}
		groups = append(groups, colorGroup{
			color: colorspace.RGBColor{R: uint8(item.Color.R), G: uint8(item.Color.G), B: uint8(item.Color.B)},
			count: item.Cnt,
		})
		sampled += item.Cnt
	}
	return groups, sampled, nil
}

func hasOpaquePixel(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a>>8 >= MinAlpha {
				return true
			}
		}
	}
	return false
}

// quantizeGroups maps the image onto a median-cut palette of k colors and
// counts the opaque pixels assigned to each entry.
func quantizeGroups(img image.Image, k int) ([]colorGroup, int) {
	if !hasOpaquePixel(img) {
		return nil, 0
	}

	rgba := clone.AsRGBA(img)
	bounds := rgba.Bounds()

	out := image.NewNRGBA(bounds)
	colorquant.NoDither.Quantize(rgba, out, k, false, true)

	index := make(map[colorspace.RGBColor]int)
	var groups []colorGroup
	sampled := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if rgba.RGBAAt(x, y).A < MinAlpha {
				continue
			}
			q := out.NRGBAAt(x, y)
			c := colorspace.RGBColor{R: q.R, G: q.G, B: q.B}
			i, ok := index[c]
			if !ok {
				i = len(groups)
				index[c] = i
				groups = append(groups, colorGroup{color: c})
			}
			groups[i].count++
			sampled++
		}
	}
	return groups, sampled
}
