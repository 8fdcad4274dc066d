// Package imaging loads package-design images and extracts their dominant
// colors.
//
// # Extraction Methods
//
// Three algorithms are available through ExtractColors:
//   - MethodGroup (default): every opaque pixel joins the first existing group
//     whose color is within a Manhattan RGB distance threshold, and the group
//     color moves to the running mean of its members. Groups are ranked by size.
//   - MethodKMeans: k-means clustering via github.com/EdlinOrg/prominentcolor.
//   - MethodQuantize: median-cut palette reduction via
//     github.com/esimov/colorquant, counting the pixels mapped to each entry.
//
// All methods work on a copy of the image scaled down so its longer side is at
// most 200 pixels, and ignore pixels whose alpha is below 200.
//
// # Coordinate System
//
// Regions use 0-based pixel coordinates with (0,0) at the top-left corner.
// (X1,Y1) is inclusive and (X2,Y2) is exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. ExtractColors does not
// modify its input and can be called concurrently.
package imaging
