package heightmap

import "math"

// DepthImage is a 2D array indexed (row=y, col=x) of the greatest z at
// which the solid is present. Initial value is negative infinity;
// writes only ever increase a pixel's value over the lifetime of a
// render call.
type DepthImage struct {
	rows, cols int
	px         []float32
}

// NewDepthImage allocates a DepthImage of the given dimensions, filled
// with negative infinity.
func NewDepthImage(rows, cols int) *DepthImage {
	d := &DepthImage{rows: rows, cols: cols, px: make([]float32, rows*cols)}
	d.Reset()
	return d
}

// Reset fills the image with negative infinity, as at the start of a
// render call.
func (d *DepthImage) Reset() {
	ninf := float32(math.Inf(-1))
	for i := range d.px {
		d.px[i] = ninf
	}
}

// Dims returns (rows, cols) = (|pts.y|, |pts.x|).
func (d *DepthImage) Dims() (rows, cols int) { return d.rows, d.cols }

// At returns the depth at (row, col).
func (d *DepthImage) At(row, col int) float32 { return d.px[row*d.cols+col] }

// Set writes z at (row, col) unconditionally.
func (d *DepthImage) Set(row, col int, z float32) { d.px[row*d.cols+col] = z }

// RowRange returns the slice of a single row, columns [colLo, colHi),
// used by the subdivider's XY-prune check.
func (d *DepthImage) RowRange(row, colLo, colHi int) []float32 {
	start := row*d.cols + colLo
	return d.px[start : start+(colHi-colLo)]
}

// NormalImage is a 2D array of 32-bit packed normal pixels, format
// 0xAA_ZZ_YY_XX. Initial value is 0.
type NormalImage struct {
	rows, cols int
	px         []uint32
}

// NewNormalImage allocates a NormalImage of the given dimensions,
// filled with 0.
func NewNormalImage(rows, cols int) *NormalImage {
	return &NormalImage{rows: rows, cols: cols, px: make([]uint32, rows*cols)}
}

// Reset fills the image with 0.
func (n *NormalImage) Reset() {
	for i := range n.px {
		n.px[i] = 0
	}
}

// Dims returns (rows, cols) = (|pts.y|, |pts.x|).
func (n *NormalImage) Dims() (rows, cols int) { return n.rows, n.cols }

// At returns the packed normal pixel at (row, col).
func (n *NormalImage) At(row, col int) uint32 { return n.px[row*n.cols+col] }

// Set writes the packed normal pixel at (row, col).
func (n *NormalImage) Set(row, col int, v uint32) { n.px[row*n.cols+col] = v }

// packNormal builds the 0xAA_ZZ_YY_XX pixel word from three already
// rounded-to-byte channel values.
func packNormal(ix, iy, iz uint32) uint32 {
	return (0xFF << 24) | (iz << 16) | (iy << 8) | ix
}

// topFaceSentinel is the fixed 32-bit value written to normal-image
// pixels whose final depth sits exactly on the top z plane. It does
// not correspond to (0,0,+1) under the documented channel encoding
// (which would be 0xFFFF7F7F) -- the discrepancy is preserved verbatim
// from the reference implementation, since downstream consumers may
// depend on this exact literal.
const topFaceSentinel uint32 = 0xFF7F7FFF
