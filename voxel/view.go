package voxel

import "github.com/soypat/glgl/math/ms3"

// View is an axis-aligned box of voxels within an enclosing Grid: it
// carries the integer image-plane corner of the view and the sampled
// positions per axis that fall inside it.
//
// Invariant: the two child views produced by a single-axis Split never
// overlap and together cover the parent view exactly.
type View struct {
	corner  [2]int // (cx, cy) within the enclosing image-plane grid
	x, y, z []float32
}

// Corner returns the view's (cx, cy) origin within the enclosing image.
func (v View) Corner() (cx, cy int) { return v.corner[0], v.corner[1] }

// Size returns the voxel counts (sx, sy, sz) of the view.
func (v View) Size() (sx, sy, sz int) {
	return len(v.x), len(v.y), len(v.z)
}

// Voxels returns the total voxel count sx*sy*sz of the view.
func (v View) Voxels() int {
	sx, sy, sz := v.Size()
	return sx * sy * sz
}

// X, Y, Z return the view's sampled position vectors on each axis.
func (v View) X() []float32 { return v.x }
func (v View) Y() []float32 { return v.y }
func (v View) Z() []float32 { return v.z }

// Lower returns the view's interval-arithmetic lower bound.
func (v View) Lower() ms3.Vec {
	return ms3.Vec{X: v.x[0], Y: v.y[0], Z: v.z[0]}
}

// Upper returns the view's interval-arithmetic upper bound.
func (v View) Upper() ms3.Vec {
	return ms3.Vec{X: v.x[len(v.x)-1], Y: v.y[len(v.y)-1], Z: v.z[len(v.z)-1]}
}

// LargestAxis returns the axis with the greatest voxel count, the
// split axis the recursive subdivider uses to guarantee progress
// towards the leaf cutoff.
func (v View) LargestAxis() Axis {
	sx, sy, sz := v.Size()
	axis, size := AxisX, sx
	if sy > size {
		axis, size = AxisY, sy
	}
	if sz > size {
		axis = AxisZ
	}
	return axis
}

// Split partitions the view along every axis set in mask. Splitting a
// single axis partitions that axis's position vector into two
// contiguous halves: the lower half goes to first, the upper half to
// second, preserving ordering. Splitting multiple axes composes these
// independently: first takes the lower half and second the upper half
// of every masked axis, so for a multi-axis mask the pair covers only
// those two corner sub-boxes of the parent, and the mixed ones (for
// X|Y, low-X/high-Y and high-X/low-Y) are in neither child. By
// convention second always holds the upper half of
// the last-split axis (and, when Z is among the split axes, the upper
// -- i.e. nearer-to-viewer -- Z half), so callers that recurse
// front-to-back always visit second before first.
//
// Split panics if any masked axis has fewer than 2 voxels; callers must
// check Size (or, for the XY-only dispatch split, the smallest XY
// extent) before splitting.
func (v View) Split(mask Axis) (first, second View) {
	first, second = v, v
	if mask&AxisX != 0 {
		lo, hi := splitHalf(v.x)
		first.x, second.x = lo, hi
		second.corner[0] = v.corner[0] + len(lo)
	}
	if mask&AxisY != 0 {
		lo, hi := splitHalf(v.y)
		first.y, second.y = lo, hi
		second.corner[1] = v.corner[1] + len(lo)
	}
	if mask&AxisZ != 0 {
		lo, hi := splitHalf(v.z)
		first.z, second.z = lo, hi
	}
	return first, second
}

func splitHalf(pts []float32) (lo, hi []float32) {
	if len(pts) < 2 {
		panic("voxel: cannot split an axis with fewer than 2 voxels")
	}
	mid := len(pts) / 2
	return pts[:mid], pts[mid:]
}
