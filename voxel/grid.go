// Package voxel implements the axis-aligned voxel grid and its views: a
// rectangular box of voxels described by three strictly increasing
// per-axis position vectors, together with the binary-split arithmetic
// the heightmap renderer uses to recurse over it.
package voxel

import (
	"errors"

	"github.com/soypat/glgl/math/ms3"
)

// Axis is a bitmask selecting one or more axes for a split operation.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ
)

// Grid is a rectangular 3D grid of voxels defined by three sorted,
// strictly increasing axis position vectors.
type Grid struct {
	x, y, z []float32
}

// NewGrid builds a Grid from explicit per-axis sample positions. Each
// axis slice must be strictly increasing and non-empty.
func NewGrid(x, y, z []float32) (*Grid, error) {
	if err := checkIncreasing(x); err != nil {
		return nil, err
	}
	if err := checkIncreasing(y); err != nil {
		return nil, err
	}
	if err := checkIncreasing(z); err != nil {
		return nil, err
	}
	return &Grid{x: x, y: y, z: z}, nil
}

// NewUniformGrid builds a Grid over [lower,upper] with samples spaced
// approximately res apart on every axis (rounded up so the upper bound
// is always included), mirroring the teacher's convention of deriving a
// discrete structure from a continuous bounding box and a resolution
// scalar.
func NewUniformGrid(lower, upper ms3.Vec, res float32) (*Grid, error) {
	if res <= 0 {
		return nil, errors.New("voxel: non-positive resolution")
	}
	if upper.X <= lower.X || upper.Y <= lower.Y || upper.Z <= lower.Z {
		return nil, errors.New("voxel: degenerate bounds")
	}
	return NewGrid(
		axisRange(lower.X, upper.X, res),
		axisRange(lower.Y, upper.Y, res),
		axisRange(lower.Z, upper.Z, res),
	)
}

func axisRange(lo, hi, res float32) []float32 {
	n := int((hi-lo)/res) + 1
	if n < 2 {
		n = 2
	}
	out := make([]float32, n)
	step := (hi - lo) / float32(n-1)
	for i := range out {
		out[i] = lo + float32(i)*step
	}
	out[n-1] = hi
	return out
}

func checkIncreasing(v []float32) error {
	if len(v) == 0 {
		return errors.New("voxel: empty axis position vector")
	}
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return errors.New("voxel: axis position vector not strictly increasing")
		}
	}
	return nil
}

// Size returns the voxel counts (sx, sy, sz) of the grid.
func (g *Grid) Size() (sx, sy, sz int) {
	return len(g.x), len(g.y), len(g.z)
}

// View returns a View spanning the entire grid, with corner at the
// origin of the image plane.
func (g *Grid) View() View {
	return View{
		corner: [2]int{0, 0},
		x:      g.x,
		y:      g.y,
		z:      g.z,
	}
}

// ImageSize returns the (rows, cols) = (|pts.y|, |pts.x|) dimensions of
// the output images for this grid.
func (g *Grid) ImageSize() (rows, cols int) {
	return len(g.y), len(g.x)
}
