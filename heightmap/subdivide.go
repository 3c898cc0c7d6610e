package heightmap

import (
	"sync/atomic"

	"github.com/vxlcast/heightmap/voxel"
)

// subdivide drives interval evaluation, tri-way dispatch (empty /
// filled / ambiguous), split ordering, and honors the abort flag. It
// is the hard middle of the renderer: correctness of the output image
// depends on recursing the higher-z half before the lower one, and
// performance comes entirely from the two prunes below.
//
// Returns false if the render was aborted partway through (in which
// case the caller must not assume any further writes will occur), true
// otherwise -- including the "nothing to do here" and "filled" cases.
func subdivide(eval Evaluator, view voxel.View, depth *DepthImage, norm *NormalImage, abort *atomic.Bool) bool {
	if abort.Load() {
		return false
	}

	cx, cy := view.Corner()
	sx, sy, sz := view.Size()
	topZ := view.Z()[sz-1]

	if xyBlockBelow(depth, cx, cy, sx, sy, topZ) {
		return true // every pixel here is already at least as deep as this view can improve
	}

	if view.Voxels() <= eval.BatchWidth() {
		evalPixels(eval, view, depth, norm)
		return true
	}

	interval := eval.EvalInterval(view.Lower(), view.Upper())
	switch {
	case interval.Upper() < 0:
		fillRegion(eval, view, depth, norm)
		return true
	case interval.Lower() > 0:
		return true // entirely outside the solid: no writes
	}

	// Ambiguous: recurse. Disable subtree nodes the last interval
	// evaluation proved inert, then split and descend into the
	// higher-z half first -- front-to-back order maximizes the
	// early-out in evalPixels and the xyBlockBelow prune above, since
	// writing the greater z first makes subsequent sibling calls more
	// likely to be pruned entirely.
	eval.Push()
	first, second := view.Split(view.LargestAxis())
	if !subdivide(eval, second, depth, norm, abort) {
		eval.Pop()
		return false
	}
	if !subdivide(eval, first, depth, norm, abort) {
		eval.Pop()
		return false
	}
	eval.Pop()
	return true
}

// xyBlockBelow reports whether every pixel of the (sx,sy) block rooted
// at (cx,cy) already holds a depth at or above topZ, in which case the
// view cannot possibly improve the image. The inclusive (>=) test
// matches the reference implementation: an alternative strict (>)
// test would miss equal-depth rewrites.
func xyBlockBelow(depth *DepthImage, cx, cy, sx, sy int, topZ float32) bool {
	for j := 0; j < sy; j++ {
		row := depth.RowRange(cy+j, cx, cx+sx)
		for _, z := range row {
			if z < topZ {
				return false
			}
		}
	}
	return true
}
