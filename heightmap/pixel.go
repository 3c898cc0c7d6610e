package heightmap

import (
	"github.com/soypat/glgl/math/ms3"
	"github.com/vxlcast/heightmap/voxel"
)

// evalPixels evaluates f at every voxel of a region whose volume is at
// most the evaluator's batch width, in the mandated flattening order,
// writing the front-most (largest z) hit to the depth image and
// enqueueing a normal sample for every pixel it writes.
//
// Precondition: view.Voxels() <= eval.BatchWidth().
//
// The flattening order is mandatory: the unflatten loop below depends
// on it matching the order slots were enqueued in.
func evalPixels(eval Evaluator, view voxel.View, depth *DepthImage, norm *NormalImage) {
	cx, cy := view.Corner()
	sx, sy, sz := view.Size()
	xs, ys, zs := view.X(), view.Y(), view.Z()
	topZ := zs[sz-1]

	nb := newNormalBatch(eval, viewXY{cx: cx, cy: cy, ptsX: xs, ptsY: ys}, norm)

	index := 0
	for i := 0; i < sx; i++ {
		for j := 0; j < sy; j++ {
			if depth.At(cy+j, cx+i) >= topZ {
				continue // prune columns already deeper than this region's top z
			}
			for k := 0; k < sz; k++ {
				eval.SetRaw(ms3.Vec{X: xs[i], Y: ys[j], Z: zs[sz-1-k]}, index)
				index++
			}
		}
	}
	eval.ApplyTransform(index)
	out := eval.Values(index)

	index = 0
	for i := 0; i < sx; i++ {
		for j := 0; j < sy; j++ {
			if depth.At(cy+j, cx+i) >= topZ {
				continue
			}
			for k := 0; k < sz; k++ {
				if out[index] < 0 {
					z := zs[sz-1-k]
					if depth.At(cy+j, cx+i) < z {
						depth.Set(cy+j, cx+i, z)
						nb.push(i, j, z)
					}
					// Skip the rest of this z-column: every voxel
					// behind this one is already occluded.
					index += sz - k
					break
				}
				index++
			}
		}
	}
	nb.flush()
	nb.assertFlushed()
}
