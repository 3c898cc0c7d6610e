package heightmap

import "github.com/vxlcast/heightmap/voxel"

// fillRegion is invoked once the subdivider has proved a region
// entirely interior (interval.Upper() < 0). It writes z = z_max to
// every pixel of the region's XY footprint that isn't already at
// least that deep, and enqueues a normal sample for each write.
func fillRegion(eval Evaluator, view voxel.View, depth *DepthImage, norm *NormalImage) {
	cx, cy := view.Corner()
	sx, sy, sz := view.Size()
	xs, ys, zs := view.X(), view.Y(), view.Z()
	zMax := zs[sz-1]

	nb := newNormalBatch(eval, viewXY{cx: cx, cy: cy, ptsX: xs, ptsY: ys}, norm)

	for i := 0; i < sx; i++ {
		for j := 0; j < sy; j++ {
			if depth.At(cy+j, cx+i) < zMax {
				depth.Set(cy+j, cx+i, zMax)
				nb.push(i, j, zMax)
			}
		}
	}
	nb.flush()
	nb.assertFlushed()
}
