package heightmap

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// normalBatch accumulates up to an evaluator's batch width of
// (x,y,z,i,j) samples, invokes a batched derivative evaluation, and
// packs normals into the normal image. Grounded line-for-line on the
// reference implementation's NormalRenderer.
//
// Invariants: count <= cap(xs); on destruction (end of use) count must
// be 0 -- failing to flush is a programming error, asserted in
// release builds via assertFlushed.
type normalBatch struct {
	eval Evaluator
	view viewXY
	norm *NormalImage

	xs, ys []int
	count  int
}

// viewXY is the minimal slice of voxel.View the normal batcher needs:
// the image-plane corner and the sampled x/y positions. evalPixels
// (pixel.go) and fillRegion (fill.go) build it from their voxel.View.
type viewXY struct {
	cx, cy int
	ptsX   []float32
	ptsY   []float32
}

func newNormalBatch(eval Evaluator, view viewXY, norm *NormalImage) *normalBatch {
	n := eval.BatchWidth()
	return &normalBatch{
		eval: eval,
		view: view,
		norm: norm,
		xs:   make([]int, 0, n),
		ys:   make([]int, 0, n),
	}
}

// push enqueues the sample at voxel-local coordinates (i,j) with depth
// z. It translates to absolute image coordinates and installs the
// implicit point at the next free evaluator slot. When the batch
// fills, it auto-flushes.
func (b *normalBatch) push(i, j int, z float32) {
	b.xs = append(b.xs, b.view.cx+i)
	b.ys = append(b.ys, b.view.cy+j)
	b.eval.Set(ms3.Vec{X: b.view.ptsX[i], Y: b.view.ptsY[j], Z: z}, b.count)
	b.count++
	if b.count == cap(b.xs) {
		b.run()
	}
}

// flush empties the queue if it holds any pending samples.
func (b *normalBatch) flush() {
	if b.count > 0 {
		b.run()
	}
}

// assertFlushed panics if the batch still holds unflushed samples; the
// renderer calls this on every exit path of the pixel evaluator and
// fill primitive so a missed flush is caught immediately rather than
// silently dropping normals.
func (b *normalBatch) assertFlushed() {
	if b.count != 0 {
		panic("heightmap: normal batch destroyed with pending samples")
	}
}

func (b *normalBatch) run() {
	d := b.eval.Derivs(b.count)
	for i := 0; i < b.count; i++ {
		dx, dy, dz := d.Dx[i], d.Dy[i], d.Dz[i]
		length := math32.Sqrt(dx*dx + dy*dy + dz*dz)

		ix := channelByte(dx, length)
		iy := channelByte(dy, length)
		iz := channelByte(dz, length)

		b.norm.Set(b.ys[i], b.xs[i], packNormal(ix, iy, iz))
	}
	b.xs = b.xs[:0]
	b.ys = b.ys[:0]
	b.count = 0
}

// channelByte maps a gradient component into the [0,255] normal
// channel range: 255*(d/(2*length)+0.5), truncated to an integer (not
// rounded to nearest) -- matching the reference NormalRenderer's plain
// float-to-uint32_t cast. If length is 0 the vector is undefined and
// whatever bit pattern results from the division is accepted verbatim
// -- this is the documented behavior for a zero-length gradient, not
// an oversight.
func channelByte(d, length float32) uint32 {
	v := 255 * (d/(2*length) + 0.5)
	return uint32(int32(v))
}
