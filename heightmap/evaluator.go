package heightmap

import "github.com/soypat/glgl/math/ms3"

// Derivatives holds a batched partial-derivative query result, indexed
// by the same slot numbering used to enqueue the points.
type Derivatives struct {
	Dx, Dy, Dz []float32
}

// Evaluator is the batched pointwise evaluator contract the recursive
// subdivider, pixel evaluator, fill primitive, and normal batcher all
// drive. It is bound to one implicit tree and owned exclusively by one
// worker for the duration of a render; the renderer (package
// heightmap) treats it as an external collaborator and never
// constructs one directly -- see package evalcpu for a concrete
// implementation.
//
// The value slice returned by Values is in 1:1 correspondence with the
// slots as enqueued by SetRaw/Set.
type Evaluator interface {
	// BatchWidth returns N, the fixed number of points this evaluator
	// processes per batched call. Leaf-region cutoffs and normal-batch
	// capacity both derive from this constant.
	BatchWidth() int

	// SetPointMatrix installs a 4x4 affine transform applied to every
	// point subsequently enqueued via SetRaw/Set and ApplyTransform. A
	// nil m clears any installed transform; points are then used as-is.
	SetPointMatrix(m *ms3.Mat4)

	// EvalInterval returns a conservative bound on f over the box
	// [lo,hi].
	EvalInterval(lo, hi ms3.Vec) Interval

	// Push opens a nested activation scope, disabling any subtree
	// nodes proven inert by the most recently computed interval.
	// Push/Pop calls nest strictly and must balance on every
	// recursion exit path, including early return on abort.
	Push()
	// Pop closes the innermost scope opened by Push, restoring the
	// nodes it disabled.
	Pop()

	// SetRaw enqueues point p into evaluation slot, without applying
	// the installed transform.
	SetRaw(p ms3.Vec, slot int)
	// ApplyTransform applies the installed matrix to slots [0,count).
	ApplyTransform(count int)
	// Values returns the batched evaluation of slots [0,count); the
	// returned slice is indexed by slot and is only valid until the
	// next call to SetRaw, Set, or Values.
	Values(count int) []float32

	// Set enqueues point p into slot, equivalent to SetRaw followed by
	// an implicit application of the installed transform to that slot
	// alone. Used by the normal batcher.
	Set(p ms3.Vec, slot int)
	// Derivs returns the batched gradient of slots [0,count); like
	// Values, the returned arrays are indexed by slot and are only
	// valid until the next batched call.
	Derivs(count int) Derivatives
}
