// Package evalcpu implements a concrete, CPU-batched evaluator for a
// small CSG tree of implicit-solid primitives, satisfying the
// heightmap.Evaluator contract the renderer drives. It generalizes
// the teacher's per-shape Evaluate methods (form3/glsdf3/cpu_evaluators.go)
// from true signed-distance fields to arbitrary (not necessarily
// 1-Lipschitz) scalar functions, since the renderer only requires
// f(x,y,z) < 0 to define the interior, per the original algorithm
// description's implicit-solid definition.
package evalcpu

import "github.com/soypat/glgl/math/ms3"

// Node is one term of the implicit-solid expression tree. Bounds
// reports a static axis-aligned bounding box the caller may use to
// size the voxel grid; interval/evaluate/gradient semantics are
// driven by Evaluator, which type-switches over the concrete node
// kinds below -- there are few enough of them that a generic
// tree-walking interface would only add indirection over a direct
// switch, so none is introduced.
type Node interface {
	Bounds() ms3.Box
}

// sphereNode is the implicit quadric x^2+y^2+z^2-r^2, not the
// Euclidean distance field length(p)-r: f need only change sign at
// the boundary, and the quadric form avoids a square root in the hot
// per-point loop.
type sphereNode struct {
	r float32
}

// NewSphere returns a sphere of radius r centered at the origin.
func NewSphere(r float32) Node {
	return &sphereNode{r: r}
}

func (s *sphereNode) Bounds() ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{X: -s.r, Y: -s.r, Z: -s.r},
		Max: ms3.Vec{X: s.r, Y: s.r, Z: s.r},
	}
}

// boxNode is the unrounded Chebyshev-distance box
// max(|x|-dx, |y|-dy, |z|-dz), centered at the origin with half
// extents half.
type boxNode struct {
	half ms3.Vec
}

// NewBox returns an axis-aligned box with the given half-extents,
// centered at the origin.
func NewBox(half ms3.Vec) Node {
	return &boxNode{half: half}
}

func (b *boxNode) Bounds() ms3.Box {
	return ms3.Box{Min: ms3.Scale(-1, b.half), Max: b.half}
}

// halfSpaceNode is the plane f(p) = dot(p, normal) - offset; normal
// need not be a unit vector for correctness (only the sign of f
// matters to the renderer) but is expected to be unit for its bound
// and gradient to read naturally.
type halfSpaceNode struct {
	normal ms3.Vec
	offset float32
}

// NewHalfSpace returns the solid dot(p,normal) <= offset.
func NewHalfSpace(normal ms3.Vec, offset float32) Node {
	return &halfSpaceNode{normal: normal, offset: offset}
}

func (h *halfSpaceNode) Bounds() ms3.Box {
	const large = 1e6
	return ms3.Box{Min: ms3.Vec{X: -large, Y: -large, Z: -large}, Max: ms3.Vec{X: large, Y: large, Z: large}}
}

// constNode is the degenerate everywhere-filled (v<0) or
// everywhere-empty (v>0) solid used by the empty/filled test
// scenarios.
type constNode struct {
	v float32
}

// NewConst returns a solid with constant value v everywhere.
func NewConst(v float32) Node {
	return &constNode{v: v}
}

func (c *constNode) Bounds() ms3.Box {
	return ms3.Box{}
}

// translateNode evaluates child shifted by offset: f(p) = child(p-offset).
type translateNode struct {
	child  Node
	offset ms3.Vec
}

// NewTranslate returns child translated by offset.
func NewTranslate(child Node, offset ms3.Vec) Node {
	return &translateNode{child: child, offset: offset}
}

func (t *translateNode) Bounds() ms3.Box {
	b := t.child.Bounds()
	return ms3.Box{Min: ms3.Add(b.Min, t.offset), Max: ms3.Add(b.Max, t.offset)}
}

// csgKind selects the combination rule of a binary node.
type csgKind uint8

const (
	csgUnion csgKind = iota
	csgIntersect
	csgDifference
)

// binaryNode is shared by Union, Intersect, and Difference: all three
// are a pointwise min/max of two operands (Difference being
// max(a,-b)), differing only in kind, so one struct serves all three
// rather than three near-identical types.
type binaryNode struct {
	left, right Node
	kind        csgKind
}

// NewUnion returns the solid a union b (pointwise min).
func NewUnion(a, b Node) Node { return &binaryNode{left: a, right: b, kind: csgUnion} }

// NewIntersect returns the solid a intersect b (pointwise max).
func NewIntersect(a, b Node) Node { return &binaryNode{left: a, right: b, kind: csgIntersect} }

// NewDifference returns the solid a minus b (pointwise max(a,-b)).
func NewDifference(a, b Node) Node { return &binaryNode{left: a, right: b, kind: csgDifference} }

func (n *binaryNode) Bounds() ms3.Box {
	lb, rb := n.left.Bounds(), n.right.Bounds()
	if n.kind == csgDifference {
		return lb
	}
	return ms3.Box{Min: ms3.MinElem(lb.Min, rb.Min), Max: ms3.MaxElem(lb.Max, rb.Max)}
}
