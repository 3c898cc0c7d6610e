package evalcpu

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/vxlcast/heightmap/heightmap"
)

// BatchWidth is the fixed number of points an Evaluator processes per
// batched call, chosen as a power of two in the same range as the
// teacher's own evalBufferSize defaults (form3/glsdf3/glrender/octree.go's
// NewOctreeRenderer).
const BatchWidth = 256

// Tree wraps a root Node as a heightmap.Tree factory: every call to
// NewEvaluator builds a fresh, exclusively-owned Evaluator over the
// same immutable node graph, so worker goroutines never share mutable
// evaluation state even though they walk the same tree.
type Tree struct {
	Root Node
}

// NewEvaluator builds an Evaluator bound to t.Root.
func (t Tree) NewEvaluator() heightmap.Evaluator {
	e := &Evaluator{
		root: t.Root,
		pts:  make([]ms3.Vec, BatchWidth),
		dist: make([]float32, BatchWidth),
		dx:   make([]float32, BatchWidth),
		dy:   make([]float32, BatchWidth),
		dz:   make([]float32, BatchWidth),
	}
	e.states = make(map[*binaryNode]*binaryState)
	collectBinaries(t.Root, e.states)
	return e
}

// binaryState is the per-evaluator mutable push/pop scope stack for
// one binary CSG node. It is never stored on the Node itself -- the
// node graph is shared read-only across every worker's Evaluator, and
// each Evaluator keeps its own states map instead, so concurrent
// renders of the same tree never race.
type binaryState struct {
	lastLeft, lastRight heightmap.Interval
	// stack entries: 0 = both active, 1 = left disabled, 2 = right
	// disabled. Evaluator.Push appends, Evaluator.Pop truncates; both
	// walk every node in lockstep so stacks never drift out of sync
	// with each other.
	stack []uint8
}

func (s *binaryState) mode() uint8 {
	if len(s.stack) == 0 {
		return 0
	}
	return s.stack[len(s.stack)-1]
}

// collectBinaries walks the tree once at construction time, recording
// every binary node reachable from n so Push/Pop can iterate them
// without re-walking the tree on every call.
func collectBinaries(n Node, states map[*binaryNode]*binaryState) {
	switch t := n.(type) {
	case *binaryNode:
		if _, ok := states[t]; ok {
			return
		}
		states[t] = &binaryState{}
		collectBinaries(t.left, states)
		collectBinaries(t.right, states)
	case *translateNode:
		collectBinaries(t.child, states)
	}
}

// Evaluator is the concrete heightmap.Evaluator over a Node tree.
type Evaluator struct {
	root   Node
	states map[*binaryNode]*binaryState

	m *ms3.Mat4

	pts          []ms3.Vec
	dist         []float32
	dx, dy, dz   []float32
	fp           bufPool[float32]
	vp           bufPool[ms3.Vec]
}

func (e *Evaluator) BatchWidth() int { return BatchWidth }

func (e *Evaluator) SetPointMatrix(m *ms3.Mat4) {
	e.m = m
}

func (e *Evaluator) SetRaw(p ms3.Vec, slot int) {
	e.pts[slot] = p
}

func (e *Evaluator) ApplyTransform(count int) {
	if e.m == nil {
		return
	}
	for i := 0; i < count; i++ {
		e.pts[i] = e.m.MulPosition(e.pts[i])
	}
}

func (e *Evaluator) Set(p ms3.Vec, slot int) {
	if e.m != nil {
		p = e.m.MulPosition(p)
	}
	e.pts[slot] = p
}

func (e *Evaluator) Values(count int) []float32 {
	out := e.dist[:count]
	e.evaluate(e.root, e.pts[:count], out)
	return out
}

func (e *Evaluator) Derivs(count int) heightmap.Derivatives {
	dx, dy, dz := e.dx[:count], e.dy[:count], e.dz[:count]
	for i := 0; i < count; i++ {
		g := e.gradient(e.root, e.pts[i])
		dx[i], dy[i], dz[i] = g.X, g.Y, g.Z
	}
	return heightmap.Derivatives{Dx: dx, Dy: dy, Dz: dz}
}

// EvalInterval bounds f over [lo,hi]. When a point matrix is
// installed, the box is first mapped through it (via its eight
// corners) and the axis-aligned bounding box of the image is used in
// its place -- a conservative superset of the true (generally
// oriented) transformed region, since f is evaluated in the
// matrix's target space.
func (e *Evaluator) EvalInterval(lo, hi ms3.Vec) heightmap.Interval {
	if e.m != nil {
		lo, hi = e.transformedBounds(lo, hi)
	}
	return e.interval(e.root, lo, hi)
}

func (e *Evaluator) transformedBounds(lo, hi ms3.Vec) (tlo, thi ms3.Vec) {
	corners := [8]ms3.Vec{
		{X: lo.X, Y: lo.Y, Z: lo.Z}, {X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z}, {X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z}, {X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z}, {X: hi.X, Y: hi.Y, Z: hi.Z},
	}
	tlo = e.m.MulPosition(corners[0])
	thi = tlo
	for _, c := range corners[1:] {
		p := e.m.MulPosition(c)
		tlo = ms3.MinElem(tlo, p)
		thi = ms3.MaxElem(thi, p)
	}
	return tlo, thi
}

// Push opens a nested activation scope: for every binary node whose
// current scope has not already disabled a branch, it examines the
// child intervals cached by the most recent EvalInterval call and, if
// they're disjoint enough to prove one branch can never supply the
// min/max result over the box just evaluated, marks that branch
// disabled for the new scope.
func (e *Evaluator) Push() {
	for n, st := range e.states {
		mode := st.mode()
		if mode == 0 {
			mode = proveDisable(n.kind, st.lastLeft, st.lastRight)
		}
		st.stack = append(st.stack, mode)
	}
}

// Pop closes the innermost scope opened by Push.
func (e *Evaluator) Pop() {
	for _, st := range e.states {
		if len(st.stack) > 0 {
			st.stack = st.stack[:len(st.stack)-1]
		}
	}
}

// proveDisable returns 1 if the left operand can be proven irrelevant
// to this node's min/max result, 2 if the right operand can, 0 if
// neither is provable from these bounds alone.
func proveDisable(kind csgKind, l, r heightmap.Interval) uint8 {
	switch kind {
	case csgUnion: // min(l,r)
		if l.Hi <= r.Lo {
			return 2 // l always wins, r is inert
		}
		if r.Hi <= l.Lo {
			return 1
		}
	case csgIntersect: // max(l,r)
		if l.Hi <= r.Lo {
			return 1 // r always wins
		}
		if r.Hi <= l.Lo {
			return 2
		}
	case csgDifference: // max(l,-r)
		negR := r.Neg()
		if l.Hi <= negR.Lo {
			return 1 // -r always wins
		}
		if negR.Hi <= l.Lo {
			return 2 // l always wins, r need not be evaluated at all
		}
	}
	return 0
}

func (e *Evaluator) interval(n Node, lo, hi ms3.Vec) heightmap.Interval {
	switch t := n.(type) {
	case *sphereNode:
		return sphereInterval(t.r, lo, hi)
	case *boxNode:
		return boxInterval(t.half, lo, hi)
	case *halfSpaceNode:
		return halfSpaceInterval(t.normal, t.offset, lo, hi)
	case *constNode:
		return heightmap.Interval{Lo: t.v, Hi: t.v}
	case *translateNode:
		return e.interval(t.child, ms3.Sub(lo, t.offset), ms3.Sub(hi, t.offset))
	case *binaryNode:
		return e.binaryInterval(t, lo, hi)
	}
	panic("evalcpu: unknown node type")
}

func (e *Evaluator) binaryInterval(n *binaryNode, lo, hi ms3.Vec) heightmap.Interval {
	st := e.states[n]
	switch st.mode() {
	case 1: // left disabled
		r := e.interval(n.right, lo, hi)
		st.lastRight = r
		if n.kind == csgDifference {
			return r.Neg()
		}
		return r
	case 2: // right disabled
		l := e.interval(n.left, lo, hi)
		st.lastLeft = l
		return l
	default:
		l := e.interval(n.left, lo, hi)
		r := e.interval(n.right, lo, hi)
		st.lastLeft, st.lastRight = l, r
		switch n.kind {
		case csgUnion:
			return l.Min(r)
		case csgIntersect:
			return l.Max(r)
		default:
			return l.Max(r.Neg())
		}
	}
}

func sphereInterval(r float32, lo, hi ms3.Vec) heightmap.Interval {
	ix := heightmap.Interval{Lo: lo.X, Hi: hi.X}.Sq()
	iy := heightmap.Interval{Lo: lo.Y, Hi: hi.Y}.Sq()
	iz := heightmap.Interval{Lo: lo.Z, Hi: hi.Z}.Sq()
	sum := ix.Add(iy).Add(iz)
	return heightmap.Interval{Lo: sum.Lo - r*r, Hi: sum.Hi - r*r}
}

func boxInterval(half, lo, hi ms3.Vec) heightmap.Interval {
	ax := heightmap.Interval{Lo: lo.X, Hi: hi.X}.Abs()
	ay := heightmap.Interval{Lo: lo.Y, Hi: hi.Y}.Abs()
	az := heightmap.Interval{Lo: lo.Z, Hi: hi.Z}.Abs()
	ax = heightmap.Interval{Lo: ax.Lo - half.X, Hi: ax.Hi - half.X}
	ay = heightmap.Interval{Lo: ay.Lo - half.Y, Hi: ay.Hi - half.Y}
	az = heightmap.Interval{Lo: az.Lo - half.Z, Hi: az.Hi - half.Z}
	return ax.Max(ay).Max(az)
}

func halfSpaceInterval(normal ms3.Vec, offset float32, lo, hi ms3.Vec) heightmap.Interval {
	ix := heightmap.Interval{Lo: lo.X, Hi: hi.X}.MulScalar(normal.X)
	iy := heightmap.Interval{Lo: lo.Y, Hi: hi.Y}.MulScalar(normal.Y)
	iz := heightmap.Interval{Lo: lo.Z, Hi: hi.Z}.MulScalar(normal.Z)
	sum := ix.Add(iy).Add(iz)
	return heightmap.Interval{Lo: sum.Lo - offset, Hi: sum.Hi - offset}
}

// evaluate is the batched pointwise pass, a direct generalization of
// the teacher's per-shape cpu_evaluators.go Evaluate methods: the same
// Acquire/Release scratch-buffer discipline, applied over a union/
// intersect/difference rather than the teacher's larger primitive
// set.
func (e *Evaluator) evaluate(n Node, pos []ms3.Vec, dist []float32) {
	switch t := n.(type) {
	case *sphereNode:
		r2 := t.r * t.r
		for i, p := range pos {
			dist[i] = p.X*p.X + p.Y*p.Y + p.Z*p.Z - r2
		}
	case *boxNode:
		for i, p := range pos {
			dx := math32.Abs(p.X) - t.half.X
			dy := math32.Abs(p.Y) - t.half.Y
			dz := math32.Abs(p.Z) - t.half.Z
			dist[i] = math32.Max(dx, math32.Max(dy, dz))
		}
	case *halfSpaceNode:
		for i, p := range pos {
			dist[i] = ms3.Dot(p, t.normal) - t.offset
		}
	case *constNode:
		for i := range pos {
			dist[i] = t.v
		}
	case *translateNode:
		shifted := e.vp.Acquire(len(pos))
		defer e.vp.Release(shifted)
		for i, p := range pos {
			shifted[i] = ms3.Sub(p, t.offset)
		}
		e.evaluate(t.child, shifted, dist)
	case *binaryNode:
		e.evaluateBinary(t, pos, dist)
	default:
		panic("evalcpu: unknown node type")
	}
}

func (e *Evaluator) evaluateBinary(n *binaryNode, pos []ms3.Vec, dist []float32) {
	st := e.states[n]
	switch st.mode() {
	case 1: // left disabled
		e.evaluate(n.right, pos, dist)
		if n.kind == csgDifference {
			for i := range dist {
				dist[i] = -dist[i]
			}
		}
	case 2: // right disabled
		e.evaluate(n.left, pos, dist)
	default:
		d1 := dist
		d2 := e.fp.Acquire(len(dist))
		defer e.fp.Release(d2)
		e.evaluate(n.left, pos, d1)
		e.evaluate(n.right, pos, d2)
		switch n.kind {
		case csgUnion:
			for i := range d1 {
				d1[i] = math32.Min(d1[i], d2[i])
			}
		case csgIntersect:
			for i := range d1 {
				d1[i] = math32.Max(d1[i], d2[i])
			}
		default: // left minus right: max(left, -right)
			for i := range d1 {
				d1[i] = math32.Max(d1[i], -d2[i])
			}
		}
	}
}

// scalarEval evaluates f at a single point, used by gradient's CSG
// selection rule (the branch realizing the min/max at that exact
// point determines whose analytic gradient applies).
func (e *Evaluator) scalarEval(n Node, p ms3.Vec) float32 {
	switch t := n.(type) {
	case *sphereNode:
		return p.X*p.X + p.Y*p.Y + p.Z*p.Z - t.r*t.r
	case *boxNode:
		dx := math32.Abs(p.X) - t.half.X
		dy := math32.Abs(p.Y) - t.half.Y
		dz := math32.Abs(p.Z) - t.half.Z
		return math32.Max(dx, math32.Max(dy, dz))
	case *halfSpaceNode:
		return ms3.Dot(p, t.normal) - t.offset
	case *constNode:
		return t.v
	case *translateNode:
		return e.scalarEval(t.child, ms3.Sub(p, t.offset))
	case *binaryNode:
		st := e.states[t]
		switch st.mode() {
		case 1:
			v := e.scalarEval(t.right, p)
			if t.kind == csgDifference {
				return -v
			}
			return v
		case 2:
			return e.scalarEval(t.left, p)
		default:
			a := e.scalarEval(t.left, p)
			b := e.scalarEval(t.right, p)
			switch t.kind {
			case csgUnion:
				return math32.Min(a, b)
			case csgIntersect:
				return math32.Max(a, b)
			default: // left minus right
				return math32.Max(a, -b)
			}
		}
	}
	panic("evalcpu: unknown node type")
}

func (e *Evaluator) gradient(n Node, p ms3.Vec) ms3.Vec {
	switch t := n.(type) {
	case *sphereNode:
		return ms3.Vec{X: 2 * p.X, Y: 2 * p.Y, Z: 2 * p.Z}
	case *boxNode:
		dx := math32.Abs(p.X) - t.half.X
		dy := math32.Abs(p.Y) - t.half.Y
		dz := math32.Abs(p.Z) - t.half.Z
		switch {
		case dx >= dy && dx >= dz:
			return ms3.Vec{X: math32.Copysign(1, p.X)}
		case dy >= dz:
			return ms3.Vec{Y: math32.Copysign(1, p.Y)}
		default:
			return ms3.Vec{Z: math32.Copysign(1, p.Z)}
		}
	case *halfSpaceNode:
		return t.normal
	case *constNode:
		return ms3.Vec{}
	case *translateNode:
		return e.gradient(t.child, ms3.Sub(p, t.offset))
	case *binaryNode:
		return e.binaryGradient(t, p)
	}
	panic("evalcpu: unknown node type")
}

func (e *Evaluator) binaryGradient(n *binaryNode, p ms3.Vec) ms3.Vec {
	st := e.states[n]
	switch st.mode() {
	case 1:
		g := e.gradient(n.right, p)
		if n.kind == csgDifference {
			return ms3.Scale(-1, g)
		}
		return g
	case 2:
		return e.gradient(n.left, p)
	default:
		a := e.scalarEval(n.left, p)
		b := e.scalarEval(n.right, p)
		switch n.kind {
		case csgUnion:
			if a <= b {
				return e.gradient(n.left, p)
			}
			return e.gradient(n.right, p)
		case csgIntersect:
			if a >= b {
				return e.gradient(n.left, p)
			}
			return e.gradient(n.right, p)
		default: // left minus right: max(left, -right)
			if a >= -b {
				return e.gradient(n.left, p)
			}
			return ms3.Scale(-1, e.gradient(n.right, p))
		}
	}
}
