package evalcpu

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// sampleInterval sweeps a coarse grid of points inside [lo,hi] and
// checks none of them falls outside the claimed interval -- the same
// conservativeness check SPEC_FULL.md asks for at the evalcpu level.
func sampleInterval(t *testing.T, tree Tree, lo, hi ms3.Vec) {
	t.Helper()
	e := tree.NewEvaluator()
	iv := e.EvalInterval(lo, hi)
	const n = 5
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				p := ms3.Vec{
					X: lo.X + (hi.X-lo.X)*float32(i)/(n-1),
					Y: lo.Y + (hi.Y-lo.Y)*float32(j)/(n-1),
					Z: lo.Z + (hi.Z-lo.Z)*float32(k)/(n-1),
				}
				e.SetRaw(p, 0)
				e.ApplyTransform(1)
				v := e.Values(1)[0]
				if v < iv.Lo-1e-3 || v > iv.Hi+1e-3 {
					t.Fatalf("sample %v = %v outside claimed interval [%v,%v]", p, v, iv.Lo, iv.Hi)
				}
			}
		}
	}
}

func TestSphereIntervalConservative(t *testing.T) {
	tree := Tree{Root: NewSphere(1)}
	sampleInterval(t, tree, ms3.Vec{X: -2, Y: -2, Z: -2}, ms3.Vec{X: 2, Y: 2, Z: 2})
	sampleInterval(t, tree, ms3.Vec{X: 0.1, Y: 0.1, Z: 0.1}, ms3.Vec{X: 1, Y: 1, Z: 1})
}

func TestBoxIntervalConservative(t *testing.T) {
	tree := Tree{Root: NewBox(ms3.Vec{X: 0.5, Y: 0.25, Z: 1})}
	sampleInterval(t, tree, ms3.Vec{X: -2, Y: -2, Z: -2}, ms3.Vec{X: 2, Y: 2, Z: 2})
}

func TestHalfSpaceIntervalExact(t *testing.T) {
	tree := Tree{Root: NewHalfSpace(ms3.Vec{Z: 1}, 0)}
	e := tree.NewEvaluator()
	iv := e.EvalInterval(ms3.Vec{X: -1, Y: -1, Z: -3}, ms3.Vec{X: 1, Y: 1, Z: 5})
	if iv.Lo != -3 || iv.Hi != 5 {
		t.Fatalf("want [-3,5], got [%v,%v]", iv.Lo, iv.Hi)
	}
}

func TestUnionIntervalConservativeAndPrunable(t *testing.T) {
	// A small sphere entirely inside a much larger box: over a box
	// region far from the sphere, evaluating the interval should let
	// Push prove the sphere branch irrelevant.
	sphere := NewSphere(0.1)
	box := NewBox(ms3.Vec{X: 10, Y: 10, Z: 10})
	tree := Tree{Root: NewUnion(sphere, box)}
	sampleInterval(t, tree, ms3.Vec{X: -1, Y: -1, Z: -1}, ms3.Vec{X: 1, Y: 1, Z: 1})

	e := tree.NewEvaluator().(*Evaluator)
	// Box dominates (much more negative) far from the origin.
	lo, hi := ms3.Vec{X: 5, Y: 5, Z: 5}, ms3.Vec{X: 6, Y: 6, Z: 6}
	e.EvalInterval(lo, hi)
	e.Push()
	n := tree.Root.(*binaryNode)
	st := e.states[n]
	if st.mode() != 1 {
		t.Fatalf("expected sphere branch to be disabled (mode 1) since the box dominates far from the origin, got mode %d", st.mode())
	}
	e.Pop()
	if st.mode() != 0 {
		t.Fatalf("expected Pop to restore mode 0, got %d", st.mode())
	}
}

func TestDifferenceGradientSelectsWinningBranch(t *testing.T) {
	outer := NewSphere(2)
	inner := NewSphere(1)
	tree := Tree{Root: NewDifference(outer, inner)}
	e := tree.NewEvaluator()
	e.SetRaw(ms3.Vec{X: 1.9}, 0)
	e.ApplyTransform(1)
	e.Set(ms3.Vec{X: 1.9}, 0)
	d := e.Derivs(1)
	// Near the outer shell (r=1.9) the outer sphere's gradient (2x,0,0)
	// dominates; expect a positive X component.
	if d.Dx[0] <= 0 {
		t.Fatalf("expected positive Dx near outer shell, got %v", d.Dx[0])
	}
}

func TestConstIntervalIsDegenerate(t *testing.T) {
	tree := Tree{Root: NewConst(-1)}
	e := tree.NewEvaluator()
	iv := e.EvalInterval(ms3.Vec{X: -1, Y: -1, Z: -1}, ms3.Vec{X: 1, Y: 1, Z: 1})
	if iv.Lo != -1 || iv.Hi != -1 {
		t.Fatalf("want degenerate [-1,-1], got [%v,%v]", iv.Lo, iv.Hi)
	}
}

func TestVecPoolLeakDetection(t *testing.T) {
	var fp bufPool[float32]
	buf := fp.Acquire(4)
	if err := fp.assertAllReleased(); err == nil {
		t.Fatal("expected leak error for unreleased buffer")
	}
	if err := fp.Release(buf); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if err := fp.assertAllReleased(); err != nil {
		t.Fatalf("unexpected leak after release: %v", err)
	}
}

func TestVecPoolDoubleReleaseErrors(t *testing.T) {
	var fp bufPool[float32]
	buf := fp.Acquire(4)
	if err := fp.Release(buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fp.Release(buf); err == nil {
		t.Fatal("expected error releasing an already-released buffer")
	}
}

func TestSphereGradientMatchesAnalytic(t *testing.T) {
	tree := Tree{Root: NewSphere(1)}
	e := tree.NewEvaluator()
	p := ms3.Vec{X: 0.3, Y: 0.4, Z: 0.5}
	e.Set(p, 0)
	d := e.Derivs(1)
	if math32.Abs(d.Dx[0]-2*p.X) > 1e-5 || math32.Abs(d.Dy[0]-2*p.Y) > 1e-5 || math32.Abs(d.Dz[0]-2*p.Z) > 1e-5 {
		t.Fatalf("gradient mismatch: got (%v,%v,%v)", d.Dx[0], d.Dy[0], d.Dz[0])
	}
}
