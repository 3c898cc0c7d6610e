package heightmap

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/soypat/glgl/math/ms3"
	"github.com/vxlcast/heightmap/voxel"
)

// Tree constructs one Evaluator bound to the implicit solid being
// rendered. The dispatcher calls it once per worker so each worker
// gets its own exclusively-owned evaluator state.
type Tree interface {
	NewEvaluator() Evaluator
}

// Render constructs a pool of workers evaluators from tree and renders
// grid into a fresh pair of images.
func Render(tree Tree, grid *voxel.Grid, abort *atomic.Bool, m *ms3.Mat4, workers int) (*DepthImage, *NormalImage, error) {
	if workers < 1 {
		return nil, nil, errors.New("heightmap: workers must be >= 1")
	}
	evals := make([]Evaluator, workers)
	for i := range evals {
		evals[i] = tree.NewEvaluator()
	}
	return RenderPool(evals, grid, abort, m)
}

// RenderPool renders grid using a caller-supplied, reusable pool of
// evaluators (one per worker; len(evals) is the worker count) into a
// fresh pair of images.
func RenderPool(evals []Evaluator, grid *voxel.Grid, abort *atomic.Bool, m *ms3.Mat4) (*DepthImage, *NormalImage, error) {
	rows, cols := grid.ImageSize()
	depth := NewDepthImage(rows, cols)
	norm := NewNormalImage(rows, cols)
	if err := RenderInto(evals, grid, abort, m, depth, norm); err != nil {
		return nil, nil, err
	}
	return depth, norm, nil
}

// RenderInto renders grid into the caller-supplied depth and norm
// images, which must already be sized to grid.ImageSize(). This is the
// in-place entry point: it never allocates an image of its own.
func RenderInto(evals []Evaluator, grid *voxel.Grid, abort *atomic.Bool, m *ms3.Mat4, depth *DepthImage, norm *NormalImage) error {
	if len(evals) == 0 {
		return errors.New("heightmap: need at least one evaluator")
	}
	if grid.View().Voxels() == 0 {
		return errors.New("heightmap: empty grid")
	}
	depth.Reset()
	norm.Reset()

	views := splitForWorkers(grid.View(), len(evals))

	var wg sync.WaitGroup
	wg.Add(len(views))
	for i, view := range views {
		eval := evals[i]
		eval.SetPointMatrix(m)
		view := view
		go func() {
			defer wg.Done()
			subdivide(eval, view, depth, norm, abort)
		}()
	}
	wg.Wait()

	topFaceTouchUp(grid, depth, norm)
	return nil
}

// splitForWorkers produces a list of XY-only sub-views by repeatedly
// splitting the front of the queue along the larger of its X and Y
// extents until either the list reaches n entries or the smallest XY
// extent in the front view reaches 1. Each split is single-axis, so the
// views never overlap and together cover root exactly. The resulting
// list may hold fewer than n views; surplus evaluators then simply go
// unused.
func splitForWorkers(root voxel.View, n int) []voxel.View {
	queue := []voxel.View{root}
	for len(queue) < n {
		front := queue[0]
		sx, sy, _ := front.Size()
		if min(sx, sy) <= 1 {
			break
		}
		queue = queue[1:]
		axis := voxel.AxisX
		if sy > sx {
			axis = voxel.AxisY
		}
		first, second := front.Split(axis)
		queue = append(queue, first, second)
	}
	return queue
}

// topFaceTouchUp overwrites the normal of every pixel whose final
// depth equals the grid's topmost z plane with the fixed +Z sentinel,
// compensating for the fact that such pixels' gradient may have been
// computed slightly past the sampled plane, or were produced by
// fillRegion with an arbitrary gradient.
func topFaceTouchUp(grid *voxel.Grid, depth *DepthImage, norm *NormalImage) {
	_, _, sz := grid.Size()
	topZ := grid.View().Z()[sz-1]
	rows, cols := depth.Dims()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if depth.At(row, col) == topZ {
				norm.Set(row, col, topFaceSentinel)
			}
		}
	}
}
