package evalcpu

import (
	"errors"
	"fmt"
)

// bufPool is a small pool of reusable scratch slices, ported from the
// teacher's gleval.VecPool (form3/glsdf3/gleval/cpu.go): CSG
// combinators need a scratch distance buffer per child evaluation and
// this avoids allocating one on every batched call. It is generic,
// matching the teacher's bufPool[T]: the Evaluator keeps a float32
// pool for CSG distances and an ms3.Vec pool for translated points.
type bufPool[T any] struct {
	ins      [][]T
	acquired []bool
}

// Acquire returns a slice of length minLength, reusing a released
// buffer if one is large enough.
func (bp *bufPool[T]) Acquire(minLength int) []T {
	for i, locked := range bp.acquired {
		if !locked && len(bp.ins[i]) >= minLength {
			bp.acquired[i] = true
			return bp.ins[i][:minLength]
		}
	}
	buf := make([]T, minLength)
	bp.ins = append(bp.ins, buf)
	bp.acquired = append(bp.acquired, true)
	return buf
}

// Release returns buf to the pool.
func (bp *bufPool[T]) Release(buf []T) error {
	if len(buf) == 0 {
		return errors.New("evalcpu: release of empty buffer")
	}
	for i, instance := range bp.ins {
		if len(instance) > 0 && &instance[0] == &buf[0] {
			if !bp.acquired[i] {
				return errors.New("evalcpu: release of unacquired resource")
			}
			bp.acquired[i] = false
			return nil
		}
	}
	return errors.New("evalcpu: release of nonexistent resource")
}

// assertAllReleased reports a leaked acquisition, mirroring the
// teacher's VecPool.AssertAllReleased used to catch missing Release
// calls.
func (bp *bufPool[T]) assertAllReleased() error {
	for _, locked := range bp.acquired {
		if locked {
			return fmt.Errorf("evalcpu: locked %T resource found in bufPool.assertAllReleased, memory leak?", *new(T))
		}
	}
	return nil
}
