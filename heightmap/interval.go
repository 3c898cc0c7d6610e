package heightmap

import "github.com/chewxy/math32"

// Interval is a conservative bound [Lo, Hi] on the value of f over some
// box, as returned by Evaluator.EvalInterval. Not present in the
// teacher's vectorized SDF evaluator (which only evaluates points);
// ported from the arithmetic in the reference implementation's
// interval.hpp.
type Interval struct {
	Lo, Hi float32
}

// Lower and Upper mirror the reference implementation's accessor
// names (Interval::lower()/upper()) for readers following the
// original algorithm description.
func (i Interval) Lower() float32 { return i.Lo }
func (i Interval) Upper() float32 { return i.Hi }

// Contains reports whether v lies within the interval's bound.
func (i Interval) Contains(v float32) bool {
	return v >= i.Lo && v <= i.Hi
}

// Union returns the smallest interval containing both i and j.
func (i Interval) Union(j Interval) Interval {
	return Interval{Lo: math32.Min(i.Lo, j.Lo), Hi: math32.Max(i.Hi, j.Hi)}
}

// Add returns the conservative bound on i+j.
func (i Interval) Add(j Interval) Interval {
	return Interval{Lo: i.Lo + j.Lo, Hi: i.Hi + j.Hi}
}

// Sub returns the conservative bound on i-j.
func (i Interval) Sub(j Interval) Interval {
	return Interval{Lo: i.Lo - j.Hi, Hi: i.Hi - j.Lo}
}

// Neg returns the conservative bound on -i.
func (i Interval) Neg() Interval {
	return Interval{Lo: -i.Hi, Hi: -i.Lo}
}

// MulScalar returns the conservative bound on i*s.
func (i Interval) MulScalar(s float32) Interval {
	if s >= 0 {
		return Interval{Lo: i.Lo * s, Hi: i.Hi * s}
	}
	return Interval{Lo: i.Hi * s, Hi: i.Lo * s}
}

// Min returns the conservative bound on the pointwise minimum of two
// independently bounded functions: [min(i.Lo,j.Lo), min(i.Hi,j.Hi)].
func (i Interval) Min(j Interval) Interval {
	return Interval{Lo: math32.Min(i.Lo, j.Lo), Hi: math32.Min(i.Hi, j.Hi)}
}

// Max returns the conservative bound on the pointwise maximum of two
// independently bounded functions: [max(i.Lo,j.Lo), max(i.Hi,j.Hi)].
func (i Interval) Max(j Interval) Interval {
	return Interval{Lo: math32.Max(i.Lo, j.Lo), Hi: math32.Max(i.Hi, j.Hi)}
}

// Sq returns the conservative bound on i*i.
func (i Interval) Sq() Interval {
	if i.Lo >= 0 {
		return Interval{Lo: i.Lo * i.Lo, Hi: i.Hi * i.Hi}
	}
	if i.Hi <= 0 {
		return Interval{Lo: i.Hi * i.Hi, Hi: i.Lo * i.Lo}
	}
	return Interval{Lo: 0, Hi: math32.Max(i.Lo*i.Lo, i.Hi*i.Hi)}
}

// Abs returns the conservative bound on |i|.
func (i Interval) Abs() Interval {
	if i.Lo >= 0 {
		return i
	}
	if i.Hi <= 0 {
		return i.Neg()
	}
	return Interval{Lo: 0, Hi: math32.Max(-i.Lo, i.Hi)}
}

// Disjoint reports whether i is entirely less than j (i.Hi < j.Lo).
func (i Interval) Disjoint(j Interval) bool {
	return i.Hi < j.Lo
}
