package starcentroids

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks failures caused by malformed arguments: shape
// mismatches between data/mask/error, non-positive oversampling or shift
// values, malformed cutout windows, or too few unmasked samples for a fit.
// All such errors wrap this sentinel.
var ErrInvalidInput = errors.New("invalid input")

// Point2d represents a 2D position with float64 coordinates, always in
// (x, y) pixel order regardless of array storage order.
type Point2d struct {
	X, Y float64
}

// Grid is a dense n-dimensional array of float64 samples stored in
// row-major order. For 2D images axis 0 is the row (y) and axis 1 is the
// column (x). Samples may hold non-finite values (NaN/Inf).
type Grid struct {
	shape []int
	data  []float64
}

// NewGrid creates a zero-filled grid with the given shape. All dimensions
// must be positive.
func NewGrid(shape ...int) *Grid {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("starcentroids: grid dimensions must be positive, got %v", shape))
		}
		n *= s
	}
	return &Grid{shape: append([]int(nil), shape...), data: make([]float64, n)}
}

// GridFromSlice wraps an existing row-major slice as a grid. The slice is
// used directly, not copied.
func GridFromSlice(data []float64, shape ...int) (*Grid, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("grid dimensions must be positive, got %v: %w", shape, ErrInvalidInput)
		}
		n *= s
	}
	if len(data) != n {
		return nil, fmt.Errorf("data length %d does not match shape %v: %w", len(data), shape, ErrInvalidInput)
	}
	return &Grid{shape: append([]int(nil), shape...), data: data}, nil
}

func (g *Grid) NDim() int { return len(g.shape) }
func (g *Grid) Len() int  { return len(g.data) }

// Shape returns a copy of the per-axis sizes in storage order.
func (g *Grid) Shape() []int { return append([]int(nil), g.shape...) }

// Rows and Cols are conveniences for 2D grids.
func (g *Grid) Rows() int { return g.shape[0] }
func (g *Grid) Cols() int { return g.shape[len(g.shape)-1] }

// Data returns the backing slice in row-major order.
func (g *Grid) Data() []float64 { return g.data }

// At and Set address a sample of a 2D grid by row and column.
func (g *Grid) At(y, x int) float64     { return g.data[y*g.shape[1]+x] }
func (g *Grid) Set(y, x int, v float64) { g.data[y*g.shape[1]+x] = v }

func (g *Grid) Clone() *Grid {
	c := NewGrid(g.shape...)
	copy(c.data, g.data)
	return c
}

// Mask is a boolean grid with the same storage convention as Grid. A true
// value marks the corresponding sample as excluded.
type Mask struct {
	shape []int
	data  []bool
}

// NewMask creates an all-false mask with the given shape.
func NewMask(shape ...int) *Mask {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("starcentroids: mask dimensions must be positive, got %v", shape))
		}
		n *= s
	}
	return &Mask{shape: append([]int(nil), shape...), data: make([]bool, n)}
}

// MaskFromSlice wraps an existing row-major bool slice as a mask. The slice
// is used directly, not copied.
func MaskFromSlice(data []bool, shape ...int) (*Mask, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("mask dimensions must be positive, got %v: %w", shape, ErrInvalidInput)
		}
		n *= s
	}
	if len(data) != n {
		return nil, fmt.Errorf("mask length %d does not match shape %v: %w", len(data), shape, ErrInvalidInput)
	}
	return &Mask{shape: append([]int(nil), shape...), data: data}, nil
}

// MaskOfNonzero builds a mask excluding every nonzero sample of g. It is
// the coercion path for numeric masks: any nonzero (or non-finite) value
// marks the sample as excluded.
func MaskOfNonzero(g *Grid) *Mask {
	m := NewMask(g.shape...)
	for i, v := range g.data {
		if v != 0 {
			m.data[i] = true
		}
	}
	return m
}

func (m *Mask) NDim() int    { return len(m.shape) }
func (m *Mask) Len() int     { return len(m.data) }
func (m *Mask) Shape() []int { return append([]int(nil), m.shape...) }
func (m *Mask) Data() []bool { return m.data }

// At and Set address a 2D mask entry by row and column.
func (m *Mask) At(y, x int) bool     { return m.data[y*m.shape[1]+x] }
func (m *Mask) Set(y, x int, v bool) { m.data[y*m.shape[1]+x] = v }

func (m *Mask) Clone() *Mask {
	c := NewMask(m.shape...)
	copy(c.data, m.data)
	return c
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Oversampling holds per-axis oversampling factors in pixel order: X is
// the factor along the fastest-varying storage axis. Computed pixel-space
// coordinates are divided by the factor of their axis to report positions
// in native-pixel units. Factors must be strictly positive.
type Oversampling struct {
	X, Y float64
}

// NoOversampling is the identity factor pair.
var NoOversampling = Oversampling{X: 1, Y: 1}

// UniformOversampling broadcasts a scalar factor to both axes.
func UniformOversampling(f float64) Oversampling {
	return Oversampling{X: f, Y: f}
}

func (o Oversampling) validate() error {
	if o.X <= 0 || o.Y <= 0 {
		return fmt.Errorf("oversampling factors must all be positive numbers, got (%v, %v): %w", o.X, o.Y, ErrInvalidInput)
	}
	return nil
}

// factorForAxis maps a storage axis to its oversampling factor: the last
// axis is x, the second-to-last is y, any further axis is unscaled.
func (o Oversampling) factorForAxis(axis, ndim int) float64 {
	switch axis {
	case ndim - 1:
		return o.X
	case ndim - 2:
		return o.Y
	default:
		return 1
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ptp is the peak-to-peak (max - min) spread of a slice.
func ptp(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

func clipMin(v, lo float64) float64 {
	if v < lo {
		return lo
	}
	return v
}
