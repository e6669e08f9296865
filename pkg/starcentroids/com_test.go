package starcentroids

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroidCOMSimple(t *testing.T) {
	t.Parallel()

	t.Run("uniform 2x2", func(t *testing.T) {
		t.Parallel()
		data, err := GridFromSlice([]float64{1, 1, 1, 1}, 2, 2)
		require.NoError(t, err)

		res, err := CentroidCOM(data, nil, NoOversampling)
		require.NoError(t, err)
		x, y := res.XY()
		assert.InDelta(t, 0.5, x, 1e-6)
		assert.InDelta(t, 0.5, y, 1e-6)
	})

	t.Run("uniform 2x2 with bottom row masked", func(t *testing.T) {
		t.Parallel()
		data, err := GridFromSlice([]float64{1, 1, 1, 1}, 2, 2)
		require.NoError(t, err)
		mask, err := MaskFromSlice([]bool{false, false, true, true}, 2, 2)
		require.NoError(t, err)

		res, err := CentroidCOM(data, mask, NoOversampling)
		require.NoError(t, err)
		x, y := res.XY()
		assert.InDelta(t, 0.5, x, 1e-6)
		assert.InDelta(t, 0.0, y, 1e-6)
	})

	t.Run("plus shape", func(t *testing.T) {
		t.Parallel()
		data, err := GridFromSlice([]float64{
			0, 1, 0,
			1, 2, 0,
			0, 0, 0,
		}, 3, 3)
		require.NoError(t, err)

		res, err := CentroidCOM(data, nil, NoOversampling)
		require.NoError(t, err)
		x, y := res.XY()
		assert.InDelta(t, 0.75, x, 1e-6)
		assert.InDelta(t, 0.75, y, 1e-6)
	})
}

func TestCentroidCOMGaussian(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 25.7, 26.2

	for _, p := range recoveryShapes() {
		p := p
		t.Run(fmt.Sprintf("sx=%.1f sy=%.1f theta=%.3f", p.sx, p.sy, p.theta), func(t *testing.T) {
			t.Parallel()
			data := makeGaussianGrid(50, 47, 2.4, xcRef, ycRef, p.sx, p.sy, p.theta)

			res, err := CentroidCOM(data, nil, NoOversampling)
			require.NoError(t, err)
			x, y := res.XY()
			assert.InDelta(t, xcRef, x, 1e-3)
			assert.InDelta(t, ycRef, y, 1e-3)
			assert.Empty(t, res.Advisories)
		})
	}
}

func TestCentroidCOMOversampling(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 25.7, 26.2

	data := makeGaussianGrid(50, 50, 2.4, xcRef, ycRef, 3.2, 5.7, 30*math.Pi/180)
	mask := NewMask(50, 50)
	data.Set(10, 10, 1e5)
	mask.Set(10, 10, true)

	for _, ov := range []Oversampling{UniformOversampling(4), {X: 4, Y: 6}} {
		ov := ov
		t.Run(fmt.Sprintf("oversampling %vx%v", ov.X, ov.Y), func(t *testing.T) {
			t.Parallel()
			res, err := CentroidCOM(data, mask, ov)
			require.NoError(t, err)
			x, y := res.XY()
			assert.InDelta(t, xcRef/ov.X, x, 1e-3)
			assert.InDelta(t, ycRef/ov.Y, y, 1e-3)
		})
	}
}

func TestCentroidCOMNonFinite(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 24.7, 25.2

	t.Run("NaN row auto-masked with advisory", func(t *testing.T) {
		t.Parallel()
		data := makeGaussianGrid(50, 50, 2.4, xcRef, ycRef, 5.0, 5.0, 0)
		for x := 0; x < 50; x++ {
			data.Set(20, x, math.NaN())
		}

		res, err := CentroidCOM(data, nil, NoOversampling)
		require.NoError(t, err)
		x, y := res.XY()
		assert.InDelta(t, xcRef, x, 1e-3)
		// Zeroing a row below the source center pulls the centroid up.
		assert.Greater(t, y, ycRef)

		require.Len(t, res.Advisories, 1)
		assert.Equal(t, AdvisoryNonFiniteData, res.Advisories[0].Code)
		assert.Equal(t, 50, res.Advisories[0].Count)
	})

	t.Run("masked NaN row raises no advisory", func(t *testing.T) {
		t.Parallel()
		data := makeGaussianGrid(50, 50, 2.4, xcRef, ycRef, 5.0, 5.0, 0)
		mask := NewMask(50, 50)
		for x := 0; x < 50; x++ {
			data.Set(20, x, math.NaN())
			mask.Set(20, x, true)
		}

		res, err := CentroidCOM(data, mask, NoOversampling)
		require.NoError(t, err)
		x, _ := res.XY()
		assert.InDelta(t, xcRef, x, 1e-3)
		assert.Empty(t, res.Advisories)
	})
}

func TestCentroidCOMMaskEquivalence(t *testing.T) {
	t.Parallel()

	// Masking a row must match zeroing that row's values by hand.
	data := makeGaussianGrid(50, 50, 2.4, 24.7, 25.2, 5.0, 5.0, 0)
	mask := NewMask(50, 50)
	zeroed := data.Clone()
	for x := 0; x < 50; x++ {
		mask.Set(20, x, true)
		zeroed.Set(20, x, 0)
	}

	masked, err := CentroidCOM(data, mask, NoOversampling)
	require.NoError(t, err)
	manual, err := CentroidCOM(zeroed, nil, NoOversampling)
	require.NoError(t, err)
	assert.Equal(t, manual.Coords, masked.Coords)
}

func TestCentroidCOMOversamplingProperty(t *testing.T) {
	t.Parallel()

	// centroid(data, oversampling=s) == centroid(data) / s, elementwise.
	data := makeGaussianGrid(40, 40, 2.4, 19.3, 21.8, 4.0, 3.0, 0)

	plain, err := CentroidCOM(data, nil, NoOversampling)
	require.NoError(t, err)
	for _, s := range []float64{2, 4, 7.5} {
		scaled, err := CentroidCOM(data, nil, UniformOversampling(s))
		require.NoError(t, err)
		assert.InDelta(t, plain.Coords[0]/s, scaled.Coords[0], 1e-12)
		assert.InDelta(t, plain.Coords[1]/s, scaled.Coords[1], 1e-12)
	}
}

func TestCentroidCOMNonzeroMaskCoercion(t *testing.T) {
	t.Parallel()

	values := make([]float64, 16)
	for i := range values {
		values[i] = float64(i)
	}
	data, err := GridFromSlice(values, 4, 4)
	require.NoError(t, err)

	numeric := NewGrid(4, 4)
	boolMask := NewMask(4, 4)
	for x := 0; x < 4; x++ {
		numeric.Set(0, x, 1)
		numeric.Set(1, x, 1)
		boolMask.Set(0, x, true)
		boolMask.Set(1, x, true)
	}

	res1, err := CentroidCOM(data, MaskOfNonzero(numeric), NoOversampling)
	require.NoError(t, err)
	res2, err := CentroidCOM(data, boolMask, NoOversampling)
	require.NoError(t, err)
	assert.Equal(t, res2.Coords, res1.Coords)
}

func TestCentroidCOMInvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("mask shape mismatch", func(t *testing.T) {
		t.Parallel()
		data := NewGrid(4, 4)
		mask := NewMask(2, 2)
		_, err := CentroidCOM(data, mask, NoOversampling)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative oversampling", func(t *testing.T) {
		t.Parallel()
		data := NewGrid(5, 5)
		_, err := CentroidCOM(data, nil, UniformOversampling(-1))
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero total is not an error", func(t *testing.T) {
		t.Parallel()
		data := NewGrid(5, 5)
		res, err := CentroidCOM(data, nil, NoOversampling)
		require.NoError(t, err)
		x, y := res.XY()
		assert.True(t, math.IsNaN(x))
		assert.True(t, math.IsNaN(y))
	})
}
