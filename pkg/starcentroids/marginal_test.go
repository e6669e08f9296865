package starcentroids

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroid1DG(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 25.7, 26.2

	for _, p := range recoveryShapes() {
		p := p
		t.Run(fmt.Sprintf("sx=%.1f sy=%.1f theta=%.3f", p.sx, p.sy, p.theta), func(t *testing.T) {
			t.Parallel()
			data := makeGaussianGrid(50, 47, 2.4, xcRef, ycRef, p.sx, p.sy, p.theta)

			res, err := Centroid1DG(data, nil, nil)
			require.NoError(t, err)
			x, y := res.XY()
			assert.InDelta(t, xcRef, x, 1e-3)
			assert.InDelta(t, ycRef, y, 1e-3)
		})
	}
}

func TestCentroid1DGWithError(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 25.7, 26.2

	data := makeGaussianGrid(50, 50, 2.4, xcRef, ycRef, 4.0, 4.1, 45*math.Pi/180)
	errs := NewGrid(50, 50)
	for i, v := range data.Data() {
		errs.Data()[i] = math.Sqrt(v)
	}

	res, err := Centroid1DG(data, errs, nil)
	require.NoError(t, err)
	x, y := res.XY()
	assert.InDelta(t, xcRef, x, 1e-3)
	assert.InDelta(t, ycRef, y, 1e-3)
}

func TestCentroid1DGWithMask(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 24.7, 25.2

	data := makeGaussianGrid(50, 50, 2.4, xcRef, ycRef, 5.0, 5.0, 0)
	mask := NewMask(50, 50)
	data.Set(10, 10, 1e5)
	mask.Set(10, 10, true)

	res, err := Centroid1DG(data, nil, mask)
	require.NoError(t, err)
	x, y := res.XY()
	assert.InDelta(t, xcRef, x, 1e-3)
	assert.InDelta(t, ycRef, y, 1e-3)
}

func TestCentroid1DGNaNRow(t *testing.T) {
	t.Parallel()
	const xcRef, ycRef = 24.7, 25.2

	for _, useMask := range []bool{true, false} {
		useMask := useMask
		t.Run(fmt.Sprintf("explicit mask %v", useMask), func(t *testing.T) {
			t.Parallel()
			data := makeGaussianGrid(50, 50, 2.4, xcRef, ycRef, 5.0, 5.0, 0)
			var mask *Mask
			if useMask {
				mask = NewMask(50, 50)
			}
			for x := 0; x < 50; x++ {
				data.Set(20, x, math.NaN())
				if mask != nil {
					mask.Set(20, x, true)
				}
			}

			res, err := Centroid1DG(data, nil, mask)
			require.NoError(t, err)
			x, y := res.XY()
			assert.InDelta(t, xcRef, x, 1e-3)
			assert.InDelta(t, ycRef, y, 1e-3)
		})
	}
}

func TestCentroid1DGInvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("mask shape mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := Centroid1DG(NewGrid(4, 4), nil, NewMask(2, 2))
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("error shape mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := Centroid1DG(NewGrid(4, 4), NewGrid(2, 2), nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("not 2D", func(t *testing.T) {
		t.Parallel()
		_, err := Centroid1DG(NewGrid(16), nil, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
