package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "starcentroids/pkg/starcentroids"
)

func TestParsePositions(t *testing.T) {
	t.Parallel()

	t.Run("single pair", func(t *testing.T) {
		t.Parallel()
		xs, ys, err := parsePositions("12.5,34")
		require.NoError(t, err)
		assert.Equal(t, []float64{12.5}, xs)
		assert.Equal(t, []float64{34.0}, ys)
	})

	t.Run("multiple pairs with spaces", func(t *testing.T) {
		t.Parallel()
		xs, ys, err := parsePositions("1,2; 3.5 , 4.5 ;5,6")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 3.5, 5}, xs)
		assert.Equal(t, []float64{2, 4.5, 6}, ys)
	})

	t.Run("malformed pair", func(t *testing.T) {
		t.Parallel()
		_, _, err := parsePositions("1,2,3")
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, _, err := parsePositions(" ; ")
		require.Error(t, err)
	})
}

func TestSelectCentroider(t *testing.T) {
	t.Parallel()

	c, err := selectCentroider("com", 2)
	require.NoError(t, err)
	assert.Equal(t, sc.COMCentroider{Oversampling: sc.UniformOversampling(2)}, c)

	c, err = selectCentroider("2DG", 1)
	require.NoError(t, err)
	assert.Equal(t, sc.Gaussian2DCentroider{}, c)

	_, err = selectCentroider("nope", 1)
	require.Error(t, err)
}
