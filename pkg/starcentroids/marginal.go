package starcentroids

import (
	"fmt"
	"math"
)

// Centroid1DG computes the centroid of a 2D image by fitting a 1D Gaussian
// plus constant to each of the image's marginal x and y profiles.
//
// The marginal profiles are masked sums: the image is collapsed along the
// other axis with masked samples contributing zero. When an error grid is
// given, each profile bin's error is the quadrature sum of its samples'
// errors and turns into a fit weight 1/clip(error, 1e-30); bins whose every
// sample is masked get weight zero. The two axis fits are independent, so
// source rotation and x/y covariance are ignored.
func Centroid1DG(data, errs *Grid, mask *Mask) (*CentroidResult, error) {
	if data.NDim() != 2 {
		return nil, fmt.Errorf("data must be a 2D array, got %d dimensions: %w", data.NDim(), ErrInvalidInput)
	}

	combined, advisories, err := unionMask2D(data, errs, mask)
	if err != nil {
		return nil, err
	}

	rows, cols := data.Rows(), data.Cols()
	xProfile := make([]float64, cols)
	yProfile := make([]float64, rows)
	colSamples := make([]int, cols)
	rowSamples := make([]int, rows)
	constInit := math.Inf(1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if combined.At(y, x) {
				continue
			}
			v := data.At(y, x)
			xProfile[x] += v
			yProfile[y] += v
			colSamples[x]++
			rowSamples[y]++
			if v < constInit {
				constInit = v
			}
		}
	}
	if math.IsInf(constInit, 1) {
		constInit = 0
	}

	xWeights := make([]float64, cols)
	yWeights := make([]float64, rows)
	if errs != nil {
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if combined.At(y, x) {
					continue
				}
				e := errs.At(y, x)
				xWeights[x] += e * e
				yWeights[y] += e * e
			}
		}
		for i, sq := range xWeights {
			xWeights[i] = 1.0 / clipMin(math.Sqrt(sq), errorClipFloor)
		}
		for i, sq := range yWeights {
			yWeights[i] = 1.0 / clipMin(math.Sqrt(sq), errorClipFloor)
		}
	} else {
		for i := range xWeights {
			xWeights[i] = 1.0
		}
		for i := range yWeights {
			yWeights[i] = 1.0
		}
	}
	for i, n := range colSamples {
		if n == 0 {
			xWeights[i] = 0
		}
	}
	for i, n := range rowSamples {
		if n == 0 {
			yWeights[i] = 0
		}
	}

	xc := fitMarginal(xProfile, xWeights, constInit)
	yc := fitMarginal(yProfile, yWeights, constInit)

	return &CentroidResult{
		Coords:     []float64{xc, yc},
		Advisories: advisories,
	}, nil
}

// fitMarginal fits constant + 1D Gaussian to a profile and returns the
// fitted mean. The profile is finite by construction, so the moment seed
// cannot fail.
func fitMarginal(profile, weights []float64, constInit float64) float64 {
	est, _, _ := Gaussian1DMoments(profile, nil)

	p0 := make([]float64, numGauss1DParams)
	p0[g1dConstant] = constInit
	p0[g1dAmplitude] = est.Amplitude
	p0[g1dMean] = est.Mean
	p0[g1dStddev] = est.Stddev

	prob := lmProblem{
		eval: func(p []float64, k int) float64 {
			return gaussConst1D(p, float64(k))
		},
		grad: func(p []float64, k int, out []float64) {
			gaussConst1DGradient(p, float64(k), out)
		},
		obs:     profile,
		weights: weights,
		nParams: numGauss1DParams,
	}
	pf := levenbergMarquardt(prob, p0, fitTolerance, fitMaxIter)
	return pf[g1dMean]
}
