package starcentroids

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	fitTolerance = 1e-8
	fitMaxIter   = 200

	// errorClipFloor keeps 1/error weights finite for zero errors.
	errorClipFloor = 1e-30
)

// Gaussian2DFit is the immutable result of fitting a constant plus a
// rotated 2D Gaussian to an image. Theta is the rotation angle in radians,
// counter-clockwise about the mean.
type Gaussian2DFit struct {
	Constant  float64
	Amplitude float64
	XMean     float64
	YMean     float64
	XStddev   float64
	YStddev   float64
	Theta     float64

	Advisories []Advisory
}

// Eval evaluates the fitted model at pixel coordinates (x, y).
func (f *Gaussian2DFit) Eval(x, y float64) float64 {
	return gaussConst2D(f.params(), x, y)
}

// Centroid returns the fitted Gaussian center.
func (f *Gaussian2DFit) Centroid() Point2d {
	return Point2d{X: f.XMean, Y: f.YMean}
}

func (f *Gaussian2DFit) params() []float64 {
	p := make([]float64, numGauss2DParams)
	p[g2dConstant] = f.Constant
	p[g2dAmplitude] = f.Amplitude
	p[g2dXMean] = f.XMean
	p[g2dYMean] = f.YMean
	p[g2dXStddev] = f.XStddev
	p[g2dYStddev] = f.YStddev
	p[g2dTheta] = f.Theta
	return p
}

// unionMask2D combines the input mask with the non-finite entries of data
// and, when given, error. Non-finite data samples raise an advisory.
func unionMask2D(data, errs *Grid, mask *Mask) (*Mask, []Advisory, error) {
	var combined *Mask
	if mask != nil {
		if !sameShape(data.shape, mask.shape) {
			return nil, nil, fmt.Errorf("data and mask must have the same shape: %w", ErrInvalidInput)
		}
		combined = mask.Clone()
	} else {
		combined = NewMask(data.shape...)
	}

	nonFiniteData := 0
	for i, v := range data.data {
		if !isFinite(v) {
			if !combined.data[i] {
				combined.data[i] = true
			}
			nonFiniteData++
		}
	}

	nonFiniteErr := 0
	if errs != nil {
		if !sameShape(data.shape, errs.shape) {
			return nil, nil, fmt.Errorf("data and error must have the same shape: %w", ErrInvalidInput)
		}
		for i, v := range errs.data {
			if !isFinite(v) {
				combined.data[i] = true
				nonFiniteErr++
			}
		}
	}

	advisories := append(nonFiniteAdvisory(AdvisoryNonFiniteData, nonFiniteData),
		nonFiniteAdvisory(AdvisoryNonFiniteError, nonFiniteErr)...)
	return combined, advisories, nil
}

// FitGaussian2D fits a constant plus a rotated 2D Gaussian to a 2D image
// by weighted nonlinear least squares.
//
// The mask is unioned with the non-finite entries of data and error. At
// least 7 samples (the model's parameter count) must remain unmasked. Fit
// weights are 1/clip(error, 1e-30), or uniform when no error is given, and
// zero at masked samples. Initial shape parameters come from the
// second-order moments of the min-subtracted, zero-filled data.
//
// The solver's best result is returned as-is; convergence is not checked.
func FitGaussian2D(data, errs *Grid, mask *Mask) (*Gaussian2DFit, error) {
	if data.NDim() != 2 {
		return nil, fmt.Errorf("data must be a 2D array, got %d dimensions: %w", data.NDim(), ErrInvalidInput)
	}

	combined, advisories, err := unionMask2D(data, errs, mask)
	if err != nil {
		return nil, err
	}

	unmasked := 0
	for _, excluded := range combined.data {
		if !excluded {
			unmasked++
		}
	}
	if unmasked < numGauss2DParams {
		return nil, fmt.Errorf("input data must have at least %d unmasked values to fit a 2D Gaussian plus a constant, got %d: %w",
			numGauss2DParams, unmasked, ErrInvalidInput)
	}

	weights := make([]float64, data.Len())
	if errs != nil {
		for i, e := range errs.data {
			weights[i] = 1.0 / clipMin(e, errorClipFloor)
		}
	} else {
		for i := range weights {
			weights[i] = 1.0
		}
	}
	for i, excluded := range combined.data {
		if excluded {
			weights[i] = 0
		}
	}

	filled := make([]float64, data.Len())
	for i, v := range data.data {
		if !combined.data[i] {
			filled[i] = v
		}
	}

	// Subtracting the minimum keeps the values non-negative so the moment
	// estimation cannot produce undefined shape parameters; the constant
	// seed of 0 compensates for the shift.
	shifted := NewGrid(data.shape...)
	minVal := floats.Min(filled)
	for i, v := range filled {
		shifted.data[i] = v - minVal
	}
	shape := estimateShape(shifted, combined)

	p0 := make([]float64, numGauss2DParams)
	p0[g2dConstant] = 0
	p0[g2dAmplitude] = ptp(filled)
	p0[g2dXMean] = shape.xc
	p0[g2dYMean] = shape.yc
	p0[g2dXStddev] = shape.sigmaMajor
	p0[g2dYStddev] = shape.sigmaMinor
	p0[g2dTheta] = shape.theta

	cols := data.Cols()
	prob := lmProblem{
		eval: func(p []float64, k int) float64 {
			return gaussConst2D(p, float64(k%cols), float64(k/cols))
		},
		grad: func(p []float64, k int, out []float64) {
			gaussConst2DGradient(p, float64(k%cols), float64(k/cols), out)
		},
		obs:     filled,
		weights: weights,
		nParams: numGauss2DParams,
	}
	pf := levenbergMarquardt(prob, p0, fitTolerance, fitMaxIter)

	return &Gaussian2DFit{
		Constant:   pf[g2dConstant],
		Amplitude:  pf[g2dAmplitude],
		XMean:      pf[g2dXMean],
		YMean:      pf[g2dYMean],
		XStddev:    math.Abs(pf[g2dXStddev]),
		YStddev:    math.Abs(pf[g2dYStddev]),
		Theta:      pf[g2dTheta],
		Advisories: advisories,
	}, nil
}

// Centroid2DG computes the centroid of a 2D image as the center of the
// best-fitting 2D Gaussian plus constant. It delegates entirely to
// FitGaussian2D.
func Centroid2DG(data, errs *Grid, mask *Mask) (*CentroidResult, error) {
	fit, err := FitGaussian2D(data, errs, mask)
	if err != nil {
		return nil, err
	}
	return &CentroidResult{
		Coords:     []float64{fit.XMean, fit.YMean},
		Advisories: fit.Advisories,
	}, nil
}
