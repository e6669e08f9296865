package starcentroids

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Gaussian1DEstimate holds 1D Gaussian parameters estimated from the
// moments of a signal, suitable as initial values for a fit.
type Gaussian1DEstimate struct {
	Amplitude float64
	Mean      float64
	Stddev    float64
}

// Gaussian1DMoments estimates 1D Gaussian parameters from the statistical
// moments of a 1D signal. Masked entries are zero-filled before the moment
// sums; non-finite entries are zeroed as well and reported as an advisory.
// The amplitude is the peak-to-peak spread of the zero-filled signal.
func Gaussian1DMoments(data []float64, mask []bool) (Gaussian1DEstimate, []Advisory, error) {
	if mask != nil && len(mask) != len(data) {
		return Gaussian1DEstimate{}, nil, fmt.Errorf("data and mask must have the same shape: %w", ErrInvalidInput)
	}

	work := append([]float64(nil), data...)
	nonFinite := 0
	for i, v := range work {
		if !isFinite(v) {
			work[i] = 0
			nonFinite++
		}
	}
	if mask != nil {
		for i, excluded := range mask {
			if excluded {
				work[i] = 0
			}
		}
	}

	var total, weighted float64
	for i, v := range work {
		total += v
		weighted += float64(i) * v
	}
	mean := weighted / total

	var spread float64
	for i, v := range work {
		d := float64(i) - mean
		spread += v * d * d
	}
	stddev := math.Sqrt(math.Abs(spread / total))

	est := Gaussian1DEstimate{Amplitude: ptp(work), Mean: mean, Stddev: stddev}
	return est, nonFiniteAdvisory(AdvisoryNonFiniteData, nonFinite), nil
}

// shapeEstimate holds source-shape properties derived from second-order
// image moments, used to seed the 2D Gaussian fit.
type shapeEstimate struct {
	xc, yc     float64
	sigmaMajor float64
	sigmaMinor float64
	theta      float64 // radians, counter-clockwise
}

// estimateShape computes the intensity-weighted centroid and covariance of
// a 2D grid over its unmasked pixels, then converts the covariance
// eigenvalues to semimajor/semiminor Gaussian sigmas and the orientation
// angle of the major axis. Negative eigenvalues are clipped at zero.
func estimateShape(data *Grid, mask *Mask) shapeEstimate {
	rows, cols := data.Rows(), data.Cols()

	var total, sx, sy float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask != nil && mask.At(y, x) {
				continue
			}
			v := data.At(y, x)
			total += v
			sx += float64(x) * v
			sy += float64(y) * v
		}
	}
	xc := sx / total
	yc := sy / total

	var mxx, myy, mxy float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if mask != nil && mask.At(y, x) {
				continue
			}
			v := data.At(y, x)
			dx := float64(x) - xc
			dy := float64(y) - yc
			mxx += dx * dx * v
			myy += dy * dy * v
			mxy += dx * dy * v
		}
	}
	mxx /= total
	myy /= total
	mxy /= total

	est := shapeEstimate{
		xc:    xc,
		yc:    yc,
		theta: 0.5 * math.Atan2(2*mxy, mxx-myy),
	}

	cov := mat.NewSymDense(2, []float64{mxx, mxy, mxy, myy})
	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		est.sigmaMajor = math.NaN()
		est.sigmaMinor = math.NaN()
		return est
	}
	vals := eig.Values(nil) // ascending
	est.sigmaMinor = math.Sqrt(clipMin(vals[0], 0))
	est.sigmaMajor = math.Sqrt(clipMin(vals[1], 0))
	return est
}
