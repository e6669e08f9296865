package starcentroids

import "math"

// Parameter layout of the constant + rotated 2D Gaussian composite model.
const (
	g2dConstant = iota
	g2dAmplitude
	g2dXMean
	g2dYMean
	g2dXStddev
	g2dYStddev
	g2dTheta
	numGauss2DParams
)

// Parameter layout of the constant + 1D Gaussian composite model.
const (
	g1dConstant = iota
	g1dAmplitude
	g1dMean
	g1dStddev
	numGauss1DParams
)

// gaussConst2D evaluates constant + amplitude * exp(-E) where E is the
// squared Mahalanobis distance in the frame rotated by theta
// (counter-clockwise) about the mean.
func gaussConst2D(p []float64, x, y float64) float64 {
	c, a := p[g2dConstant], p[g2dAmplitude]
	x0, y0 := p[g2dXMean], p[g2dYMean]
	sx, sy, t := p[g2dXStddev], p[g2dYStddev], p[g2dTheta]

	cosT, sinT := math.Cos(t), math.Sin(t)
	xr := (x-x0)*cosT + (y-y0)*sinT
	yr := -(x-x0)*sinT + (y-y0)*cosT
	e := xr*xr/(2*sx*sx) + yr*yr/(2*sy*sy)
	return c + a*math.Exp(-e)
}

func gaussConst2DGradient(p []float64, x, y float64, grad []float64) {
	a := p[g2dAmplitude]
	x0, y0 := p[g2dXMean], p[g2dYMean]
	sx, sy, t := p[g2dXStddev], p[g2dYStddev], p[g2dTheta]

	cosT, sinT := math.Cos(t), math.Sin(t)
	xr := (x-x0)*cosT + (y-y0)*sinT
	yr := -(x-x0)*sinT + (y-y0)*cosT
	xr2 := xr * xr
	yr2 := yr * yr
	sx2 := sx * sx
	sx3 := sx2 * sx
	sy2 := sy * sy
	sy3 := sy2 * sy
	e := math.Exp(-(xr2/(2*sx2) + yr2/(2*sy2)))

	grad[g2dConstant] = 1.0
	grad[g2dAmplitude] = e
	grad[g2dXMean] = a * (cosT*xr/sx2 - sinT*yr/sy2) * e
	grad[g2dYMean] = a * (sinT*xr/sx2 + cosT*yr/sy2) * e
	grad[g2dXStddev] = a * xr2 / sx3 * e
	grad[g2dYStddev] = a * yr2 / sy3 * e
	grad[g2dTheta] = a * xr * yr * (1.0/sy2 - 1.0/sx2) * e
}

// gaussConst1D evaluates constant + amplitude * exp(-(x-mean)^2/(2 stddev^2)).
func gaussConst1D(p []float64, x float64) float64 {
	d := x - p[g1dMean]
	s := p[g1dStddev]
	return p[g1dConstant] + p[g1dAmplitude]*math.Exp(-d*d/(2*s*s))
}

func gaussConst1DGradient(p []float64, x float64, grad []float64) {
	a := p[g1dAmplitude]
	d := x - p[g1dMean]
	s := p[g1dStddev]
	s2 := s * s
	e := math.Exp(-d * d / (2 * s2))

	grad[g1dConstant] = 1.0
	grad[g1dAmplitude] = e
	grad[g1dMean] = a * e * d / s2
	grad[g1dStddev] = a * e * d * d / (s2 * s)
}
