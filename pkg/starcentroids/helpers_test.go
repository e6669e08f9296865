package starcentroids

import "math"

// gaussian2DValue evaluates an elliptical Gaussian rotated by theta
// (counter-clockwise) at pixel (x, y).
func gaussian2DValue(amp, x0, y0, sx, sy, theta, x, y float64) float64 {
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	xr := (x-x0)*cosT + (y-y0)*sinT
	yr := -(x-x0)*sinT + (y-y0)*cosT
	return amp * math.Exp(-(xr*xr/(2*sx*sx) + yr*yr/(2*sy*sy)))
}

// makeGaussianGrid renders a rotated elliptical Gaussian onto a fresh grid.
func makeGaussianGrid(rows, cols int, amp, x0, y0, sx, sy, theta float64) *Grid {
	g := NewGrid(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			g.Set(y, x, gaussian2DValue(amp, x0, y0, sx, sy, theta, float64(x), float64(y)))
		}
	}
	return g
}

// prfValue evaluates a Gaussian point response function integrated over a
// unit pixel centered at (x, y), for a source of unit flux at the origin.
func prfValue(x, y, sigma float64) float64 {
	s := sigma * math.Sqrt2
	fx := math.Erf((x+0.5)/s) - math.Erf((x-0.5)/s)
	fy := math.Erf((y+0.5)/s) - math.Erf((y-0.5)/s)
	return fx * fy / 4.0
}

// shapeParams is the grid of stddev/theta combinations shared by the
// centroid recovery tests.
type shapeParams struct {
	sx, sy, theta float64
}

func recoveryShapes() []shapeParams {
	var out []shapeParams
	for _, sx := range []float64{3.2, 4.0} {
		for _, sy := range []float64{5.7, 4.1} {
			for _, theta := range []float64{30 * math.Pi / 180, 45 * math.Pi / 180} {
				out = append(out, shapeParams{sx: sx, sy: sy, theta: theta})
			}
		}
	}
	return out
}
