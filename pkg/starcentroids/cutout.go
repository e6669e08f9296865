package starcentroids

import (
	"fmt"
	"math"
	"sync"
)

// Centroider estimates the sub-pixel centroid of a 2D cutout. A nil mask
// means no exclusions.
type Centroider interface {
	Centroid(data *Grid, mask *Mask) (Point2d, error)
}

// ErrorCentroider is implemented by centroiders that can additionally
// weight samples by a 1-sigma error grid of the same shape as the data.
type ErrorCentroider interface {
	Centroider
	CentroidWithError(data, errs *Grid, mask *Mask) (Point2d, error)
}

// COMCentroider adapts CentroidCOM to the Centroider contract. The zero
// value uses no oversampling.
type COMCentroider struct {
	Oversampling Oversampling
}

func (c COMCentroider) Centroid(data *Grid, mask *Mask) (Point2d, error) {
	ov := c.Oversampling
	if ov == (Oversampling{}) {
		ov = NoOversampling
	}
	res, err := CentroidCOM(data, mask, ov)
	if err != nil {
		return Point2d{}, err
	}
	return res.Point(), nil
}

// Gaussian1DCentroider adapts Centroid1DG. It implements ErrorCentroider.
type Gaussian1DCentroider struct{}

func (Gaussian1DCentroider) Centroid(data *Grid, mask *Mask) (Point2d, error) {
	res, err := Centroid1DG(data, nil, mask)
	if err != nil {
		return Point2d{}, err
	}
	return res.Point(), nil
}

func (Gaussian1DCentroider) CentroidWithError(data, errs *Grid, mask *Mask) (Point2d, error) {
	res, err := Centroid1DG(data, errs, mask)
	if err != nil {
		return Point2d{}, err
	}
	return res.Point(), nil
}

// Gaussian2DCentroider adapts Centroid2DG. It implements ErrorCentroider.
type Gaussian2DCentroider struct{}

func (Gaussian2DCentroider) Centroid(data *Grid, mask *Mask) (Point2d, error) {
	res, err := Centroid2DG(data, nil, mask)
	if err != nil {
		return Point2d{}, err
	}
	return res.Point(), nil
}

func (Gaussian2DCentroider) CentroidWithError(data, errs *Grid, mask *Mask) (Point2d, error) {
	res, err := Centroid2DG(data, errs, mask)
	if err != nil {
		return Point2d{}, err
	}
	return res.Point(), nil
}

// EPSFCentroider adapts CentroidEPSF. The zero value uses no oversampling
// and the default shift of half a pixel.
type EPSFCentroider struct {
	Oversampling Oversampling
	ShiftVal     float64
}

func (c EPSFCentroider) Centroid(data *Grid, mask *Mask) (Point2d, error) {
	ov := c.Oversampling
	if ov == (Oversampling{}) {
		ov = NoOversampling
	}
	shift := c.ShiftVal
	if shift == 0 {
		shift = DefaultEPSFShift
	}
	return CentroidEPSF(data, mask, ov, shift)
}

// Footprint is a 2D boolean stencil describing the shape of a cutout
// region relative to its center; true marks pixels inside the region. A
// rectangular box is an all-true footprint.
type Footprint struct {
	rows, cols int
	data       []bool
}

// NewBoxFootprint creates an all-true footprint of ny rows by nx columns.
func NewBoxFootprint(ny, nx int) (*Footprint, error) {
	if ny <= 0 || nx <= 0 {
		return nil, fmt.Errorf("footprint dimensions must be positive, got (%d, %d): %w", ny, nx, ErrInvalidInput)
	}
	data := make([]bool, ny*nx)
	for i := range data {
		data[i] = true
	}
	return &Footprint{rows: ny, cols: nx, data: data}, nil
}

// FootprintFromSlice wraps a row-major bool slice as a footprint.
func FootprintFromSlice(data []bool, ny, nx int) (*Footprint, error) {
	if ny <= 0 || nx <= 0 {
		return nil, fmt.Errorf("footprint dimensions must be positive, got (%d, %d): %w", ny, nx, ErrInvalidInput)
	}
	if len(data) != ny*nx {
		return nil, fmt.Errorf("footprint length %d does not match shape (%d, %d): %w", len(data), ny, nx, ErrInvalidInput)
	}
	return &Footprint{rows: ny, cols: nx, data: data}, nil
}

func (f *Footprint) Rows() int        { return f.rows }
func (f *Footprint) Cols() int        { return f.cols }
func (f *Footprint) At(y, x int) bool { return f.data[y*f.cols+x] }

// span is a half-open [start, stop) index range along one axis.
type span struct {
	start, stop int
}

func (s span) len() int { return s.stop - s.start }

// overlapSlices computes the overlap between a window of windowShape
// (ny, nx) centered at (yc, xc) and an image of imageShape. It returns the
// index spans into the image and the matching spans into the window,
// truncated where the window extends past the image bounds. A window with
// no overlap at all is an invalid-argument failure.
func overlapSlices(imageShape, windowShape [2]int, yc, xc float64) (large, small [2]span, err error) {
	pos := [2]float64{yc, xc}
	for a := 0; a < 2; a++ {
		edgeMin := int(math.Ceil(pos[a] - float64(windowShape[a])/2.0))
		edgeMax := edgeMin + windowShape[a]
		if edgeMin >= imageShape[a] || edgeMax <= 0 {
			return large, small, fmt.Errorf("window centered at (%v, %v) does not overlap the image: %w", xc, yc, ErrInvalidInput)
		}
		lo := max(0, edgeMin)
		hi := min(imageShape[a], edgeMax)
		large[a] = span{start: lo, stop: hi}
		small[a] = span{start: lo - edgeMin, stop: hi - edgeMin}
	}
	return large, small, nil
}

// SourcesOptions configures CentroidSources.
type SourcesOptions struct {
	// BoxSize is the cutout size in pixels: one element for a square box
	// or two elements in (ny, nx) order. Ignored when Footprint is set.
	BoxSize []int

	// Footprint is the cutout stencil; it overrides BoxSize. One of the
	// two must be given.
	Footprint *Footprint

	// Error is an optional full-image grid of 1-sigma uncertainties. It
	// is passed through only when the centroider implements
	// ErrorCentroider.
	Error *Grid

	// Mask is an optional full-image exclusion mask.
	Mask *Mask

	// Centroider is the centroiding strategy applied to each cutout.
	// Defaults to COMCentroider.
	Centroider Centroider
}

func (o *SourcesOptions) footprint() (*Footprint, error) {
	if o.Footprint != nil {
		return o.Footprint, nil
	}
	switch len(o.BoxSize) {
	case 0:
		return nil, fmt.Errorf("box size or footprint must be defined: %w", ErrInvalidInput)
	case 1:
		return NewBoxFootprint(o.BoxSize[0], o.BoxSize[0])
	case 2:
		return NewBoxFootprint(o.BoxSize[0], o.BoxSize[1])
	default:
		return nil, fmt.Errorf("box size must have 1 or 2 elements, got %d: %w", len(o.BoxSize), ErrInvalidInput)
	}
}

// CentroidSources refines many approximate source positions at once. For
// each position it extracts a footprint-shaped cutout of the image
// (truncated at the image bounds), combines the cutout of the input mask
// with the negation of the footprint, delegates to the configured
// centroiding strategy, and translates the local result back to global
// image coordinates.
//
// Positions are independent, so each is centroided on its own goroutine.
// The returned slices preserve the input order. The first per-position
// failure is returned as the call's error.
func CentroidSources(data *Grid, xpos, ypos []float64, opts SourcesOptions) (xcen, ycen []float64, err error) {
	if data.NDim() != 2 {
		return nil, nil, fmt.Errorf("data must be a 2D array, got %d dimensions: %w", data.NDim(), ErrInvalidInput)
	}
	if len(xpos) != len(ypos) {
		return nil, nil, fmt.Errorf("xpos and ypos must have the same length, got %d and %d: %w", len(xpos), len(ypos), ErrInvalidInput)
	}
	if opts.Mask != nil && !sameShape(data.shape, opts.Mask.shape) {
		return nil, nil, fmt.Errorf("data and mask must have the same shape: %w", ErrInvalidInput)
	}
	if opts.Error != nil && !sameShape(data.shape, opts.Error.shape) {
		return nil, nil, fmt.Errorf("data and error must have the same shape: %w", ErrInvalidInput)
	}

	fp, err := opts.footprint()
	if err != nil {
		return nil, nil, err
	}

	centroider := opts.Centroider
	if centroider == nil {
		centroider = COMCentroider{}
	}
	errorAware, hasErrorPath := centroider.(ErrorCentroider)
	useError := opts.Error != nil && hasErrorPath

	n := len(xpos)
	xcen = make([]float64, n)
	ycen = make([]float64, n)
	posErrs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pt, perr := centroidOne(data, fp, xpos[i], ypos[i], opts, errorAware, useError, centroider)
			if perr != nil {
				posErrs[i] = perr
				return
			}
			xcen[i] = pt.X
			ycen[i] = pt.Y
		}(i)
	}
	wg.Wait()

	for i, perr := range posErrs {
		if perr != nil {
			return nil, nil, fmt.Errorf("position %d (%v, %v): %w", i, xpos[i], ypos[i], perr)
		}
	}
	return xcen, ycen, nil
}

func centroidOne(data *Grid, fp *Footprint, xp, yp float64, opts SourcesOptions,
	errorAware ErrorCentroider, useError bool, centroider Centroider) (Point2d, error) {

	imageShape := [2]int{data.Rows(), data.Cols()}
	windowShape := [2]int{fp.Rows(), fp.Cols()}
	large, small, err := overlapSlices(imageShape, windowShape, yp, xp)
	if err != nil {
		return Point2d{}, err
	}

	h := large[0].len()
	w := large[1].len()
	cutout := NewGrid(h, w)
	combined := NewMask(h, w)
	var errCutout *Grid
	if useError {
		errCutout = NewGrid(h, w)
	}

	for r := 0; r < h; r++ {
		imgY := large[0].start + r
		fpY := small[0].start + r
		for c := 0; c < w; c++ {
			imgX := large[1].start + c
			fpX := small[1].start + c
			cutout.Set(r, c, data.At(imgY, imgX))
			excluded := !fp.At(fpY, fpX)
			if opts.Mask != nil && opts.Mask.At(imgY, imgX) {
				excluded = true
			}
			combined.Set(r, c, excluded)
			if errCutout != nil {
				errCutout.Set(r, c, opts.Error.At(imgY, imgX))
			}
		}
	}

	var pt Point2d
	if useError {
		pt, err = errorAware.CentroidWithError(cutout, errCutout, combined)
	} else {
		pt, err = centroider.Centroid(cutout, combined)
	}
	if err != nil {
		return Point2d{}, err
	}

	pt.X += float64(large[1].start)
	pt.Y += float64(large[0].start)
	return pt, nil
}
