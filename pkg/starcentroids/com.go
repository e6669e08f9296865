package starcentroids

import "fmt"

// CentroidCOM computes the centroid of an n-dimensional grid as its
// intensity-weighted "center of mass".
//
// Masked samples are treated as zero. Non-finite samples (NaN/Inf) are
// automatically zeroed as well and reported as an advisory on the result.
// The returned coordinates are in pixel order (x first) and divided by the
// per-axis oversampling factor.
//
// When the sum of the (filled) data is zero the result is undefined
// (NaN/Inf coordinates); this is not an error.
func CentroidCOM(data *Grid, mask *Mask, oversampling Oversampling) (*CentroidResult, error) {
	if err := oversampling.validate(); err != nil {
		return nil, err
	}

	work := append([]float64(nil), data.data...)
	if mask != nil {
		if !sameShape(data.shape, mask.shape) {
			return nil, fmt.Errorf("data and mask must have the same shape: %w", ErrInvalidInput)
		}
		for i, excluded := range mask.data {
			if excluded {
				work[i] = 0
			}
		}
	}

	nonFinite := 0
	for i, v := range work {
		if !isFinite(v) {
			work[i] = 0
			nonFinite++
		}
	}

	nd := data.NDim()
	sums := make([]float64, nd)
	total := 0.0
	idx := make([]int, nd)
	for _, v := range work {
		total += v
		for a := 0; a < nd; a++ {
			sums[a] += float64(idx[a]) * v
		}
		for a := nd - 1; a >= 0; a-- {
			idx[a]++
			if idx[a] < data.shape[a] {
				break
			}
			idx[a] = 0
		}
	}

	// Reverse from storage order to pixel order so x reports first.
	coords := make([]float64, nd)
	for a := 0; a < nd; a++ {
		coords[nd-1-a] = sums[a] / total / oversampling.factorForAxis(a, nd)
	}

	return &CentroidResult{
		Coords:     coords,
		Advisories: nonFiniteAdvisory(AdvisoryNonFiniteData, nonFinite),
	}, nil
}
