package starcentroids

// AdvisoryCode classifies recoverable data-quality conditions encountered
// while computing a result.
type AdvisoryCode int

const (
	// AdvisoryNonFiniteData reports that non-finite samples (NaN/Inf) in
	// the data were automatically treated as masked.
	AdvisoryNonFiniteData AdvisoryCode = iota
	// AdvisoryNonFiniteError reports that non-finite samples in the error
	// array were automatically treated as masked.
	AdvisoryNonFiniteError
)

func (c AdvisoryCode) String() string {
	switch c {
	case AdvisoryNonFiniteData:
		return "non-finite data values automatically masked"
	case AdvisoryNonFiniteError:
		return "non-finite error values automatically masked"
	default:
		return "unknown advisory"
	}
}

// Advisory is a non-fatal data-quality condition attached to a result.
// Computations that encounter one continue and report it here instead of
// failing.
type Advisory struct {
	Code  AdvisoryCode
	Count int // number of samples affected
}

func nonFiniteAdvisory(code AdvisoryCode, count int) []Advisory {
	if count == 0 {
		return nil
	}
	return []Advisory{{Code: code, Count: count}}
}

// CentroidResult carries an estimated centroid together with any advisory
// conditions raised while computing it.
type CentroidResult struct {
	// Coords holds the centroid in pixel order (x first). For a 2D image
	// Coords[0] is x and Coords[1] is y.
	Coords     []float64
	Advisories []Advisory
}

// XY returns the first two coordinates as an (x, y) pair.
func (r *CentroidResult) XY() (float64, float64) {
	return r.Coords[0], r.Coords[1]
}

// Point returns the centroid of a 2D image as a Point2d.
func (r *CentroidResult) Point() Point2d {
	return Point2d{X: r.Coords[0], Y: r.Coords[1]}
}
