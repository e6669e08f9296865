package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sc "starcentroids/pkg/starcentroids"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("starcentroids", flag.ContinueOnError)
	inPath := fs.String("in", "", "input image (FITS, PNG, JPEG or TIFF)")
	posArg := fs.String("pos", "", "approximate source positions as x,y pairs separated by ';' (e.g. \"12.0,34.5;100,200\")")
	boxSize := fs.Int("box", 11, "cutout box size in pixels")
	method := fs.String("method", "com", "centroiding method: com, 1dg, 2dg or epsf")
	errPath := fs.String("err", "", "optional 1-sigma error image with the same shape as the input")
	oversample := fs.Float64("oversampling", 1, "oversampling factor of the input grid (com and epsf methods)")
	overlayPath := fs.String("overlay", "", "optional JPG output with centroid markers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *inPath == "" || *posArg == "" {
		fs.Usage()
		return fmt.Errorf("both -in and -pos are required")
	}

	data, err := loadImage(*inPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded: %s (%d x %d)\n", *inPath, data.Cols(), data.Rows())

	xpos, ypos, err := parsePositions(*posArg)
	if err != nil {
		return err
	}

	var errGrid *sc.Grid
	if *errPath != "" {
		errGrid, err = loadImage(*errPath)
		if err != nil {
			return fmt.Errorf("loading error image: %w", err)
		}
	}

	centroider, err := selectCentroider(*method, *oversample)
	if err != nil {
		return err
	}

	startTime := time.Now()
	xs, ys, err := sc.CentroidSources(data, xpos, ypos, sc.SourcesOptions{
		BoxSize:    []int{*boxSize},
		Error:      errGrid,
		Centroider: centroider,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Printf("=== Centroids (%s, box=%d, %.1fms) ===\n", *method, *boxSize, float64(elapsed.Microseconds())/1000.0)
	centroids := make([]sc.Point2d, len(xs))
	for i := range xs {
		centroids[i] = sc.Point2d{X: xs[i], Y: ys[i]}
		fmt.Printf("  %3d  (%8.3f, %8.3f) -> (%9.4f, %9.4f)\n", i+1, xpos[i], ypos[i], xs[i], ys[i])
	}
	fmt.Println("==============================")

	if *overlayPath != "" {
		if err := sc.RenderCentroidOverlay(data, centroids, *overlayPath); err != nil {
			return fmt.Errorf("rendering overlay: %w", err)
		}
		fmt.Printf("Overlay written: %s\n", *overlayPath)
	}

	return nil
}

func selectCentroider(method string, oversample float64) (sc.Centroider, error) {
	switch strings.ToLower(method) {
	case "com":
		return sc.COMCentroider{Oversampling: sc.UniformOversampling(oversample)}, nil
	case "1dg":
		return sc.Gaussian1DCentroider{}, nil
	case "2dg":
		return sc.Gaussian2DCentroider{}, nil
	case "epsf":
		return sc.EPSFCentroider{Oversampling: sc.UniformOversampling(oversample)}, nil
	default:
		return nil, fmt.Errorf("unknown method %q (want com, 1dg, 2dg or epsf)", method)
	}
}

func parsePositions(s string) (xpos, ypos []float64, err error) {
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("malformed position %q (want x,y)", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed x coordinate in %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed y coordinate in %q: %w", pair, err)
		}
		xpos = append(xpos, x)
		ypos = append(ypos, y)
	}
	if len(xpos) == 0 {
		return nil, nil, fmt.Errorf("no positions given")
	}
	return xpos, ypos, nil
}
