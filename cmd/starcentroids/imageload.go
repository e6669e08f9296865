package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/tiff"

	sc "starcentroids/pkg/starcentroids"
)

// loadImage reads a FITS file via the package reader or any other format
// via image.Decode, converting color images to grayscale luminance.
func loadImage(path string) (*sc.Grid, error) {
	lowerPath := strings.ToLower(path)
	if strings.HasSuffix(lowerPath, ".fits") || strings.HasSuffix(lowerPath, ".fit") {
		fits, err := sc.ReadFITS(path)
		if err != nil {
			return nil, fmt.Errorf("reading FITS: %w", err)
		}
		return fits.Data, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	values := make([]float64, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Grayscale luminance in the 16-bit range.
			gray := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
			values[y*w+x] = float64(gray)
		}
	}

	return sc.GridFromSlice(values, h, w)
}
