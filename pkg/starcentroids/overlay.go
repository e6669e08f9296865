package starcentroids

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RenderCentroidOverlay generates a JPG of the image with crosshair markers
// at the given centroid positions and writes it to a file.
func RenderCentroidOverlay(data *Grid, centroids []Point2d, outputPath string) error {
	img, err := renderCentroidImage(data, centroids)
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create overlay file: %w", err)
	}
	defer f.Close()

	return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
}

// RenderCentroidOverlayBytes generates the same overlay and returns it as
// JPEG bytes.
func RenderCentroidOverlayBytes(data *Grid, centroids []Point2d) ([]byte, error) {
	img, err := renderCentroidImage(data, centroids)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderCentroidImage creates the overlay image in memory: the image data
// stretched to 8-bit grayscale with a numbered green crosshair per centroid.
func renderCentroidImage(data *Grid, centroids []Point2d) (*image.RGBA, error) {
	if data == nil || data.NDim() != 2 {
		return nil, fmt.Errorf("overlay requires a 2D image: %w", ErrInvalidInput)
	}

	rows := data.Rows()
	cols := data.Cols()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	lo, hi := stretchBounds(data.Data())
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := data.At(y, x)
			if !isFinite(v) {
				v = lo
			}
			t := (v - lo) / span
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
			g := uint8(t * 255)
			img.Set(x, y, color.RGBA{g, g, g, 255})
		}
	}

	markerColor := color.RGBA{80, 255, 80, 255}
	textColor := color.RGBA{255, 255, 80, 255}
	face := basicfont.Face7x13

	for i, p := range centroids {
		if !isFinite(p.X) || !isFinite(p.Y) {
			continue
		}
		cx := int(math.Round(p.X))
		cy := int(math.Round(p.Y))
		drawCrosshair(img, cx, cy, 8, markerColor)
		drawLabel(img, face, fmt.Sprintf("%d", i+1), cx+10, cy-6, textColor)
	}

	return img, nil
}

// stretchBounds picks display black/white points from the 1st and 99th
// percentiles of the finite samples so hot pixels do not crush the stretch.
func stretchBounds(data []float64) (lo, hi float64) {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 1
	}
	sort.Float64s(finite)
	lo = finite[len(finite)/100]
	hi = finite[len(finite)-1-len(finite)/100]
	if hi <= lo {
		lo = finite[0]
		hi = finite[len(finite)-1]
	}
	return lo, hi
}

// drawCrosshair draws a gapped crosshair centered at (cx, cy).
func drawCrosshair(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	const gap = 2
	b := img.Bounds()
	for d := gap; d <= size; d++ {
		setIfInside(img, b, cx-d, cy, c)
		setIfInside(img, b, cx+d, cy, c)
		setIfInside(img, b, cx, cy-d, c)
		setIfInside(img, b, cx, cy+d, c)
	}
}

func setIfInside(img *image.RGBA, b image.Rectangle, x, y int, c color.RGBA) {
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		img.Set(x, y, c)
	}
}

// drawLabel draws a string at (x, y) using the given font face.
func drawLabel(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
