package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is a rectangular area of interest in source-image pixel coordinates.
// (X1, Y1) is inclusive, (X2, Y2) is exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Crop extracts a rectangular region from an image.
//
// Detection on a crop reports coordinates relative to the crop; add
// (X1, Y1) to map them back to the source image.
func Crop(img image.Image, r Region) (image.Image, error) {
	if err := checkRegion(img.Bounds(), r); err != nil {
		return nil, err
	}
	return imaging.Crop(img, r.Rect()), nil
}

// Crop copies the samples inside r, given in grid coordinates, into a new
// Image.
func (m *Image) Crop(r Region) (*Image, error) {
	if err := checkRegion(image.Rect(0, 0, m.Width, m.Height), r); err != nil {
		return nil, err
	}
	w := r.X2 - r.X1
	out := &Image{Width: w, Height: r.Y2 - r.Y1, Pix: make([]float64, 0, w*(r.Y2-r.Y1))}
	for y := r.Y1; y < r.Y2; y++ {
		row := y*m.Width + r.X1
		out.Pix = append(out.Pix, m.Pix[row:row+w]...)
	}
	return out, nil
}

func checkRegion(bounds image.Rectangle, r Region) error {
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}

// NamedRegion resolves a named part of an image to a Region.
//
// Supported names: top-left, top-right, bottom-left, bottom-right,
// top-half, bottom-half, left-half, right-half, center (middle 50%).
func NamedRegion(bounds image.Rectangle, name string) (Region, error) {
	w := bounds.Dx()
	h := bounds.Dy()
	midX := w / 2
	midY := h / 2

	var x1, y1, x2, y2 int

	switch name {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		// Center 50% of the image
		qW := w / 4
		qH := h / 4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}

	return Region{
		X1: x1 + bounds.Min.X,
		Y1: y1 + bounds.Min.Y,
		X2: x2 + bounds.Min.X,
		Y2: y2 + bounds.Min.Y,
	}, nil
}

// ResolveRegion picks the area of interest from an explicit region or a
// region name. An explicit region wins; neither yields nil (whole image).
func ResolveRegion(bounds image.Rectangle, region *Region, name string) (*Region, error) {
	if region != nil {
		r := *region
		return &r, nil
	}
	if name == "" {
		return nil, nil
	}
	r, err := NamedRegion(bounds, name)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Fit shrinks img so that neither side exceeds maxDim, preserving aspect
// ratio with a Lanczos filter.
//
// Returns the (possibly unchanged) image and the factor that maps
// coordinates in the result back to the original (>= 1). Images already
// within the limit, or a maxDim <= 0, are returned as-is with factor 1.
func Fit(img image.Image, maxDim int) (image.Image, float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img, 1
	}
	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	return fitted, float64(w) / float64(fitted.Bounds().Dx())
}
