package synth

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/transform"
)

// Rotate turns img clockwise (as displayed, with y pointing down) by
// degrees about its centre. The canvas grows to hold the whole result.
func Rotate(img image.Image, degrees float64) image.Image {
	return transform.Rotate(img, degrees, &transform.RotationOptions{ResizeBounds: true})
}

// Scale resizes img by factor with bilinear filtering.
func Scale(img image.Image, factor float64) (image.Image, error) {
	if !(factor > 0) {
		return nil, fmt.Errorf("scale factor must be > 0, got %g", factor)
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("scaled size %dx%d is empty", w, h)
	}
	return transform.Resize(img, w, h, transform.Linear), nil
}
