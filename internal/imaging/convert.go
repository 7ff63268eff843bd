package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Gray model names. They mirror the values accepted by the detector
// configuration.
const (
	ModelLuma      = "luma"
	ModelLightness = "lightness"
)

// FromImage converts any image.Image into a float intensity grid in [0, 1].
//
// Parameters:
//   - img: Source image (color or grayscale). Its bounds may have a non-zero
//     origin; the result is always 0-based.
//   - model: "luma" (ITU-R BT.601: 0.299*R + 0.587*G + 0.114*B) or
//     "lightness" (CIE L* via go-colorful, scaled to [0, 1]). Empty means luma.
//
// Returns ErrInvalidInput for nil or empty images and an error for unknown
// models.
//
// *image.Gray and *image.Gray16 sources take a fast path that reads the
// pixel buffer directly; the gray model is irrelevant for them.
func FromImage(img image.Image, model string) (*Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	switch model {
	case "", ModelLuma, ModelLightness:
	default:
		return nil, fmt.Errorf("unknown gray model %q", model)
	}

	bounds := img.Bounds()
	out, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Pix[y*out.Width+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y) / 255.0
			}
		}
		return out, nil
	case *image.Gray16:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Pix[y*out.Width+x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y) / 0xffff
			}
		}
		return out, nil
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			px := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			if model == ModelLightness {
				// MakeColor reports false for fully transparent pixels, which
				// come back as black.
				c, _ := colorful.MakeColor(px)
				l, _, _ := c.Lab()
				out.Pix[y*out.Width+x] = math.Max(0, math.Min(1, l))
				continue
			}
			r, g, b, _ := px.RGBA()
			out.Pix[y*out.Width+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 0xffff
		}
	}
	return out, nil
}
