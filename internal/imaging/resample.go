package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Downsample2x keeps every second sample in each direction.
//
// The result is ceil(w/2) x ceil(h/2); sample (x, y) of the output is
// sample (2x, 2y) of the input, so output coordinates map back to the input
// by a plain factor of two.
func Downsample2x(img *Image) *Image {
	w := (img.Width + 1) / 2
	h := (img.Height + 1) / 2
	out := &Image{Width: w, Height: h, Pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		src := img.Pix[2*y*img.Width:]
		dst := out.Pix[y*w : (y+1)*w]
		for x := range dst {
			dst[x] = src[2*x]
		}
	}
	return out
}

// Upsample2x doubles both dimensions with bilinear interpolation.
//
// Samples are routed through a 16-bit gray raster so the x/image/draw
// scaler can be used; values are clamped to [0, 1] on the way.
func Upsample2x(img *Image) *Image {
	src := ToGray16(img)
	dst := image.NewGray16(image.Rect(0, 0, img.Width*2, img.Height*2))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return fromGray16(dst)
}

// ToGray16 renders img as a 16-bit grayscale raster, clamping to [0, 1].
func ToGray16(img *Image) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := math.Max(0, math.Min(1, img.At(x, y)))
			out.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * 0xffff))})
		}
	}
	return out
}

func fromGray16(g *image.Gray16) *Image {
	b := g.Bounds()
	out := &Image{Width: b.Dx(), Height: b.Dy(), Pix: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Pix[y*out.Width+x] = float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / 0xffff
		}
	}
	return out
}
