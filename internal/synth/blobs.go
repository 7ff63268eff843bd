package synth

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// Circle is a filled disk in pixel coordinates.
type Circle struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Radius float64 `json:"radius" yaml:"radius"`

	// Gray is the fill intensity, 0 (black) to 255 (white).
	Gray uint8 `json:"gray" yaml:"gray"`
}

// DefaultCircles is the classic blob test layout for an 800x600 canvas:
// seven dark disks of radius 30 to 90.
var DefaultCircles = []Circle{
	{X: 150, Y: 150, Radius: 40, Gray: 0},
	{X: 400, Y: 150, Radius: 60, Gray: 100},
	{X: 650, Y: 150, Radius: 80, Gray: 50},
	{X: 200, Y: 350, Radius: 50, Gray: 0},
	{X: 450, Y: 350, Radius: 70, Gray: 80},
	{X: 150, Y: 500, Radius: 30, Gray: 0},
	{X: 550, Y: 450, Radius: 90, Gray: 60},
}

// Blobs renders anti-aliased filled circles on a uniform background.
func Blobs(width, height int, background color.Color, circles []Circle) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(background)
	dc.Clear()
	for i, c := range circles {
		if !(c.Radius > 0) {
			return nil, fmt.Errorf("circle %d: radius must be > 0, got %g", i, c.Radius)
		}
		dc.SetColor(color.Gray{Y: c.Gray})
		dc.DrawCircle(c.X, c.Y, c.Radius)
		dc.Fill()
	}
	return dc.Image(), nil
}

// DefaultBlobs renders DefaultCircles on a white 800x600 canvas.
func DefaultBlobs() image.Image {
	img, _ := Blobs(800, 600, color.White, DefaultCircles)
	return img
}

// GaussianBlob renders a bright isotropic Gaussian of standard deviation
// std centred at (cx, cy) on a black background, peaking at 1.0.
func GaussianBlob(width, height int, cx, cy, std float64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := math.Exp(-(dx*dx + dy*dy) / (2 * std * std))
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * 0xffff))})
		}
	}
	return img
}
