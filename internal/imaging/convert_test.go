package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// createInMemoryImage builds a uniform RGBA image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFromImage_Luma(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  float64
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 1.0},
		{"black", color.RGBA{0, 0, 0, 255}, 0.0},
		{"red", color.RGBA{255, 0, 0, 255}, 0.299},
		{"green", color.RGBA{0, 255, 0, 255}, 0.587},
		{"blue", color.RGBA{0, 0, 255, 255}, 0.114},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := FromImage(createInMemoryImage(4, 4, tt.color), ModelLuma)
			if err != nil {
				t.Fatalf("FromImage failed: %v", err)
			}
			if got := img.At(1, 2); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFromImage_Lightness(t *testing.T) {
	white, err := FromImage(createInMemoryImage(2, 2, color.White), ModelLightness)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if math.Abs(white.At(0, 0)-1) > 1e-3 {
		t.Errorf("white lightness: got %f, want 1", white.At(0, 0))
	}

	// CIE L* of pure blue is about 32; luma would give 0.114.
	blue, _ := FromImage(createInMemoryImage(2, 2, color.RGBA{0, 0, 255, 255}), ModelLightness)
	if got := blue.At(0, 0); got < 0.25 || got > 0.4 {
		t.Errorf("blue lightness: got %f, want about 0.32", got)
	}
}

func TestFromImage_GrayFastPath(t *testing.T) {
	g := image.NewGray(image.Rect(10, 20, 13, 22))
	g.SetGray(11, 21, color.Gray{Y: 51})

	img, err := FromImage(g, "")
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if img.Width != 3 || img.Height != 2 {
		t.Fatalf("size: got %dx%d, want 3x2", img.Width, img.Height)
	}
	if math.Abs(img.At(1, 1)-0.2) > 1e-9 {
		t.Errorf("offset origin sample: got %f, want 0.2", img.At(1, 1))
	}
}

func TestFromImage_Errors(t *testing.T) {
	if _, err := FromImage(nil, ModelLuma); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil image: expected ErrInvalidInput, got %v", err)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 0, 5))
	if _, err := FromImage(empty, ModelLuma); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty image: expected ErrInvalidInput, got %v", err)
	}

	if _, err := FromImage(image.NewGray(image.Rect(0, 0, 2, 2)), "sepia"); err == nil {
		t.Error("unknown model should fail even for gray input")
	}
}
