package imaging

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned (wrapped) when an image is nil, empty, or has a
// zero or negative dimension.
var ErrInvalidInput = errors.New("invalid input image")

// Image is a single-channel floating-point intensity grid.
//
// Samples are stored row-major: the sample at (x, y) lives at
// Pix[y*Width+x]. Intensities produced by FromImage are in [0, 1], but
// derived images (differences of Gaussians) may be negative.
//
// An Image is treated as immutable once built: every operation in this
// module returns a new Image rather than modifying its input, which makes a
// single Image safe to share between goroutines.
type Image struct {
	// Width is the number of columns.
	Width int

	// Height is the number of rows.
	Height int

	// Pix holds Width*Height samples, row-major.
	Pix []float64
}

// New allocates a zero-filled image.
//
// Returns ErrInvalidInput if either dimension is not positive.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}, nil
}

// FromSlice wraps existing row-major samples. The slice is not copied.
func FromSlice(width, height int, pix []float64) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d image", ErrInvalidInput, len(pix), width, height)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// Validate reports whether img is usable as pipeline input.
func Validate(img *Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height {
		return fmt.Errorf("%w: %d samples for %dx%d image", ErrInvalidInput, len(img.Pix), img.Width, img.Height)
	}
	return nil
}

// At returns the sample at (x, y). Coordinates must be in range.
func (m *Image) At(x, y int) float64 {
	return m.Pix[y*m.Width+x]
}

// AtClamped returns the sample at (x, y) with coordinates clamped to the
// image, replicating border samples.
func (m *Image) AtClamped(x, y int) float64 {
	return m.Pix[clamp(y, 0, m.Height-1)*m.Width+clamp(x, 0, m.Width-1)]
}

// Set stores v at (x, y). Only used while an image is being built.
func (m *Image) Set(x, y int, v float64) {
	m.Pix[y*m.Width+x] = v
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	pix := make([]float64, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{Width: m.Width, Height: m.Height, Pix: pix}
}

// Subtract returns a - b sample by sample. Both images must share dimensions.
func Subtract(a, b *Image) (*Image, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("%w: cannot subtract %dx%d from %dx%d",
			ErrInvalidInput, b.Width, b.Height, a.Width, a.Height)
	}
	out := &Image{Width: a.Width, Height: a.Height, Pix: make([]float64, len(a.Pix))}
	for i := range a.Pix {
		out.Pix[i] = a.Pix[i] - b.Pix[i]
	}
	return out, nil
}

// Gradient returns the central-difference derivatives at (x, y).
// (x, y) must be an interior sample.
func (m *Image) Gradient(x, y int) (dx, dy float64) {
	i := y*m.Width + x
	dx = m.Pix[i+1] - m.Pix[i-1]
	dy = m.Pix[i+m.Width] - m.Pix[i-m.Width]
	return dx, dy
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
