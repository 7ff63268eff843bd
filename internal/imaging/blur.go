package imaging

import "math"

// GaussianKernel returns a normalized 1-D Gaussian kernel for sigma.
//
// The kernel has 2*radius+1 taps with radius = ceil(4*sigma) (at least 1),
// which keeps the truncated tail below 1e-4 of the total weight. Taps sum to
// exactly 1 after normalization.
func GaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur convolves img with an isotropic Gaussian of standard
// deviation sigma and returns the result as a new image.
//
// The 2-D convolution is applied as two 1-D passes (rows, then columns)
// with the same kernel. Border samples use clamped (replicated) edge
// values, as in the Canny pre-blur. A sigma <= 0 returns a copy.
func GaussianBlur(img *Image, sigma float64) *Image {
	if sigma <= 0 {
		return img.Clone()
	}
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2
	width, height := img.Width, img.Height

	tmp := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := img.Pix[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += row[clamp(x+k, 0, width-1)] * kernel[k+radius]
			}
			tmp[y*width+x] = sum
		}
	}

	out := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sum += tmp[clamp(y+k, 0, height-1)*width+x] * kernel[k+radius]
			}
			out[y*width+x] = sum
		}
	}

	return &Image{Width: width, Height: height, Pix: out}
}
