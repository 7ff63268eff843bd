package scalespace

import (
	"fmt"
	"math"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/imaging"
)

// Border is the number of samples next to each octave edge where extrema
// are never searched. Octaves smaller than MinOctaveSize are not built.
const (
	Border        = 5
	MinOctaveSize = 2*Border + 3
)

// minBaseVariance floors the variance of the initial blur so the base is
// always smoothed a little, even when the assumed blur exceeds BaseSigma.
const minBaseVariance = 0.01

// Octave is one image size of the pyramid.
type Octave struct {
	// Index is the octave number, 0 for the base.
	Index int

	// Scale maps octave coordinates to input-image coordinates.
	Scale float64

	// Gaussians holds levels+3 blurred images, from least to most blurred.
	Gaussians []*imaging.Image

	// Sigmas[i] is the total blur of Gaussians[i] in octave sample units.
	Sigmas []float64

	// DoG holds levels+2 differences Gaussians[i+1]-Gaussians[i].
	DoG []*imaging.Image
}

// Width returns the sample width of the octave.
func (o *Octave) Width() int { return o.Gaussians[0].Width }

// Height returns the sample height of the octave.
func (o *Octave) Height() int { return o.Gaussians[0].Height }

// Pyramid is the complete scale space of one image.
type Pyramid struct {
	Octaves   []Octave
	Levels    int
	BaseSigma float64

	// Upsampled records whether the base was doubled before blurring.
	Upsampled bool

	// Width and Height are the dimensions of the input image.
	Width  int
	Height int
}

// Build constructs the Gaussian pyramid and DoG layers for img.
//
// The input is assumed to already carry cfg.AssumedBlur of blur (doubled
// when UpsampleBase is set). Level 0 of every octave has exactly
// cfg.BaseSigma of blur in its own sample units; level i has
// BaseSigma*2^(i/levels). Upsampling routes samples through a 16-bit
// raster, so inputs outside [0, 1] are clamped in that mode.
//
// Returns imaging.ErrInvalidInput for a malformed image and
// config.ErrInvalidConfiguration for invalid options.
func Build(img *imaging.Image, cfg config.Detector) (*Pyramid, error) {
	if err := imaging.Validate(img); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	levels := cfg.LevelsPerOctave
	assumed := cfg.AssumedBlur
	base := img
	scale := 1.0
	if cfg.UpsampleBase {
		base = imaging.Upsample2x(img)
		assumed *= 2
		scale = 0.5
	}

	variance := cfg.BaseSigma*cfg.BaseSigma - assumed*assumed
	base = imaging.GaussianBlur(base, math.Sqrt(math.Max(variance, minBaseVariance)))

	sigmas := LevelSigmas(cfg.BaseSigma, levels)
	steps := incrementalSigmas(sigmas)

	count := cfg.Octaves
	if count == 0 {
		count = AutoOctaves(base.Width, base.Height)
	}

	p := &Pyramid{
		Levels:    levels,
		BaseSigma: cfg.BaseSigma,
		Upsampled: cfg.UpsampleBase,
		Width:     img.Width,
		Height:    img.Height,
	}

	for o := 0; o < count; o++ {
		if o > 0 {
			base = imaging.Downsample2x(p.Octaves[o-1].Gaussians[levels])
			if base.Width < MinOctaveSize || base.Height < MinOctaveSize {
				break
			}
		}

		gaussians := make([]*imaging.Image, len(sigmas))
		gaussians[0] = base
		for i := 1; i < len(sigmas); i++ {
			gaussians[i] = imaging.GaussianBlur(gaussians[i-1], steps[i])
		}

		dog, err := DifferenceOfGaussians(gaussians)
		if err != nil {
			return nil, fmt.Errorf("octave %d: %w", o, err)
		}

		p.Octaves = append(p.Octaves, Octave{
			Index:     o,
			Scale:     scale * math.Ldexp(1, o),
			Gaussians: gaussians,
			Sigmas:    append([]float64(nil), sigmas...),
			DoG:       dog,
		})
	}

	return p, nil
}

// LevelSigmas returns the absolute blur of each of the levels+3 Gaussian
// images of an octave, in octave sample units.
func LevelSigmas(baseSigma float64, levels int) []float64 {
	sigmas := make([]float64, levels+3)
	k := math.Pow(2, 1/float64(levels))
	sigmas[0] = baseSigma
	for i := 1; i < len(sigmas); i++ {
		sigmas[i] = sigmas[i-1] * k
	}
	return sigmas
}

// incrementalSigmas returns the blur to apply to level i-1 to reach level i.
// Element 0 is unused.
func incrementalSigmas(sigmas []float64) []float64 {
	steps := make([]float64, len(sigmas))
	for i := 1; i < len(sigmas); i++ {
		steps[i] = math.Sqrt(sigmas[i]*sigmas[i] - sigmas[i-1]*sigmas[i-1])
	}
	return steps
}

// AutoOctaves derives the octave count from the base image size:
// round(log2(min(w, h))) - 2, at least 1.
func AutoOctaves(width, height int) int {
	n := int(math.Round(math.Log2(float64(min(width, height))))) - 2
	if n < 1 {
		return 1
	}
	return n
}
