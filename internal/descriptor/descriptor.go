package descriptor

import (
	"math"

	"github.com/ironsheep/siftkit/internal/detection"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

const (
	// Width is the number of cells along each side of the descriptor grid.
	Width = 4

	// Bins is the number of orientation bins per cell.
	Bins = 8

	// Length is the number of components of a descriptor.
	Length = Width * Width * Bins

	// cellScale is the cell width in units of the keypoint's octave sigma.
	cellScale = 3.0
)

// Descriptor is a unit-length, non-negative feature vector of Length
// components.
type Descriptor []float32

// Compute builds the descriptor of kp from the Gaussian image it was
// detected on. It reports false when no gradient falls inside the
// sampling window, in which case the descriptor cannot be normalized.
func Compute(p *scalespace.Pyramid, kp detection.Keypoint, clamp float64) (Descriptor, bool) {
	oct := &p.Octaves[kp.Octave]
	return Sample(oct.Gaussians[kp.Layer],
		kp.X/oct.Scale, kp.Y/oct.Scale, kp.Orientation, kp.OctaveSigma, clamp)
}

// Sample builds a descriptor at (x, y) of img for a feature of the given
// orientation (degrees) and scale (in img sample units).
//
// The window is a 4x4 grid of cells, each 3*sigma samples wide, rotated so
// that the feature orientation points along the grid's x axis. Every
// sample's gradient is Gaussian-weighted by its distance to the centre and
// spread over the two nearest rows, columns and orientation bins. The
// histogram is L2-normalized, each component is capped at clamp, and the
// result is normalized again.
func Sample(img *imaging.Image, x, y, orientation, sigma, clamp float64) (Descriptor, bool) {
	const (
		d = Width
		n = Bins
	)
	px := int(math.Round(x))
	py := int(math.Round(y))

	cellWidth := cellScale * sigma
	radius := int(math.Round(cellWidth * math.Sqrt2 * (d + 1) * 0.5))
	// Never scan more than the whole image.
	if diag := int(math.Sqrt(float64(img.Width*img.Width + img.Height*img.Height))); radius > diag {
		radius = diag
	}

	theta := orientation * math.Pi / 180
	cosT := math.Cos(theta) / cellWidth
	sinT := math.Sin(theta) / cellWidth
	binsPerDegree := float64(n) / 360
	expScale := -1 / (d * d * 0.5)

	// Two extra cells on each spatial axis and two extra orientation bins
	// absorb interpolation spill-over.
	hist := make([]float64, (d+2)*(d+2)*(n+2))
	at := func(r, c, o int) int { return ((r+1)*(d+2)+c+1)*(n+2) + o }

	for i := -radius; i <= radius; i++ {
		sy := py + i
		if sy <= 0 || sy >= img.Height-1 {
			continue
		}
		for j := -radius; j <= radius; j++ {
			sx := px + j
			if sx <= 0 || sx >= img.Width-1 {
				continue
			}

			// Offset in the keypoint frame, in cell units.
			cRot := float64(j)*cosT + float64(i)*sinT
			rRot := -float64(j)*sinT + float64(i)*cosT
			rbin := rRot + d/2 - 0.5
			cbin := cRot + d/2 - 0.5
			if rbin <= -1 || rbin >= d || cbin <= -1 || cbin >= d {
				continue
			}

			dx, dy := img.Gradient(sx, sy)
			mag := math.Hypot(dx, dy)
			if mag == 0 {
				continue
			}
			angle := math.Atan2(dy, dx)*180/math.Pi - orientation
			obin := math.Mod(angle, 360)
			if obin < 0 {
				obin += 360
			}
			obin *= binsPerDegree

			weight := math.Exp((cRot*cRot + rRot*rRot) * expScale)
			accumulate(hist, at, rbin, cbin, obin, mag*weight)
		}
	}

	desc := make([]float64, Length)
	for r := 0; r < d; r++ {
		for c := 0; c < d; c++ {
			base := at(r, c, 0)
			// Bins n and n+1 are orientations that wrapped past 360.
			hist[base] += hist[base+n]
			hist[base+1] += hist[base+n+1]
			copy(desc[(r*d+c)*n:], hist[base:base+n])
		}
	}

	return normalize(desc, clamp)
}

// accumulate spreads v trilinearly over the 8 histogram cells around
// (rbin, cbin, obin).
func accumulate(hist []float64, at func(r, c, o int) int, rbin, cbin, obin, v float64) {
	r0 := int(math.Floor(rbin))
	c0 := int(math.Floor(cbin))
	o0 := int(math.Floor(obin))
	rbin -= float64(r0)
	cbin -= float64(c0)
	obin -= float64(o0)
	if o0 >= Bins {
		o0 -= Bins
	}

	vR1 := v * rbin
	vR0 := v - vR1
	vRC11 := vR1 * cbin
	vRC10 := vR1 - vRC11
	vRC01 := vR0 * cbin
	vRC00 := vR0 - vRC01

	for _, cell := range [4]struct {
		r, c int
		v    float64
	}{
		{r0, c0, vRC00},
		{r0, c0 + 1, vRC01},
		{r0 + 1, c0, vRC10},
		{r0 + 1, c0 + 1, vRC11},
	} {
		i := at(cell.r, cell.c, o0)
		high := cell.v * obin
		hist[i] += cell.v - high
		hist[i+1] += high
	}
}

// normalize scales v to unit length, caps components at clamp and
// rescales to unit length again.
func normalize(v []float64, clamp float64) (Descriptor, bool) {
	norm := l2(v)
	if norm == 0 {
		return nil, false
	}
	for i := range v {
		v[i] = math.Min(v[i]/norm, clamp)
	}
	norm = l2(v)

	out := make(Descriptor, len(v))
	for i := range v {
		out[i] = float32(v[i] / norm)
	}
	return out, true
}

func l2(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Norm returns the L2 norm of d.
func (d Descriptor) Norm() float64 {
	var sum float64
	for _, x := range d {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
