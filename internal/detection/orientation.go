package detection

import (
	"math"

	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

const (
	orientationBins = 36

	// orientationSigmaFactor scales the keypoint sigma into the Gaussian
	// weight of the orientation window; the window radius is three times
	// that weight sigma.
	orientationSigmaFactor = 1.5
	orientationRadiusScale = 3 * orientationSigmaFactor

	// orientationPeakRatio is the fraction of the highest bin a secondary
	// peak must reach to spawn its own keypoint.
	orientationPeakRatio = 0.8
)

// AssignOrientations computes the dominant orientations of every keypoint.
//
// A keypoint produces one output per histogram peak reaching 80% of the
// highest bin, so the result may be longer than the input; a keypoint
// whose neighbourhood has no gradient produces none. The input slice is
// not modified. Output order follows input order, and peaks of one
// keypoint appear in ascending bin order.
func AssignOrientations(p *scalespace.Pyramid, kps []Keypoint) []Keypoint {
	out := make([]Keypoint, 0, len(kps))
	for _, kp := range kps {
		for _, angle := range DominantOrientations(p, kp) {
			oriented := kp
			oriented.Orientation = angle
			out = append(out, oriented)
		}
	}
	return out
}

// DominantOrientations returns the peak directions, in degrees, of the
// smoothed gradient orientation histogram around kp.
func DominantOrientations(p *scalespace.Pyramid, kp Keypoint) []float64 {
	oct := &p.Octaves[kp.Octave]
	img := oct.Gaussians[kp.Layer]
	px := int(math.Round(kp.X / oct.Scale))
	py := int(math.Round(kp.Y / oct.Scale))

	hist := orientationHistogram(img, px, py,
		int(math.Round(orientationRadiusScale*kp.OctaveSigma)),
		orientationSigmaFactor*kp.OctaveSigma)
	return histogramPeaks(smoothHistogram(hist), orientationPeakRatio)
}

// orientationHistogram accumulates magnitude-weighted gradient directions
// in a square window of the given radius, with a Gaussian weight of
// standard deviation sigma. Samples without a full central-difference
// neighbourhood are skipped.
func orientationHistogram(img *imaging.Image, px, py, radius int, sigma float64) []float64 {
	hist := make([]float64, orientationBins)
	expScale := -1 / (2 * sigma * sigma)

	for i := -radius; i <= radius; i++ {
		y := py + i
		if y <= 0 || y >= img.Height-1 {
			continue
		}
		for j := -radius; j <= radius; j++ {
			x := px + j
			if x <= 0 || x >= img.Width-1 {
				continue
			}
			dx, dy := img.Gradient(x, y)
			mag := math.Hypot(dx, dy)
			if mag == 0 {
				continue
			}
			weight := math.Exp(float64(i*i+j*j) * expScale)
			bin := int(math.Round(normalizeDegrees(rad2deg(math.Atan2(dy, dx))) * orientationBins / 360))
			if bin >= orientationBins {
				bin -= orientationBins
			}
			hist[bin] += weight * mag
		}
	}
	return hist
}

// smoothHistogram convolves a circular histogram with [1 4 6 4 1]/16.
func smoothHistogram(hist []float64) []float64 {
	n := len(hist)
	out := make([]float64, n)
	for i := range hist {
		out[i] = (hist[(i+n-2)%n]+hist[(i+2)%n])*(1.0/16) +
			(hist[(i+n-1)%n]+hist[(i+1)%n])*(4.0/16) +
			hist[i]*(6.0/16)
	}
	return out
}

// histogramPeaks returns the refined angle of every strict local maximum of
// a circular histogram that reaches ratio times its global maximum. The
// peak position is refined with a parabola through the bin and its two
// neighbours.
func histogramPeaks(hist []float64, ratio float64) []float64 {
	n := len(hist)
	var highest float64
	for _, v := range hist {
		if v > highest {
			highest = v
		}
	}
	if highest == 0 {
		return nil
	}

	threshold := ratio * highest
	var peaks []float64
	for j, v := range hist {
		left := hist[(j+n-1)%n]
		right := hist[(j+1)%n]
		if v <= left || v <= right || v < threshold {
			continue
		}
		bin := float64(j) + 0.5*(left-right)/(left-2*v+right)
		if bin < 0 {
			bin += float64(n)
		} else if bin >= float64(n) {
			bin -= float64(n)
		}
		peaks = append(peaks, normalizeDegrees(bin*360/float64(n)))
	}
	return peaks
}

func rad2deg(r float64) float64 {
	return r * 180 / math.Pi
}

// normalizeDegrees wraps an angle into [0, 360).
func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}
