package detection

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

const (
	// maxInterpSteps bounds the Newton refinement in Localize.
	maxInterpSteps = 5

	// maxOffset aborts refinement when an offset is absurdly large, which
	// happens when the Hessian is close to singular.
	maxOffset = float64(math.MaxInt32 / 3)
)

// derivatives holds the DoG gradient and Hessian at one sample.
type derivatives struct {
	dx, dy, ds    float64
	dxx, dyy, dss float64
	dxy, dxs, dys float64
	value         float64
}

func derivativesAt(prev, cur, next *imaging.Image, c, r int) derivatives {
	w := cur.Width
	i := r*w + c
	v := cur.Pix[i]
	return derivatives{
		value: v,
		dx:    (cur.Pix[i+1] - cur.Pix[i-1]) * 0.5,
		dy:    (cur.Pix[i+w] - cur.Pix[i-w]) * 0.5,
		ds:    (next.Pix[i] - prev.Pix[i]) * 0.5,
		dxx:   cur.Pix[i+1] + cur.Pix[i-1] - 2*v,
		dyy:   cur.Pix[i+w] + cur.Pix[i-w] - 2*v,
		dss:   next.Pix[i] + prev.Pix[i] - 2*v,
		dxy:   (cur.Pix[i+w+1] - cur.Pix[i+w-1] - cur.Pix[i-w+1] + cur.Pix[i-w-1]) * 0.25,
		dxs:   (next.Pix[i+1] - next.Pix[i-1] - prev.Pix[i+1] + prev.Pix[i-1]) * 0.25,
		dys:   (next.Pix[i+w] - next.Pix[i-w] - prev.Pix[i+w] + prev.Pix[i-w]) * 0.25,
	}
}

// offset solves H * x = -grad. It reports false when the Hessian is
// singular or too ill-conditioned to trust.
func (d derivatives) offset() (xc, xr, xs float64, ok bool) {
	h := mat.NewDense(3, 3, []float64{
		d.dxx, d.dxy, d.dxs,
		d.dxy, d.dyy, d.dys,
		d.dxs, d.dys, d.dss,
	})
	b := mat.NewVecDense(3, []float64{-d.dx, -d.dy, -d.ds})

	var x mat.VecDense
	if err := x.SolveVec(h, b); err != nil {
		return 0, 0, 0, false
	}
	return x.AtVec(0), x.AtVec(1), x.AtVec(2), true
}

// Localize refines c to a sub-pixel, sub-layer extremum and applies the
// contrast and edge tests.
//
// The refinement is a loop of at most five Newton steps. A step whose
// offsets are all below 0.5 converges; otherwise the candidate moves to
// the rounded position and the loop repeats. The candidate is dropped if
// it leaves the interior layers or the border margin, if the Hessian
// cannot be solved, or if it has not converged after the last step.
//
// The returned keypoint has no orientation yet.
func Localize(p *scalespace.Pyramid, cfg config.Detector, c Candidate) (Keypoint, bool) {
	oct := &p.Octaves[c.Octave]
	levels := p.Levels
	col, row, layer := c.Col, c.Row, c.Layer

	var (
		d          derivatives
		xc, xr, xs float64
		converged  bool
	)
	for step := 0; step < maxInterpSteps; step++ {
		prev, cur, next := oct.DoG[layer-1], oct.DoG[layer], oct.DoG[layer+1]
		d = derivativesAt(prev, cur, next, col, row)

		var ok bool
		xc, xr, xs, ok = d.offset()
		if !ok {
			return Keypoint{}, false
		}
		if math.Abs(xc) < 0.5 && math.Abs(xr) < 0.5 && math.Abs(xs) < 0.5 {
			converged = true
			break
		}
		if math.Abs(xc) > maxOffset || math.Abs(xr) > maxOffset || math.Abs(xs) > maxOffset {
			return Keypoint{}, false
		}

		col += int(math.Round(xc))
		row += int(math.Round(xr))
		layer += int(math.Round(xs))

		w, h := cur.Width, cur.Height
		if layer < 1 || layer > levels ||
			col < scalespace.Border || col >= w-scalespace.Border ||
			row < scalespace.Border || row >= h-scalespace.Border {
			return Keypoint{}, false
		}
	}
	if !converged {
		return Keypoint{}, false
	}

	contrast := d.value + 0.5*(d.dx*xc+d.dy*xr+d.ds*xs)
	if math.Abs(contrast) < cfg.EffectiveContrast() {
		return Keypoint{}, false
	}
	if isEdge(d, cfg.EdgeThreshold) {
		return Keypoint{}, false
	}

	x := (float64(col) + xc) * oct.Scale
	y := (float64(row) + xr) * oct.Scale
	if x < 0 || y < 0 || x >= float64(p.Width) || y >= float64(p.Height) {
		return Keypoint{}, false
	}

	octaveSigma := p.BaseSigma * math.Pow(2, (float64(layer)+xs)/float64(levels))
	return Keypoint{
		X:           x,
		Y:           y,
		Sigma:       octaveSigma * oct.Scale,
		Response:    math.Abs(contrast),
		Octave:      c.Octave,
		Layer:       layer,
		LayerOffset: xs,
		OctaveSigma: octaveSigma,
	}, true
}

// isEdge applies the principal curvature ratio test on the 2x2 spatial
// Hessian. A non-positive determinant means the curvatures have different
// signs, which is never a blob. A ratio exactly at the bound is kept.
func isEdge(d derivatives, r float64) bool {
	tr := d.dxx + d.dyy
	det := d.dxx*d.dyy - d.dxy*d.dxy
	return det <= 0 || tr*tr*r > (r+1)*(r+1)*det
}
