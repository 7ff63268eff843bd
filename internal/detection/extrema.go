package detection

import (
	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

// FindCandidates scans DoG layer `layer` of octave `octave` for strict
// local extrema over the 26-neighbourhood.
//
// Only interior layers (1..Levels) can be scanned, and samples closer
// than scalespace.Border to an edge are skipped. A sample must also exceed
// half the effective contrast threshold in magnitude. Candidates are
// returned in row-major order.
func FindCandidates(p *scalespace.Pyramid, cfg config.Detector, octave, layer int) []Candidate {
	if octave < 0 || octave >= len(p.Octaves) || layer < 1 || layer > p.Levels {
		return nil
	}
	dog := p.Octaves[octave].DoG
	prev, cur, next := dog[layer-1], dog[layer], dog[layer+1]
	threshold := 0.5 * cfg.EffectiveContrast()

	var out []Candidate
	w, h := cur.Width, cur.Height
	for r := scalespace.Border; r < h-scalespace.Border; r++ {
		for c := scalespace.Border; c < w-scalespace.Border; c++ {
			v := cur.Pix[r*w+c]
			if v > threshold || v < -threshold {
				if isExtremum(prev, cur, next, c, r, v) {
					out = append(out, Candidate{Octave: octave, Layer: layer, Row: r, Col: c})
				}
			}
		}
	}
	return out
}

// isExtremum reports whether v, the sample at (c, r) of cur, is strictly
// above or strictly below all of its 26 neighbours.
func isExtremum(prev, cur, next *imaging.Image, c, r int, v float64) bool {
	w := cur.Width
	if v > 0 {
		for _, layer := range [3]*imaging.Image{prev, cur, next} {
			for dy := -1; dy <= 1; dy++ {
				row := (r+dy)*w + c
				for dx := -1; dx <= 1; dx++ {
					if layer == cur && dx == 0 && dy == 0 {
						continue
					}
					if layer.Pix[row+dx] >= v {
						return false
					}
				}
			}
		}
		return true
	}
	for _, layer := range [3]*imaging.Image{prev, cur, next} {
		for dy := -1; dy <= 1; dy++ {
			row := (r+dy)*w + c
			for dx := -1; dx <= 1; dx++ {
				if layer == cur && dx == 0 && dy == 0 {
					continue
				}
				if layer.Pix[row+dx] <= v {
					return false
				}
			}
		}
	}
	return true
}
