package detection

import (
	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

// DetectLayer runs candidate search, localization and orientation
// assignment on one interior DoG layer. Layers can be processed
// independently; the pyramid is only read.
func DetectLayer(p *scalespace.Pyramid, cfg config.Detector, octave, layer int) []Keypoint {
	candidates := FindCandidates(p, cfg, octave, layer)
	localized := make([]Keypoint, 0, len(candidates))
	for _, c := range candidates {
		if kp, ok := Localize(p, cfg, c); ok {
			localized = append(localized, kp)
		}
	}
	return AssignOrientations(p, localized)
}

// Detect runs DetectLayer over every interior layer of every octave and
// concatenates the results in (octave, layer, row, col) order.
func Detect(p *scalespace.Pyramid, cfg config.Detector) []Keypoint {
	out := []Keypoint{}
	for o := range p.Octaves {
		for layer := 1; layer <= p.Levels; layer++ {
			out = append(out, DetectLayer(p, cfg, o, layer)...)
		}
	}
	return out
}
