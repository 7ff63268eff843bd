package scalespace

import (
	"fmt"

	"github.com/ironsheep/siftkit/internal/imaging"
)

// DifferenceOfGaussians returns gaussians[i+1]-gaussians[i] for every
// adjacent pair. All images must share dimensions. The inputs are not
// modified.
func DifferenceOfGaussians(gaussians []*imaging.Image) ([]*imaging.Image, error) {
	if len(gaussians) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 gaussian images, got %d",
			imaging.ErrInvalidInput, len(gaussians))
	}
	out := make([]*imaging.Image, len(gaussians)-1)
	for i := range out {
		d, err := imaging.Subtract(gaussians[i+1], gaussians[i])
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}
