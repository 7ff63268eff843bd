package pipeline

import (
	"github.com/ironsheep/siftkit/internal/descriptor"
	"github.com/ironsheep/siftkit/internal/detection"
)

// Features is the result of one extraction. Keypoints[i] is described by
// Descriptors[i]. It holds no reference to the pyramid it came from.
type Features struct {
	Width       int                     `json:"width" yaml:"width"`
	Height      int                     `json:"height" yaml:"height"`
	Keypoints   []detection.Keypoint    `json:"keypoints" yaml:"keypoints"`
	Descriptors []descriptor.Descriptor `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

// Len returns the number of features.
func (f *Features) Len() int {
	return len(f.Keypoints)
}

// Quantized returns the 8-bit form of every descriptor.
func (f *Features) Quantized() []descriptor.Quantized {
	out := make([]descriptor.Quantized, len(f.Descriptors))
	for i, d := range f.Descriptors {
		out[i] = descriptor.Quantize(d)
	}
	return out
}

// Offset translates every keypoint by (dx, dy), e.g. to map detections on
// a crop back to the source image. Width and Height are left unchanged.
func (f *Features) Offset(dx, dy float64) {
	for i := range f.Keypoints {
		f.Keypoints[i].X += dx
		f.Keypoints[i].Y += dy
	}
}
