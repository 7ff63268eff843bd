package descriptor

import "math"

// quantizeScale maps unit-descriptor components, which rarely exceed the
// 0.2 clamp, onto the uint8 range.
const quantizeScale = 512

// Quantized is the 8-bit form of a Descriptor. The conversion is lossy.
type Quantized []uint8

// Quantize multiplies every component by 512 and saturates at 255.
func Quantize(d Descriptor) Quantized {
	q := make(Quantized, len(d))
	for i, v := range d {
		s := math.Round(float64(v) * quantizeScale)
		switch {
		case s <= 0:
			q[i] = 0
		case s >= math.MaxUint8:
			q[i] = math.MaxUint8
		default:
			q[i] = uint8(s)
		}
	}
	return q
}

// Dequantize divides by 512. It does not undo saturation, so the result
// is only approximately unit length.
func Dequantize(q Quantized) Descriptor {
	d := make(Descriptor, len(q))
	for i, v := range q {
		d[i] = float32(v) / quantizeScale
	}
	return d
}
