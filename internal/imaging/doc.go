// Package imaging provides the image plumbing underneath feature detection.
//
// It covers two worlds. On the decode side it opens files through a shared
// ImageCache, which keeps each decoded Source along with its intensity grids,
// reports metadata, crops and downsizes standard image.Image values. On the numeric side it defines Image, a single-channel float64
// intensity grid, together with the few operations the scale-space code
// needs: separable Gaussian blur, 2x down/upsampling, subtraction and
// central-difference gradients.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost column)
//   - Y: vertical position (0 = topmost row)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// ImageCache and Source are safe for concurrent use. Image values are never
// modified after construction by any function here, so they may be shared
// freely between goroutines.
//
// # Error Handling
//
// Malformed inputs (nil images, zero dimensions, sample counts that do not
// match the dimensions) wrap ErrInvalidInput so callers can test with
// errors.Is. File and decode failures are wrapped with context.
package imaging
