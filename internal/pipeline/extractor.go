package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/descriptor"
	"github.com/ironsheep/siftkit/internal/detection"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

// Extractor runs feature extraction with a fixed configuration.
// It is safe for concurrent use.
type Extractor struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewExtractor validates cfg and returns an extractor. A nil logger means
// slog.Default().
func NewExtractor(cfg config.Config, logger *slog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}, nil
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() config.Config {
	return e.cfg
}

// Extract detects and describes features of an intensity image.
//
// Keypoints come out in (octave, layer, row, col) order of their
// originating extremum, each followed by its additional orientations.
// Keypoints whose descriptor window holds no gradient are dropped, so
// every returned descriptor has unit length. When MaxFeatures is set, only
// that many keypoints with the highest responses are kept, in the same
// relative order.
//
// Returns imaging.ErrInvalidInput for nil or empty images and ctx.Err()
// when cancelled.
func (e *Extractor) Extract(ctx context.Context, img *imaging.Image) (*Features, error) {
	if err := imaging.Validate(img); err != nil {
		return nil, err
	}
	start := time.Now()
	det := e.cfg.Detector

	pyr, err := scalespace.Build(img, det)
	if err != nil {
		return nil, fmt.Errorf("failed to build scale space: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keypoints, err := e.detect(ctx, pyr)
	if err != nil {
		return nil, err
	}
	detected := len(keypoints)
	keypoints = strongest(keypoints, det.MaxFeatures)

	descs, err := e.describe(ctx, pyr, keypoints)
	if err != nil {
		return nil, err
	}

	f := &Features{
		Width:       img.Width,
		Height:      img.Height,
		Keypoints:   make([]detection.Keypoint, 0, len(keypoints)),
		Descriptors: make([]descriptor.Descriptor, 0, len(keypoints)),
	}
	for i, d := range descs {
		if d == nil {
			continue
		}
		f.Keypoints = append(f.Keypoints, keypoints[i])
		f.Descriptors = append(f.Descriptors, d)
	}

	e.logger.Debug("features extracted",
		"width", img.Width,
		"height", img.Height,
		"octaves", len(pyr.Octaves),
		"detected", detected,
		"kept", f.Len(),
		"duration", time.Since(start))
	return f, nil
}

// ExtractImage converts a decoded image with the configured gray model,
// downscales it to MaxDimension if needed, and extracts features.
// Keypoint positions and sigmas are reported in the frame of img.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) (*Features, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", imaging.ErrInvalidInput)
	}
	bounds := img.Bounds()
	fitted, factor := imaging.Fit(img, e.cfg.Detector.MaxDimension)
	if factor != 1 {
		e.logger.Debug("image downscaled for detection",
			"from", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
			"to", fmt.Sprintf("%dx%d", fitted.Bounds().Dx(), fitted.Bounds().Dy()))
	}

	gray, err := imaging.FromImage(fitted, e.cfg.Detector.GrayModel)
	if err != nil {
		return nil, err
	}
	f, err := e.Extract(ctx, gray)
	if err != nil {
		return nil, err
	}
	if factor == 1 {
		return f, nil
	}

	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	out := &Features{Width: bounds.Dx(), Height: bounds.Dy()}
	for i, kp := range f.Keypoints {
		kp.X *= factor
		kp.Y *= factor
		kp.Sigma *= factor
		if kp.X >= w || kp.Y >= h {
			continue
		}
		out.Keypoints = append(out.Keypoints, kp)
		out.Descriptors = append(out.Descriptors, f.Descriptors[i])
	}
	if out.Keypoints == nil {
		out.Keypoints = []detection.Keypoint{}
	}
	return out, nil
}

// ExtractRegion extracts features from the part of img inside region and
// reports keypoints in the coordinates of img. A nil region means the whole
// image.
func (e *Extractor) ExtractRegion(ctx context.Context, img image.Image, region *imaging.Region) (*Features, error) {
	if region == nil {
		return e.ExtractImage(ctx, img)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", imaging.ErrInvalidInput)
	}
	cropped, err := imaging.Crop(img, *region)
	if err != nil {
		return nil, err
	}
	f, err := e.ExtractImage(ctx, cropped)
	if err != nil {
		return nil, err
	}
	origin := img.Bounds().Min
	f.Offset(float64(region.X1-origin.X), float64(region.Y1-origin.Y))
	return f, nil
}

// ExtractSource extracts features from a cached source, reusing its
// intensity grid for the configured gray model. A nil region means the whole
// image. Sources that need downscaling to MaxDimension go through
// ExtractRegion instead.
func (e *Extractor) ExtractSource(ctx context.Context, src *imaging.Source, region *imaging.Region) (*Features, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("%w: nil image", imaging.ErrInvalidInput)
	}
	bounds := src.Bounds()
	area := bounds
	if region != nil {
		area = region.Rect()
	}
	if maxDim := e.cfg.Detector.MaxDimension; maxDim > 0 && (area.Dx() > maxDim || area.Dy() > maxDim) {
		return e.ExtractRegion(ctx, src.Image, region)
	}

	gray, err := src.Intensity(e.cfg.Detector.GrayModel)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return e.Extract(ctx, gray)
	}

	local := imaging.Region{
		X1: region.X1 - bounds.Min.X,
		Y1: region.Y1 - bounds.Min.Y,
		X2: region.X2 - bounds.Min.X,
		Y2: region.Y2 - bounds.Min.Y,
	}
	cropped, err := gray.Crop(local)
	if err != nil {
		return nil, err
	}
	f, err := e.Extract(ctx, cropped)
	if err != nil {
		return nil, err
	}
	f.Offset(float64(local.X1), float64(local.Y1))
	return f, nil
}

// detect runs one task per interior DoG layer.
func (e *Extractor) detect(ctx context.Context, pyr *scalespace.Pyramid) ([]detection.Keypoint, error) {
	type task struct{ octave, layer int }
	var tasks []task
	for o := range pyr.Octaves {
		for l := 1; l <= pyr.Levels; l++ {
			tasks = append(tasks, task{o, l})
		}
	}

	results := make([][]detection.Keypoint, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.WorkerCount())
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = detection.DetectLayer(pyr, e.cfg.Detector, t.octave, t.layer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []detection.Keypoint{}
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// describe computes descriptors for keypoints in parallel. Slots of
// keypoints without a descriptor stay nil.
func (e *Extractor) describe(ctx context.Context, pyr *scalespace.Pyramid, keypoints []detection.Keypoint) ([]descriptor.Descriptor, error) {
	descs := make([]descriptor.Descriptor, len(keypoints))
	clamp := e.cfg.Detector.DescriptorClamp

	// Chunks keep per-task overhead small compared to one descriptor.
	const chunk = 64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.WorkerCount())
	for lo := 0; lo < len(keypoints); lo += chunk {
		hi := min(lo+chunk, len(keypoints))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if d, ok := descriptor.Compute(pyr, keypoints[i], clamp); ok {
					descs[i] = d
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}

// strongest keeps the n keypoints with the highest response, preserving
// their relative order. Equal responses favour the earlier keypoint.
// n <= 0 keeps everything.
func strongest(kps []detection.Keypoint, n int) []detection.Keypoint {
	if n <= 0 || len(kps) <= n {
		return kps
	}
	idx := make([]int, len(kps))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return kps[idx[a]].Response > kps[idx[b]].Response
	})
	idx = idx[:n]
	sort.Ints(idx)

	out := make([]detection.Keypoint, n)
	for i, j := range idx {
		out[i] = kps[j]
	}
	return out
}
