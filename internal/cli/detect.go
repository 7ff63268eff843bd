package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/pipeline"
)

// detectResult is the per-image output of the detect command.
type detectResult struct {
	Path     string             `json:"path" yaml:"path"`
	Region   *imaging.Region    `json:"region,omitempty" yaml:"region,omitempty"`
	Features *pipeline.Features `json:"features" yaml:"features"`
	Stats    *pipeline.Stats    `json:"stats,omitempty" yaml:"stats,omitempty"`
	Elapsed  string             `json:"elapsed" yaml:"elapsed"`
}

func newDetectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <image>...",
		Short: "Detect keypoints and compute descriptors",
		Long: `Detect scale-space extrema in each image, assign orientations and
compute 128-dimensional descriptors. Results are written to stdout as JSON or
YAML, one entry per image. Descriptors are omitted unless --descriptors is set.

Examples:
  siftkit detect photo.png
  siftkit detect --stats --max-features 500 a.jpg b.jpg
  siftkit detect --region 100,100,400,300 --format yaml photo.png
  siftkit detect --print-config --contrast 0.02`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDetect(cmd, args)
		},
	}

	addDetectorFlags(cmd)
	addRegionFlags(cmd)
	addFormatFlag(cmd)
	cmd.Flags().Bool("descriptors", false, "Include descriptors in the output")
	cmd.Flags().Bool("stats", false, "Include keypoint and descriptor statistics")
	cmd.Flags().Bool("print-config", false, "Print the effective configuration as YAML and exit")
	return cmd
}

func (a *app) runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := a.loadConfig(cmd, detectorFlags)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "print-config") {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("at least one image path is required")
	}

	region, named, err := regionFlags(cmd)
	if err != nil {
		return err
	}
	format := mustGetString(cmd, "format")
	withDescriptors := mustGetBool(cmd, "descriptors")
	withStats := mustGetBool(cmd, "stats")

	extractor, err := pipeline.NewExtractor(cfg, a.logger)
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache()

	var bar *progressbar.ProgressBar
	if len(args) > 1 {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Detecting"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
		)
	}

	results := make([]detectResult, 0, len(args))
	for _, path := range args {
		start := time.Now()
		src, err := cache.Open(path)
		if err != nil {
			return err
		}
		r, err := imaging.ResolveRegion(src.Bounds(), region, named)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		features, err := extractor.ExtractSource(cmd.Context(), src, r)
		if err != nil {
			return fmt.Errorf("failed to extract features from %s: %w", path, err)
		}
		// Each image is processed once.
		cache.Evict(path)

		res := detectResult{
			Path:     path,
			Region:   r,
			Features: features,
			Elapsed:  time.Since(start).Round(time.Millisecond).String(),
		}
		if withStats {
			stats := pipeline.Summarize(features)
			res.Stats = &stats
		}
		if !withDescriptors {
			features.Descriptors = nil
		}
		results = append(results, res)

		a.logger.Info("detected", "path", path, "keypoints", features.Len(), "elapsed", res.Elapsed)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return writeOutput(cmd.OutOrStdout(), format, results)
}
