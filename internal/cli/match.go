package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/matching"
	"github.com/ironsheep/siftkit/internal/pipeline"
)

type matchPair struct {
	matching.Match `yaml:",inline"`
	XA             float64 `json:"xa" yaml:"xa"`
	YA             float64 `json:"ya" yaml:"ya"`
	XB             float64 `json:"xb" yaml:"xb"`
	YB             float64 `json:"yb" yaml:"yb"`
}

type matchResult struct {
	A          string      `json:"a" yaml:"a"`
	B          string      `json:"b" yaml:"b"`
	KeypointsA int         `json:"keypoints_a" yaml:"keypoints_a"`
	KeypointsB int         `json:"keypoints_b" yaml:"keypoints_b"`
	Count      int         `json:"count" yaml:"count"`
	Matches    []matchPair `json:"matches" yaml:"matches"`
}

func newMatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <image-a> <image-b>",
		Short: "Match keypoints between two images",
		Long: `Extract features from both images and pair each descriptor of the first
image with its nearest neighbour in the second by Euclidean distance.

Examples:
  siftkit match --cross-check a.png b.png
  siftkit match --ratio 0.75 --top-n 20 a.png b.png
  siftkit match --kind hnsw --max-features 2000 a.jpg b.jpg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMatch(cmd, args[0], args[1])
		},
	}

	addDetectorFlags(cmd)
	addMatcherFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}

func (a *app) runMatch(cmd *cobra.Command, pathA, pathB string) error {
	cfg, err := a.loadConfig(cmd, flagKeys(detectorFlags, matcherFlags))
	if err != nil {
		return err
	}

	extractor, err := pipeline.NewExtractor(cfg, a.logger)
	if err != nil {
		return err
	}
	matcher, err := matching.NewMatcher(cfg.Matcher, cfg.WorkerCount())
	if err != nil {
		return err
	}

	cache := imaging.NewImageCache()
	paths := [2]string{pathA, pathB}
	var features [2]*pipeline.Features

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range paths {
		g.Go(func() error {
			src, err := cache.Open(path)
			if err != nil {
				return err
			}
			f, err := extractor.ExtractSource(ctx, src, nil)
			if err != nil {
				return fmt.Errorf("failed to extract features from %s: %w", path, err)
			}
			features[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	matches, err := matcher.Match(cmd.Context(), features[0].Descriptors, features[1].Descriptors)
	if err != nil {
		return err
	}
	a.logger.Info("matched",
		"a", pathA, "b", pathB,
		"keypoints_a", features[0].Len(),
		"keypoints_b", features[1].Len(),
		"matches", len(matches))

	result := matchResult{
		A:          pathA,
		B:          pathB,
		KeypointsA: features[0].Len(),
		KeypointsB: features[1].Len(),
		Count:      len(matches),
		Matches:    make([]matchPair, len(matches)),
	}
	for i, m := range matches {
		ka := features[0].Keypoints[m.IndexA]
		kb := features[1].Keypoints[m.IndexB]
		result.Matches[i] = matchPair{Match: m, XA: ka.X, YA: ka.Y, XB: kb.X, YB: kb.Y}
	}
	return writeOutput(cmd.OutOrStdout(), mustGetString(cmd, "format"), result)
}
