package cli

import (
	"fmt"
	"maps"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/siftkit/internal/imaging"
)

// detectorFlags maps detector flags to configuration keys.
var detectorFlags = map[string]string{
	"octaves":       "detector.octaves",
	"levels":        "detector.levels_per_octave",
	"sigma":         "detector.base_sigma",
	"contrast":      "detector.contrast_threshold",
	"edge":          "detector.edge_threshold",
	"assumed-blur":  "detector.assumed_blur",
	"upsample":      "detector.upsample_base",
	"max-features":  "detector.max_features",
	"clamp":         "detector.descriptor_clamp",
	"gray-model":    "detector.gray_model",
	"max-dimension": "detector.max_dimension",
}

// matcherFlags maps matcher flags to configuration keys.
var matcherFlags = map[string]string{
	"cross-check":  "matcher.cross_check",
	"ratio":        "matcher.ratio_threshold",
	"max-distance": "matcher.max_distance",
	"top-n":        "matcher.top_n",
	"kind":         "matcher.kind",
}

// flagKeys merges flag-to-key tables.
func flagKeys(tables ...map[string]string) map[string]string {
	keys := make(map[string]string)
	for _, t := range tables {
		maps.Copy(keys, t)
	}
	return keys
}

// addDetectorFlags registers detector overrides. Defaults shown in help are
// the built-in ones; only flags the user sets override the configuration.
func addDetectorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("octaves", 0, "Pyramid octaves (0 = derive from image size)")
	f.Int("levels", 3, "Scale levels per octave")
	f.Float64("sigma", 1.6, "Base blur of each octave")
	f.Float64("contrast", 0.04, "Contrast threshold (divided by levels)")
	f.Float64("edge", 10, "Edge threshold (principal curvature ratio)")
	f.Float64("assumed-blur", 0.5, "Blur already present in the input")
	f.Bool("upsample", true, "Double the image before detection")
	f.Int("max-features", 0, "Keep only the N strongest keypoints (0 = all)")
	f.Float64("clamp", 0.2, "Descriptor component clamp")
	f.String("gray-model", "luma", "Intensity conversion: luma or lightness")
	f.Int("max-dimension", 0, "Downscale images larger than this before detection (0 = off)")
}

func addMatcherFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("cross-check", false, "Keep only mutual nearest neighbours")
	f.Float64("ratio", 0, "Ratio test threshold in (0,1) (0 = off)")
	f.Float64("max-distance", 0, "Drop matches farther than this (0 = off)")
	f.Int("top-n", 0, "Keep at most N matches (0 = all)")
	f.String("kind", "brute", "Nearest-neighbour search: brute or hnsw")
}

func addRegionFlags(cmd *cobra.Command) {
	cmd.Flags().IntSlice("region", nil, "Detect only inside x1,y1,x2,y2 (x2/y2 exclusive)")
	cmd.Flags().String("named-region", "", "Detect only inside a named region (top-left, center, ...)")
}

// regionFlags returns the explicit region and region name given on cmd.
func regionFlags(cmd *cobra.Command) (*imaging.Region, string, error) {
	coords := mustGetIntSlice(cmd, "region")
	named := mustGetString(cmd, "named-region")
	if len(coords) == 0 {
		return nil, named, nil
	}
	if len(coords) != 4 {
		return nil, "", fmt.Errorf("--region needs 4 values x1,y1,x2,y2, got %d", len(coords))
	}
	return &imaging.Region{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, named, nil
}

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined at construction; errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetFloat64 gets a float64 flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetIntSlice gets an int slice flag value or panics if the flag doesn't exist.
func mustGetIntSlice(cmd *cobra.Command, name string) []int {
	val, err := cmd.Flags().GetIntSlice(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetDuration gets a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}
