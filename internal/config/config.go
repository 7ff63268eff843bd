// Package config holds the immutable configuration value passed into every
// detection and matching call, plus its defaults, validation and loading.
package config

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidConfiguration is returned (wrapped) by Validate when a parameter
// is outside its allowed range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Gray models accepted by Detector.GrayModel.
const (
	GrayLuma      = "luma"      // ITU-R BT.601 weighted RGB
	GrayLightness = "lightness" // CIE L* from go-colorful, rescaled to [0,1]
)

// Matcher kinds accepted by Matcher.Kind.
const (
	MatcherBrute = "brute"
	MatcherHNSW  = "hnsw"
)

// Config is the complete, immutable set of options for one pipeline run.
// It is always passed by value.
type Config struct {
	Detector Detector `mapstructure:"detector" yaml:"detector" json:"detector"`
	Matcher  Matcher  `mapstructure:"matcher" yaml:"matcher" json:"matcher"`

	// Workers bounds the number of goroutines used per call. 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// Detector configures scale-space construction, keypoint localization,
// orientation assignment and descriptor generation.
type Detector struct {
	// Octaves is the number of pyramid octaves. 0 derives it from the image size.
	Octaves int `mapstructure:"octaves" yaml:"octaves" json:"octaves"`

	// LevelsPerOctave is the number of intra-octave scale levels where extrema
	// are searched. Each octave holds LevelsPerOctave+3 Gaussian images.
	LevelsPerOctave int `mapstructure:"levels_per_octave" yaml:"levels_per_octave" json:"levels_per_octave"`

	// BaseSigma is the blur of the first Gaussian image of every octave.
	BaseSigma float64 `mapstructure:"base_sigma" yaml:"base_sigma" json:"base_sigma"`

	// ContrastThreshold rejects weak extrema. It is divided by LevelsPerOctave
	// before being compared with the interpolated DoG magnitude.
	ContrastThreshold float64 `mapstructure:"contrast_threshold" yaml:"contrast_threshold" json:"contrast_threshold"`

	// EdgeThreshold is the maximum ratio of principal curvatures; candidates
	// with trace²/det above (r+1)²/r are rejected as edge responses.
	EdgeThreshold float64 `mapstructure:"edge_threshold" yaml:"edge_threshold" json:"edge_threshold"`

	// AssumedBlur is the blur the input image is assumed to already carry.
	AssumedBlur float64 `mapstructure:"assumed_blur" yaml:"assumed_blur" json:"assumed_blur"`

	// UpsampleBase doubles the input before building the pyramid.
	UpsampleBase bool `mapstructure:"upsample_base" yaml:"upsample_base" json:"upsample_base"`

	// MaxFeatures keeps only the strongest keypoints by response. 0 keeps all.
	MaxFeatures int `mapstructure:"max_features" yaml:"max_features" json:"max_features"`

	// DescriptorClamp is the ceiling applied to normalized descriptor components.
	DescriptorClamp float64 `mapstructure:"descriptor_clamp" yaml:"descriptor_clamp" json:"descriptor_clamp"`

	// GrayModel selects how color images are reduced to intensity.
	GrayModel string `mapstructure:"gray_model" yaml:"gray_model" json:"gray_model"`

	// MaxDimension downscales inputs whose larger side exceeds it. 0 disables.
	MaxDimension int `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
}

// Matcher configures descriptor matching.
type Matcher struct {
	// CrossCheck accepts only mutual nearest neighbours.
	CrossCheck bool `mapstructure:"cross_check" yaml:"cross_check" json:"cross_check"`

	// RatioThreshold enables Lowe's ratio test when in (0,1). 0 disables.
	RatioThreshold float64 `mapstructure:"ratio_threshold" yaml:"ratio_threshold" json:"ratio_threshold"`

	// MaxDistance drops matches farther than this. 0 disables.
	MaxDistance float64 `mapstructure:"max_distance" yaml:"max_distance" json:"max_distance"`

	// TopN truncates the sorted match list. 0 keeps all.
	TopN int `mapstructure:"top_n" yaml:"top_n" json:"top_n"`

	// Kind selects exhaustive ("brute") or approximate ("hnsw") search.
	Kind string `mapstructure:"kind" yaml:"kind" json:"kind"`
}

// Default returns the OpenCV-compatible defaults.
func Default() Config {
	return Config{
		Detector: DefaultDetector(),
		Matcher:  DefaultMatcher(),
	}
}

// DefaultDetector returns the default detector options.
func DefaultDetector() Detector {
	return Detector{
		Octaves:           0,
		LevelsPerOctave:   3,
		BaseSigma:         1.6,
		ContrastThreshold: 0.04,
		EdgeThreshold:     10,
		AssumedBlur:       0.5,
		UpsampleBase:      true,
		DescriptorClamp:   0.2,
		GrayModel:         GrayLuma,
	}
}

// DefaultMatcher returns the default matcher options.
func DefaultMatcher() Matcher {
	return Matcher{Kind: MatcherBrute}
}

// Validate checks every section and returns the first violation wrapped in
// ErrInvalidConfiguration.
func (c Config) Validate() error {
	if err := c.Detector.Validate(); err != nil {
		return err
	}
	if err := c.Matcher.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return invalid("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// WorkerCount resolves Workers to a concrete goroutine limit.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate checks the detector options.
func (d Detector) Validate() error {
	switch {
	case d.Octaves < 0:
		return invalid("octaves must be >= 0, got %d", d.Octaves)
	case d.LevelsPerOctave <= 0:
		return invalid("levels_per_octave must be > 0, got %d", d.LevelsPerOctave)
	case !(d.BaseSigma > 0):
		return invalid("base_sigma must be > 0, got %g", d.BaseSigma)
	case !(d.ContrastThreshold > 0):
		return invalid("contrast_threshold must be > 0, got %g", d.ContrastThreshold)
	case !(d.EdgeThreshold > 0):
		return invalid("edge_threshold must be > 0, got %g", d.EdgeThreshold)
	case d.AssumedBlur < 0:
		return invalid("assumed_blur must be >= 0, got %g", d.AssumedBlur)
	case d.MaxFeatures < 0:
		return invalid("max_features must be >= 0, got %d", d.MaxFeatures)
	case !(d.DescriptorClamp > 0 && d.DescriptorClamp <= 1):
		return invalid("descriptor_clamp must be in (0,1], got %g", d.DescriptorClamp)
	case d.MaxDimension < 0:
		return invalid("max_dimension must be >= 0, got %d", d.MaxDimension)
	}
	switch d.GrayModel {
	case GrayLuma, GrayLightness:
	default:
		return invalid("unknown gray_model %q", d.GrayModel)
	}
	return nil
}

// EffectiveContrast is the threshold compared against |D| after interpolation.
func (d Detector) EffectiveContrast() float64 {
	return d.ContrastThreshold / float64(d.LevelsPerOctave)
}

// Validate checks the matcher options.
func (m Matcher) Validate() error {
	switch {
	case m.RatioThreshold < 0 || m.RatioThreshold >= 1:
		return invalid("ratio_threshold must be in [0,1), got %g", m.RatioThreshold)
	case m.MaxDistance < 0:
		return invalid("max_distance must be >= 0, got %g", m.MaxDistance)
	case m.TopN < 0:
		return invalid("top_n must be >= 0, got %d", m.TopN)
	}
	switch m.Kind {
	case MatcherBrute, MatcherHNSW:
	default:
		return invalid("unknown matcher kind %q", m.Kind)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
