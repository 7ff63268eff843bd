package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// SIFTKIT_DETECTOR_CONTRAST_THRESHOLD=0.01.
const EnvPrefix = "SIFTKIT"

// setDefaults registers every key so that AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("workers", d.Workers)

	v.SetDefault("detector.octaves", d.Detector.Octaves)
	v.SetDefault("detector.levels_per_octave", d.Detector.LevelsPerOctave)
	v.SetDefault("detector.base_sigma", d.Detector.BaseSigma)
	v.SetDefault("detector.contrast_threshold", d.Detector.ContrastThreshold)
	v.SetDefault("detector.edge_threshold", d.Detector.EdgeThreshold)
	v.SetDefault("detector.assumed_blur", d.Detector.AssumedBlur)
	v.SetDefault("detector.upsample_base", d.Detector.UpsampleBase)
	v.SetDefault("detector.max_features", d.Detector.MaxFeatures)
	v.SetDefault("detector.descriptor_clamp", d.Detector.DescriptorClamp)
	v.SetDefault("detector.gray_model", d.Detector.GrayModel)
	v.SetDefault("detector.max_dimension", d.Detector.MaxDimension)

	v.SetDefault("matcher.cross_check", d.Matcher.CrossCheck)
	v.SetDefault("matcher.ratio_threshold", d.Matcher.RatioThreshold)
	v.SetDefault("matcher.max_distance", d.Matcher.MaxDistance)
	v.SetDefault("matcher.top_n", d.Matcher.TopN)
	v.SetDefault("matcher.kind", d.Matcher.Kind)
}

// Load builds a Config from defaults, an optional YAML file, SIFTKIT_*
// environment variables and explicit overrides, in increasing precedence.
//
// Parameters:
//   - path: YAML file to read. Empty skips the file.
//   - overrides: dotted keys (e.g. "detector.octaves") set last, typically
//     from command-line flags the user changed.
//
// The result is validated before it is returned.
func Load(path string, overrides map[string]interface{}) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return out, nil
}
