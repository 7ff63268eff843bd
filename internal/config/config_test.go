package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Detector.LevelsPerOctave)
	assert.Equal(t, 1.6, cfg.Detector.BaseSigma)
	assert.Equal(t, 0.04, cfg.Detector.ContrastThreshold)
	assert.Equal(t, 10.0, cfg.Detector.EdgeThreshold)
	assert.True(t, cfg.Detector.UpsampleBase)
	assert.False(t, cfg.Matcher.CrossCheck)
	assert.Equal(t, MatcherBrute, cfg.Matcher.Kind)
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative octaves", func(c *Config) { c.Detector.Octaves = -1 }},
		{"zero levels", func(c *Config) { c.Detector.LevelsPerOctave = 0 }},
		{"negative levels", func(c *Config) { c.Detector.LevelsPerOctave = -3 }},
		{"zero sigma", func(c *Config) { c.Detector.BaseSigma = 0 }},
		{"negative sigma", func(c *Config) { c.Detector.BaseSigma = -1.6 }},
		{"zero contrast", func(c *Config) { c.Detector.ContrastThreshold = 0 }},
		{"zero edge", func(c *Config) { c.Detector.EdgeThreshold = 0 }},
		{"clamp above one", func(c *Config) { c.Detector.DescriptorClamp = 1.5 }},
		{"unknown gray model", func(c *Config) { c.Detector.GrayModel = "sepia" }},
		{"ratio of one", func(c *Config) { c.Matcher.RatioThreshold = 1 }},
		{"negative distance", func(c *Config) { c.Matcher.MaxDistance = -0.1 }},
		{"unknown kind", func(c *Config) { c.Matcher.Kind = "kdtree" }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestEffectiveContrast(t *testing.T) {
	d := DefaultDetector()
	assert.InDelta(t, 0.04/3, d.EffectiveContrast(), 1e-12)
}

func TestWorkerCount(t *testing.T) {
	cfg := Default()
	assert.Positive(t, cfg.WorkerCount())

	cfg.Workers = 3
	assert.Equal(t, 3, cfg.WorkerCount())
}

func TestLoad_FileEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "siftkit.yaml")
	doc := []byte("detector:\n  contrast_threshold: 0.01\n  edge_threshold: 5\nmatcher:\n  cross_check: true\n")
	require.NoError(t, os.WriteFile(path, doc, 0o600))

	t.Setenv("SIFTKIT_DETECTOR_BASE_SIGMA", "1.2")

	cfg, err := Load(path, map[string]interface{}{"detector.edge_threshold": 15.0})
	require.NoError(t, err)

	assert.Equal(t, 0.01, cfg.Detector.ContrastThreshold)
	assert.Equal(t, 15.0, cfg.Detector.EdgeThreshold, "override wins over file")
	assert.Equal(t, 1.2, cfg.Detector.BaseSigma, "environment wins over default")
	assert.True(t, cfg.Matcher.CrossCheck)
	assert.Equal(t, 3, cfg.Detector.LevelsPerOctave)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/siftkit.yaml", nil)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load("", map[string]interface{}{"detector.levels_per_octave": 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestMarshal_LoadsBack(t *testing.T) {
	cfg := Default()
	cfg.Detector.Octaves = 4
	cfg.Detector.UpsampleBase = false
	cfg.Matcher.Kind = MatcherHNSW
	cfg.Workers = 2

	out, err := cfg.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "siftkit.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))

	again, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
