package scalespace

import (
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/imaging"
)

// createGradientImage returns a w x h image with a smooth diagonal ramp.
func createGradientImage(t *testing.T, w, h int) *imaging.Image {
	t.Helper()
	img, err := imaging.New(w, h)
	if err != nil {
		t.Fatalf("imaging.New failed: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, float64(x+y)/float64(w+h))
		}
	}
	return img
}

func TestLevelSigmas(t *testing.T) {
	tests := []struct {
		levels int
		base   float64
	}{
		{3, 1.6},
		{2, 1.0},
		{5, 2.0},
	}

	for _, tt := range tests {
		sigmas := LevelSigmas(tt.base, tt.levels)
		if len(sigmas) != tt.levels+3 {
			t.Fatalf("levels=%d: got %d sigmas, want %d", tt.levels, len(sigmas), tt.levels+3)
		}
		if sigmas[0] != tt.base {
			t.Errorf("levels=%d: first sigma %f, want %f", tt.levels, sigmas[0], tt.base)
		}
		if math.Abs(sigmas[tt.levels]-2*tt.base) > 1e-9 {
			t.Errorf("levels=%d: sigma at level %d is %f, want %f", tt.levels, tt.levels, sigmas[tt.levels], 2*tt.base)
		}
		wantRatio := math.Pow(2, float64(tt.levels+2)/float64(tt.levels))
		if r := sigmas[len(sigmas)-1] / sigmas[0]; math.Abs(r-wantRatio) > 1e-9 {
			t.Errorf("levels=%d: last/first ratio %f, want %f", tt.levels, r, wantRatio)
		}
		for i := 1; i < len(sigmas); i++ {
			if sigmas[i] <= sigmas[i-1] {
				t.Errorf("levels=%d: sigmas not strictly increasing at %d", tt.levels, i)
			}
		}
	}
}

func TestIncrementalSigmas(t *testing.T) {
	sigmas := LevelSigmas(1.6, 3)
	steps := incrementalSigmas(sigmas)

	// Composing Gaussians adds variances.
	total := sigmas[0] * sigmas[0]
	for i := 1; i < len(sigmas); i++ {
		total += steps[i] * steps[i]
		if math.Abs(math.Sqrt(total)-sigmas[i]) > 1e-9 {
			t.Errorf("level %d: accumulated sigma %f, want %f", i, math.Sqrt(total), sigmas[i])
		}
	}
}

func TestAutoOctaves(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{512, 512, 7},
		{640, 480, 7}, // log2(480) = 8.9
		{64, 100, 4},
		{8, 8, 1},
		{1, 1, 1},
	}
	for _, tt := range tests {
		if got := AutoOctaves(tt.w, tt.h); got != tt.want {
			t.Errorf("AutoOctaves(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestBuild_Structure(t *testing.T) {
	img := createGradientImage(t, 100, 80)
	cfg := config.DefaultDetector()
	cfg.Octaves = 3
	cfg.UpsampleBase = false

	p, err := Build(img, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(p.Octaves) != 3 {
		t.Fatalf("octaves: got %d, want 3", len(p.Octaves))
	}
	if p.Width != 100 || p.Height != 80 {
		t.Errorf("input size: got %dx%d", p.Width, p.Height)
	}

	wantSizes := [][2]int{{100, 80}, {50, 40}, {25, 20}}
	for o, oct := range p.Octaves {
		if oct.Index != o {
			t.Errorf("octave %d: Index %d", o, oct.Index)
		}
		if oct.Scale != math.Ldexp(1, o) {
			t.Errorf("octave %d: Scale %f, want %f", o, oct.Scale, math.Ldexp(1, o))
		}
		if len(oct.Gaussians) != cfg.LevelsPerOctave+3 {
			t.Errorf("octave %d: %d gaussians, want %d", o, len(oct.Gaussians), cfg.LevelsPerOctave+3)
		}
		if len(oct.DoG) != cfg.LevelsPerOctave+2 {
			t.Errorf("octave %d: %d DoG layers, want %d", o, len(oct.DoG), cfg.LevelsPerOctave+2)
		}
		if oct.Width() != wantSizes[o][0] || oct.Height() != wantSizes[o][1] {
			t.Errorf("octave %d: size %dx%d, want %dx%d", o, oct.Width(), oct.Height(), wantSizes[o][0], wantSizes[o][1])
		}
		for _, g := range oct.Gaussians {
			if g.Width != oct.Width() || g.Height != oct.Height() {
				t.Errorf("octave %d: gaussian size mismatch", o)
			}
		}
	}
}

func TestBuild_DoGIsDifference(t *testing.T) {
	img := createGradientImage(t, 40, 40)
	img.Set(20, 20, 1)
	cfg := config.DefaultDetector()
	cfg.Octaves = 1

	p, err := Build(img, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	oct := p.Octaves[0]
	for i, d := range oct.DoG {
		for j := range d.Pix {
			want := oct.Gaussians[i+1].Pix[j] - oct.Gaussians[i].Pix[j]
			if d.Pix[j] != want {
				t.Fatalf("DoG[%d] sample %d: got %f, want %f", i, j, d.Pix[j], want)
			}
		}
	}
}

func TestBuild_NextOctaveBase(t *testing.T) {
	img := createGradientImage(t, 64, 64)
	cfg := config.DefaultDetector()
	cfg.Octaves = 2

	p, err := Build(img, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	src := p.Octaves[0].Gaussians[cfg.LevelsPerOctave]
	next := p.Octaves[1].Gaussians[0]
	for y := 0; y < next.Height; y++ {
		for x := 0; x < next.Width; x++ {
			if next.At(x, y) != src.At(2*x, 2*y) {
				t.Fatalf("(%d,%d): octave 1 base does not decimate octave 0 level %d", x, y, cfg.LevelsPerOctave)
			}
		}
	}
}

func TestBuild_StopsAtMinimumSize(t *testing.T) {
	img := createGradientImage(t, 40, 40)
	cfg := config.DefaultDetector()
	cfg.Octaves = 10
	cfg.UpsampleBase = false

	p, err := Build(img, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 40 -> 20 -> 10; 10 is below the minimum.
	if len(p.Octaves) != 2 {
		t.Errorf("octaves: got %d, want 2", len(p.Octaves))
	}
}

func TestBuild_Upsample(t *testing.T) {
	img := createGradientImage(t, 32, 24)
	cfg := config.DefaultDetector()

	p, err := Build(img, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !p.Upsampled {
		t.Error("Upsampled flag not set")
	}
	first := p.Octaves[0]
	if first.Width() != 64 || first.Height() != 48 {
		t.Errorf("upsampled base: got %dx%d, want 64x48", first.Width(), first.Height())
	}
	if first.Scale != 0.5 {
		t.Errorf("upsampled scale: got %f, want 0.5", first.Scale)
	}
	// AutoOctaves(64, 48) = 4, but heights run 48 -> 24 -> 12 and 12 is below the minimum.
	if len(p.Octaves) != 2 {
		t.Errorf("octaves: got %d, want 2", len(p.Octaves))
	}
}

func TestBuild_Errors(t *testing.T) {
	cfg := config.DefaultDetector()

	if _, err := Build(nil, cfg); !errors.Is(err, imaging.ErrInvalidInput) {
		t.Errorf("nil image: expected ErrInvalidInput, got %v", err)
	}
	if _, err := Build(&imaging.Image{}, cfg); !errors.Is(err, imaging.ErrInvalidInput) {
		t.Errorf("empty image: expected ErrInvalidInput, got %v", err)
	}

	img := createGradientImage(t, 20, 20)
	bad := []func(*config.Detector){
		func(d *config.Detector) { d.LevelsPerOctave = 0 },
		func(d *config.Detector) { d.BaseSigma = -1 },
		func(d *config.Detector) { d.Octaves = -2 },
	}
	for i, mutate := range bad {
		c := config.DefaultDetector()
		mutate(&c)
		if _, err := Build(img, c); !errors.Is(err, config.ErrInvalidConfiguration) {
			t.Errorf("case %d: expected ErrInvalidConfiguration, got %v", i, err)
		}
	}
}

func TestDifferenceOfGaussians_Errors(t *testing.T) {
	a, _ := imaging.New(4, 4)
	b, _ := imaging.New(3, 4)

	if _, err := DifferenceOfGaussians([]*imaging.Image{a}); !errors.Is(err, imaging.ErrInvalidInput) {
		t.Errorf("single image: expected ErrInvalidInput, got %v", err)
	}
	if _, err := DifferenceOfGaussians([]*imaging.Image{a, b}); !errors.Is(err, imaging.ErrInvalidInput) {
		t.Errorf("size mismatch: expected ErrInvalidInput, got %v", err)
	}
}
