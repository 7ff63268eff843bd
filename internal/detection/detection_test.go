package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

// createLayers returns n zero-filled images of the same size.
func createLayers(t *testing.T, n, size int) []*imaging.Image {
	t.Helper()
	layers := make([]*imaging.Image, n)
	for i := range layers {
		img, err := imaging.New(size, size)
		if err != nil {
			t.Fatalf("imaging.New failed: %v", err)
		}
		layers[i] = img
	}
	return layers
}

// singleOctave wraps DoG layers (levels=1) in a pyramid with unit scale.
func singleOctave(size int, dog, gaussians []*imaging.Image) *scalespace.Pyramid {
	return &scalespace.Pyramid{
		Octaves:   []scalespace.Octave{{Index: 0, Scale: 1, Gaussians: gaussians, DoG: dog}},
		Levels:    1,
		BaseSigma: 1.6,
		Width:     size,
		Height:    size,
	}
}

// quadraticPyramid fills three DoG layers with
// D(x, y, s) = peak - k*((x-x0)^2 + aspect*(y-y0)^2 + (s-s0)^2).
func quadraticPyramid(t *testing.T, size int, peak, x0, y0, s0, aspect float64) *scalespace.Pyramid {
	t.Helper()
	const k = 0.01
	dog := createLayers(t, 3, size)
	for s, layer := range dog {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				fx, fy, fs := float64(x)-x0, float64(y)-y0, float64(s)-s0
				layer.Set(x, y, peak-k*(fx*fx+aspect*fy*fy+fs*fs))
			}
		}
	}
	return singleOctave(size, dog, nil)
}

func levelOneConfig() config.Detector {
	cfg := config.DefaultDetector()
	cfg.LevelsPerOctave = 1
	return cfg
}

func TestFindCandidates(t *testing.T) {
	const size = 21

	tests := []struct {
		name  string
		setup func(dog []*imaging.Image)
		want  []Candidate
	}{
		{
			name:  "maximum",
			setup: func(dog []*imaging.Image) { dog[1].Set(10, 10, 0.5) },
			want:  []Candidate{{Octave: 0, Layer: 1, Row: 10, Col: 10}},
		},
		{
			name:  "minimum",
			setup: func(dog []*imaging.Image) { dog[1].Set(7, 12, -0.5) },
			want:  []Candidate{{Octave: 0, Layer: 1, Row: 12, Col: 7}},
		},
		{
			name: "plateau is not strict",
			setup: func(dog []*imaging.Image) {
				dog[1].Set(10, 10, 0.5)
				dog[1].Set(11, 10, 0.5)
			},
		},
		{
			name: "tie with adjacent layer",
			setup: func(dog []*imaging.Image) {
				dog[1].Set(10, 10, 0.5)
				dog[0].Set(10, 10, 0.5)
			},
		},
		{
			name:  "inside border",
			setup: func(dog []*imaging.Image) { dog[1].Set(3, 3, 0.5) },
		},
		{
			name:  "below pre-threshold",
			setup: func(dog []*imaging.Image) { dog[1].Set(10, 10, 0.01) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dog := createLayers(t, 3, size)
			tt.setup(dog)
			p := singleOctave(size, dog, nil)

			got := FindCandidates(p, levelOneConfig(), 0, 1)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates %v, want %v", len(got), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindCandidates_OutOfRangeLayer(t *testing.T) {
	dog := createLayers(t, 3, 21)
	dog[0].Set(10, 10, 0.5)
	p := singleOctave(21, dog, nil)

	if got := FindCandidates(p, levelOneConfig(), 0, 0); got != nil {
		t.Errorf("layer 0 is not interior, got %v", got)
	}
	if got := FindCandidates(p, levelOneConfig(), 1, 1); got != nil {
		t.Errorf("octave 1 does not exist, got %v", got)
	}
}

func TestLocalize(t *testing.T) {
	const (
		x0, y0, s0 = 10.3, 9.8, 1.2
		peak       = 0.5
	)
	wantSigma := 1.6 * math.Pow(2, s0)

	tests := []struct {
		name      string
		candidate Candidate
	}{
		{"converges in one step", Candidate{Layer: 1, Row: 10, Col: 10}},
		{"re-centres once", Candidate{Layer: 1, Row: 10, Col: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := quadraticPyramid(t, 21, peak, x0, y0, s0, 1)
			kp, ok := Localize(p, levelOneConfig(), tt.candidate)
			if !ok {
				t.Fatal("candidate was rejected")
			}
			if math.Abs(kp.X-x0) > 1e-9 || math.Abs(kp.Y-y0) > 1e-9 {
				t.Errorf("position: got (%f, %f), want (%f, %f)", kp.X, kp.Y, x0, y0)
			}
			if math.Abs(kp.LayerOffset-0.2) > 1e-9 {
				t.Errorf("layer offset: got %f, want 0.2", kp.LayerOffset)
			}
			if math.Abs(kp.Sigma-wantSigma) > 1e-9 || kp.Sigma != kp.OctaveSigma {
				t.Errorf("sigma: got %f (octave %f), want %f", kp.Sigma, kp.OctaveSigma, wantSigma)
			}
			if math.Abs(kp.Response-peak) > 1e-9 {
				t.Errorf("response: got %f, want %f", kp.Response, peak)
			}
			if kp.Layer != 1 || kp.Octave != 0 {
				t.Errorf("octave/layer: got %d/%d", kp.Octave, kp.Layer)
			}
		})
	}
}

func TestLocalize_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		peak      float64
		x0        float64
		aspect    float64
		candidate Candidate
	}{
		{"low contrast", 0.01, 10.2, 1, Candidate{Layer: 1, Row: 10, Col: 10}},
		{"edge response", 0.5, 10.2, 0.01, Candidate{Layer: 1, Row: 10, Col: 10}},
		{"drifts into border", 0.5, 2, 1, Candidate{Layer: 1, Row: 10, Col: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := quadraticPyramid(t, 21, tt.peak, tt.x0, 10, 1, tt.aspect)
			if kp, ok := Localize(p, levelOneConfig(), tt.candidate); ok {
				t.Errorf("expected rejection, got %+v", kp)
			}
		})
	}
}

func TestLocalize_SingularHessian(t *testing.T) {
	// A DoG that only varies along x has a singular Hessian.
	dog := createLayers(t, 3, 21)
	for _, layer := range dog {
		for y := 0; y < 21; y++ {
			for x := 0; x < 21; x++ {
				fx := float64(x) - 10
				layer.Set(x, y, 0.5-0.01*fx*fx)
			}
		}
	}
	p := singleOctave(21, dog, nil)

	if _, ok := Localize(p, levelOneConfig(), Candidate{Layer: 1, Row: 10, Col: 10}); ok {
		t.Error("expected rejection for singular Hessian")
	}
}

func TestIsEdge(t *testing.T) {
	tests := []struct {
		name string
		d    derivatives
		want bool
	}{
		{"isotropic blob", derivatives{dxx: -1, dyy: -1}, false},
		{"saddle", derivatives{dxx: -1, dyy: 1}, true},
		{"elongated", derivatives{dxx: -1, dyy: -0.05}, true},
		{"moderate", derivatives{dxx: -1, dyy: -0.5}, false},
		// Curvature ratio 10: tr²·r == (r+1)²·det exactly.
		{"ratio at bound", derivatives{dxx: -10, dyy: -1}, false},
		{"ratio past bound", derivatives{dxx: -11, dyy: -1}, true},
	}
	for _, tt := range tests {
		if got := isEdge(tt.d, 10); got != tt.want {
			t.Errorf("%s: isEdge = %v, want %v", tt.name, got, tt.want)
		}
	}
}
