package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

// createBlobImage renders a bright isotropic Gaussian blob on black.
func createBlobImage(t *testing.T, size int, cx, cy, std float64) *imaging.Image {
	t.Helper()
	img, err := imaging.New(size, size)
	if err != nil {
		t.Fatalf("imaging.New failed: %v", err)
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			img.Set(x, y, math.Exp(-(dx*dx+dy*dy)/(2*std*std)))
		}
	}
	return img
}

func detectAll(t *testing.T, img *imaging.Image) []Keypoint {
	t.Helper()
	cfg := config.DefaultDetector()
	p, err := scalespace.Build(img, cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return Detect(p, cfg)
}

func TestDetect_Blob(t *testing.T) {
	img := createBlobImage(t, 64, 32, 32, 4)
	kps := detectAll(t, img)

	found := false
	for _, kp := range kps {
		if kp.X < 0 || kp.Y < 0 || kp.X >= 64 || kp.Y >= 64 {
			t.Errorf("keypoint out of bounds: %+v", kp)
		}
		if kp.Orientation < 0 || kp.Orientation >= 360 {
			t.Errorf("orientation out of range: %+v", kp)
		}
		if math.Hypot(kp.X-32, kp.Y-32) < 1.5 && kp.Sigma > 3 && kp.Sigma < 5.5 {
			found = true
		}
	}
	if !found {
		t.Errorf("no keypoint at the blob centre with blob-sized sigma; got %d keypoints: %+v", len(kps), kps)
	}
}

func TestDetect_NoStructure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(x, y int) float64
	}{
		{"constant", func(x, y int) float64 { return 0.5 }},
		{"vertical step edge", func(x, y int) float64 {
			if x < 32 {
				return 0
			}
			return 1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, _ := imaging.New(64, 64)
			for y := 0; y < 64; y++ {
				for x := 0; x < 64; x++ {
					img.Set(x, y, tt.setup(x, y))
				}
			}

			kps := detectAll(t, img)
			if kps == nil {
				t.Error("Detect should return an empty slice, not nil")
			}
			if len(kps) != 0 {
				t.Errorf("expected no keypoints, got %d", len(kps))
			}
		})
	}
}

func TestDetect_Deterministic(t *testing.T) {
	img := createBlobImage(t, 64, 30, 35, 3)
	a := detectAll(t, img)
	b := detectAll(t, img)

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("keypoint %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
