package descriptor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ironsheep/siftkit/internal/detection"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/scalespace"
)

// createTextureImage returns a smoothed pseudo-random square image.
func createTextureImage(t *testing.T, size int, seed int64) *imaging.Image {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img, err := imaging.New(size, size)
	if err != nil {
		t.Fatalf("imaging.New failed: %v", err)
	}
	for i := range img.Pix {
		img.Pix[i] = rng.Float64()
	}
	return imaging.GaussianBlur(img, 2)
}

// rotate90 rotates a square image so that (x, y) moves to (n-1-y, x).
func rotate90(img *imaging.Image) *imaging.Image {
	n := img.Width
	out, _ := imaging.New(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			out.Set(n-1-y, x, img.At(x, y))
		}
	}
	return out
}

func distance(a, b Descriptor) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestSample_Properties(t *testing.T) {
	img := createTextureImage(t, 41, 1)

	for _, orientation := range []float64{0, 45, 137.5, 359} {
		d, ok := Sample(img, 20, 20, orientation, 2, 0.2)
		if !ok {
			t.Fatalf("orientation %.1f: no descriptor", orientation)
		}
		if len(d) != Length {
			t.Fatalf("length: got %d, want %d", len(d), Length)
		}
		for i, v := range d {
			if v < 0 {
				t.Errorf("orientation %.1f: component %d negative: %f", orientation, i, v)
			}
		}
		if math.Abs(d.Norm()-1) > 1e-5 {
			t.Errorf("orientation %.1f: norm %f, want 1", orientation, d.Norm())
		}
	}
}

func TestSample_FlatImage(t *testing.T) {
	img, _ := imaging.New(41, 41)
	if d, ok := Sample(img, 20, 20, 0, 2, 0.2); ok || d != nil {
		t.Errorf("flat image should not produce a descriptor, got %v", d)
	}
}

func TestSample_RotationInvariant(t *testing.T) {
	img := createTextureImage(t, 41, 7)
	rotated := rotate90(img)

	a, ok := Sample(img, 20, 20, 30, 2, 0.2)
	if !ok {
		t.Fatal("no descriptor on original")
	}
	b, ok := Sample(rotated, 20, 20, 120, 2, 0.2)
	if !ok {
		t.Fatal("no descriptor on rotated image")
	}

	if dist := distance(a, b); dist > 1e-3 {
		t.Errorf("descriptors of rotated images differ by %f", dist)
	}

	// A wrong orientation must give a different descriptor.
	c, _ := Sample(rotated, 20, 20, 30, 2, 0.2)
	if dist := distance(a, c); dist < 0.05 {
		t.Errorf("descriptor ignores orientation: distance %f", dist)
	}
}

func TestSample_Ramp(t *testing.T) {
	// Every gradient points along +x, so with orientation 0 only the first
	// bin of each cell can be populated.
	img, _ := imaging.New(41, 41)
	for y := 0; y < 41; y++ {
		for x := 0; x < 41; x++ {
			img.Set(x, y, float64(x)/40)
		}
	}

	d, ok := Sample(img, 20, 20, 0, 2, 0.2)
	if !ok {
		t.Fatal("no descriptor")
	}
	for i, v := range d {
		if i%Bins != 0 && v != 0 {
			t.Errorf("component %d (bin %d) = %f, want 0", i, i%Bins, v)
		}
	}
}

func TestNormalize(t *testing.T) {
	v := make([]float64, Length)
	v[0], v[1] = 3, 4

	d, ok := normalize(v, 0.2)
	if !ok {
		t.Fatal("normalize failed")
	}
	want := float32(1 / math.Sqrt2)
	if math.Abs(float64(d[0]-want)) > 1e-6 || math.Abs(float64(d[1]-want)) > 1e-6 {
		t.Errorf("clamped components: got %f, %f, want %f", d[0], d[1], want)
	}

	// Without an active clamp the direction is preserved.
	v[0], v[1] = 3, 4
	d, _ = normalize(v, 1)
	if math.Abs(float64(d[0])-0.6) > 1e-6 || math.Abs(float64(d[1])-0.8) > 1e-6 {
		t.Errorf("unclamped components: got %f, %f, want 0.6, 0.8", d[0], d[1])
	}

	if _, ok := normalize(make([]float64, Length), 0.2); ok {
		t.Error("zero vector should not normalize")
	}
}

func TestCompute_UsesKeypointOctave(t *testing.T) {
	img := createTextureImage(t, 41, 3)
	small := imaging.Downsample2x(img)
	p := &scalespace.Pyramid{
		Octaves: []scalespace.Octave{
			{Index: 0, Scale: 1, Gaussians: []*imaging.Image{img, img}},
			{Index: 1, Scale: 2, Gaussians: []*imaging.Image{small, small}},
		},
		Levels: 1,
	}

	kp := detection.Keypoint{X: 20, Y: 20, Octave: 1, Layer: 1, OctaveSigma: 1.5, Orientation: 10}
	got, ok := Compute(p, kp, 0.2)
	if !ok {
		t.Fatal("Compute failed")
	}
	want, _ := Sample(small, 10, 10, 10, 1.5, 0.2)
	if distance(got, want) != 0 {
		t.Error("Compute did not sample the keypoint's octave at octave coordinates")
	}
}
