package server

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/descriptor"
	"github.com/ironsheep/siftkit/internal/detection"
	"github.com/ironsheep/siftkit/internal/pipeline"
)

func TestFeatureStore(t *testing.T) {
	store := newFeatureStore(time.Minute)
	set := newFeatureSet("a.png", nil, config.DefaultDetector(), &pipeline.Features{Width: 4, Height: 4})

	id := store.put(set)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("put returned a non-UUID id %q: %v", id, err)
	}
	if set.ID != id {
		t.Errorf("set.ID: got %q, want %q", set.ID, id)
	}
	if store.count() != 1 {
		t.Errorf("count: got %d, want 1", store.count())
	}

	got, err := store.get(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != set {
		t.Error("get returned a different feature set")
	}

	if err := store.remove(id); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.get(id); !errors.Is(err, errFeatureSetNotFound) {
		t.Errorf("get after remove: got %v, want errFeatureSetNotFound", err)
	}
	if err := store.remove(id); !errors.Is(err, errFeatureSetNotFound) {
		t.Errorf("second remove: got %v, want errFeatureSetNotFound", err)
	}
}

func TestFeatureStore_DistinctIDs(t *testing.T) {
	store := newFeatureStore(time.Minute)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.put(&featureSet{})
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	if store.count() != 100 {
		t.Errorf("count: got %d, want 100", store.count())
	}
}

func TestFeatureStore_Expiry(t *testing.T) {
	store := newFeatureStore(20 * time.Millisecond)
	id := store.put(&featureSet{})
	store.put(&featureSet{})

	time.Sleep(60 * time.Millisecond)

	if _, err := store.get(id); !errors.Is(err, errFeatureSetNotFound) {
		t.Errorf("expired get: got %v, want errFeatureSetNotFound", err)
	}
	if n := store.count(); n != 0 {
		t.Errorf("count after expiry: got %d, want 0", n)
	}
}

func TestNewFeatureSet_QuantizesDescriptors(t *testing.T) {
	d := make(descriptor.Descriptor, descriptor.Length)
	d[0], d[1] = 0.6, 0.8
	f := &pipeline.Features{
		Width:       10,
		Height:      10,
		Keypoints:   []detection.Keypoint{{X: 1, Y: 2, Sigma: 1.6, Response: 0.1}},
		Descriptors: []descriptor.Descriptor{d},
	}

	set := newFeatureSet("x.png", nil, config.DefaultDetector(), f)
	if set.len() != 1 || len(set.Descriptors) != 1 {
		t.Fatalf("got %d keypoints and %d descriptors, want 1 and 1", set.len(), len(set.Descriptors))
	}
	// 0.6*512 and 0.8*512 both saturate.
	if set.Descriptors[0][0] != 255 || set.Descriptors[0][1] != 255 || set.Descriptors[0][2] != 0 {
		t.Errorf("unexpected quantized prefix %v", set.Descriptors[0][:3])
	}
	if set.Stats.Count != 1 || set.Stats.Descriptor.Max != float64(float32(0.8)) {
		t.Errorf("stats not taken from full-precision descriptors: %+v", set.Stats)
	}

	restored := set.descriptors()
	if len(restored) != 1 || len(restored[0]) != descriptor.Length {
		t.Fatalf("restored %d descriptors", len(restored))
	}
	if math.Abs(float64(restored[0][0])-255.0/512) > 1e-6 {
		t.Errorf("restored component: got %f, want %f", restored[0][0], 255.0/512)
	}
}
