package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/descriptor"
	"github.com/ironsheep/siftkit/internal/detection"
	"github.com/ironsheep/siftkit/internal/imaging"
	"github.com/ironsheep/siftkit/internal/pipeline"
)

var errFeatureSetNotFound = errors.New("feature set not found")

// featureSet is a detection result addressable by ID across tool calls.
// Descriptors are kept in their 8-bit form.
type featureSet struct {
	ID       string
	Path     string
	Region   *imaging.Region
	Detector config.Detector
	Created  time.Time

	Width       int
	Height      int
	Keypoints   []detection.Keypoint
	Descriptors []descriptor.Quantized

	// Stats are computed from the full-precision descriptors at detection time.
	Stats pipeline.Stats
}

func newFeatureSet(path string, region *imaging.Region, det config.Detector, f *pipeline.Features) *featureSet {
	return &featureSet{
		Path:        path,
		Region:      region,
		Detector:    det,
		Created:     time.Now(),
		Width:       f.Width,
		Height:      f.Height,
		Keypoints:   f.Keypoints,
		Descriptors: f.Quantized(),
		Stats:       pipeline.Summarize(f),
	}
}

func (set *featureSet) len() int {
	return len(set.Keypoints)
}

// descriptors restores float descriptors for matching.
func (set *featureSet) descriptors() []descriptor.Descriptor {
	out := make([]descriptor.Descriptor, len(set.Descriptors))
	for i, q := range set.Descriptors {
		out[i] = descriptor.Dequantize(q)
	}
	return out
}

// featureStore keeps feature sets in memory. Entries expire after the TTL
// unless they are read, which refreshes them. Expired entries are swept on
// writes and counts; the store runs no background goroutine.
type featureStore struct {
	ttl   time.Duration
	items *cache.Cache
}

func newFeatureStore(ttl time.Duration) *featureStore {
	return &featureStore{
		ttl:   ttl,
		items: cache.New(ttl, 0),
	}
}

func (s *featureStore) put(set *featureSet) string {
	s.items.DeleteExpired()
	set.ID = uuid.NewString()
	s.items.Set(set.ID, set, cache.DefaultExpiration)
	return set.ID
}

func (s *featureStore) get(id string) (*featureSet, error) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errFeatureSetNotFound, id)
	}
	set := v.(*featureSet)
	s.items.Set(id, set, cache.DefaultExpiration)
	return set, nil
}

func (s *featureStore) remove(id string) error {
	if _, ok := s.items.Get(id); !ok {
		return fmt.Errorf("%w: %s", errFeatureSetNotFound, id)
	}
	s.items.Delete(id)
	return nil
}

func (s *featureStore) count() int {
	s.items.DeleteExpired()
	return s.items.ItemCount()
}
