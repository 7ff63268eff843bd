package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/siftkit/internal/config"
	"github.com/ironsheep/siftkit/internal/descriptor"
)

// ErrDimensionMismatch is returned (wrapped) when a descriptor does not
// have descriptor.Length components.
var ErrDimensionMismatch = errors.New("descriptor dimension mismatch")

// Match pairs descriptor IndexA of the first set with IndexB of the second.
type Match struct {
	IndexA   int     `json:"index_a" yaml:"index_a"`
	IndexB   int     `json:"index_b" yaml:"index_b"`
	Distance float64 `json:"distance" yaml:"distance"`
}

// neighbour is the best and second-best hit of one query row.
type neighbour struct {
	index  int
	best   float64
	second float64
}

// Matcher matches descriptor sets according to a config.Matcher. It holds
// no mutable state and may be shared between goroutines.
type Matcher struct {
	cfg     config.Matcher
	workers int
}

// NewMatcher validates cfg and returns a matcher that uses up to workers
// goroutines per call (at least one).
func NewMatcher(cfg config.Matcher, workers int) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &Matcher{cfg: cfg, workers: workers}, nil
}

// Match finds, for every descriptor of a, its nearest neighbour in b and
// filters the pairs according to the configuration.
//
// With cross-checking enabled, the a->b and b->a nearest-neighbour tables
// are computed concurrently and a pair is kept only when each side is the
// other's nearest neighbour. When several candidates are equally close, the
// lowest index wins.
//
// An empty a or b yields an empty result. Any descriptor whose length is
// not descriptor.Length yields ErrDimensionMismatch.
func (m *Matcher) Match(ctx context.Context, a, b []descriptor.Descriptor) ([]Match, error) {
	if err := checkDimensions("first", a); err != nil {
		return nil, err
	}
	if err := checkDimensions("second", b); err != nil {
		return nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return []Match{}, nil
	}

	search := m.bruteForce
	if m.cfg.Kind == config.MatcherHNSW {
		search = m.approximate
	}

	var forward, backward []neighbour
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forward, err = search(gctx, a, b)
		return err
	})
	if m.cfg.CrossCheck {
		g.Go(func() error {
			var err error
			backward, err = search(gctx, b, a)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(a))
	for i, nn := range forward {
		if nn.index < 0 {
			continue
		}
		if m.cfg.CrossCheck && backward[nn.index].index != i {
			continue
		}
		if m.cfg.RatioThreshold > 0 && !math.IsInf(nn.second, 1) && !(nn.best < m.cfg.RatioThreshold*nn.second) {
			continue
		}
		if m.cfg.MaxDistance > 0 && nn.best > m.cfg.MaxDistance {
			continue
		}
		matches = append(matches, Match{IndexA: i, IndexB: nn.index, Distance: nn.best})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if m.cfg.TopN > 0 && len(matches) > m.cfg.TopN {
		matches = matches[:m.cfg.TopN]
	}
	return matches, nil
}

// bruteForce computes the exact nearest-neighbour table of queries against
// train, one task per query row.
func (m *Matcher) bruteForce(ctx context.Context, queries, train []descriptor.Descriptor) ([]neighbour, error) {
	table := make([]neighbour, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table[i] = nearest(queries[i], train)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// approximate computes the nearest-neighbour table through an HNSW index.
func (m *Matcher) approximate(ctx context.Context, queries, train []descriptor.Descriptor) ([]neighbour, error) {
	idx, err := NewIndex(train)
	if err != nil {
		return nil, err
	}
	table := make([]neighbour, len(queries))
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits := idx.Search(q, 2)
		nn := neighbour{index: -1, best: math.Inf(1), second: math.Inf(1)}
		if len(hits) > 0 {
			nn.index, nn.best = hits[0].Index, hits[0].Distance
		}
		if len(hits) > 1 {
			nn.second = hits[1].Distance
		}
		table[i] = nn
	}
	return table, nil
}

// nearest scans train in ascending index order. Only a strictly smaller
// distance replaces the current best.
func nearest(q descriptor.Descriptor, train []descriptor.Descriptor) neighbour {
	nn := neighbour{index: -1, best: math.Inf(1), second: math.Inf(1)}
	for j, t := range train {
		d := squaredDistance(q, t)
		switch {
		case d < nn.best:
			nn.second = nn.best
			nn.best = d
			nn.index = j
		case d < nn.second:
			nn.second = d
		}
	}
	nn.best = math.Sqrt(nn.best)
	nn.second = math.Sqrt(nn.second)
	return nn
}

func squaredDistance(a, b descriptor.Descriptor) float64 {
	var sum float64
	for k := range a {
		d := float64(a[k]) - float64(b[k])
		sum += d * d
	}
	return sum
}

// Distance returns the Euclidean distance between two descriptors of equal
// length.
func Distance(a, b descriptor.Descriptor) float64 {
	return math.Sqrt(squaredDistance(a, b))
}

func checkDimensions(set string, ds []descriptor.Descriptor) error {
	for i, d := range ds {
		if len(d) != descriptor.Length {
			return fmt.Errorf("%w: %s set descriptor %d has %d components, want %d",
				ErrDimensionMismatch, set, i, len(d), descriptor.Length)
		}
	}
	return nil
}
