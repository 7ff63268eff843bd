package matching

import (
	"math/rand"
	"sort"

	"github.com/coder/hnsw"

	"github.com/ironsheep/siftkit/internal/descriptor"
)

const (
	// indexNeighbors is the maximum number of links per graph node.
	indexNeighbors = 16

	// indexSearchWidth is the candidate list size used while inserting and
	// searching.
	indexSearchWidth = 64

	// indexSeed fixes the level assignment of inserted nodes.
	indexSeed = 0x5eed
)

// Neighbor is one search hit of an Index.
type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

// Index is an approximate nearest-neighbour index over a fixed descriptor
// set. The graph is ordered by cosine distance, which ranks unit vectors
// exactly as Euclidean distance does; reported distances are Euclidean.
//
// Node levels come from a fixed seed, but the graph library picks layer
// entry points in map order and prunes links the same way, so results on
// sets larger than indexNeighbors+1 may differ between runs. Sets up to that
// size form a complete graph and are searched exactly.
type Index struct {
	graph   *hnsw.Graph[int]
	vectors []descriptor.Descriptor
}

// NewIndex builds an index over vectors. The slice is retained, not copied.
func NewIndex(vectors []descriptor.Descriptor) (*Index, error) {
	if err := checkDimensions("indexed", vectors); err != nil {
		return nil, err
	}

	g := hnsw.NewGraph[int]()
	g.M = indexNeighbors
	g.Ml = 1.0 / float64(indexNeighbors)
	g.Distance = hnsw.CosineDistance
	g.EfSearch = indexSearchWidth
	g.Rng = rand.New(rand.NewSource(indexSeed))

	for i, v := range vectors {
		g.Add(hnsw.MakeNode(i, []float32(v)))
	}
	return &Index{graph: g, vectors: vectors}, nil
}

// Search returns up to k approximate nearest neighbours of q, sorted by
// ascending Euclidean distance and then by index.
func (x *Index) Search(q descriptor.Descriptor, k int) []Neighbor {
	if len(x.vectors) == 0 || k <= 0 {
		return nil
	}
	nodes := x.graph.Search([]float32(q), k)
	out := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Neighbor{Index: n.Key, Distance: Distance(q, x.vectors[n.Key])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Index < out[j].Index
	})
	return out
}
