package recognize

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// indexMaxNeighbors (M) is the maximum number of neighbors per HNSW node.
const indexMaxNeighbors = 16

// Neighbor is one gallery image returned by an index search.
type Neighbor struct {
	PersonID  string  `json:"person_id"`
	ImagePath string  `json:"image_path"`
	Distance  float64 `json:"distance"`
}

// Index is an HNSW nearest-neighbor index over all gallery embeddings. It
// backs diagnostics (lookalike queries, enrollment sanity checks); the
// recognition hot path uses per-person averaging instead.
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[int64]
	entries map[int64]GalleryEmbedding
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[int64]GalleryEmbedding)}
}

// Build replaces the index contents with the given gallery embeddings.
func (idx *Index) Build(embeddings []GalleryEmbedding) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(embeddings) == 0 {
		idx.graph = nil
		idx.entries = make(map[int64]GalleryEmbedding)
		return
	}

	g := hnsw.NewGraph[int64]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	entries := make(map[int64]GalleryEmbedding, len(embeddings))
	var id int64
	for _, e := range embeddings {
		if len(e.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(id, e.Embedding))
		entries[id] = e
		id++
	}

	idx.graph = g
	idx.entries = entries
}

// Size returns the number of indexed gallery images.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Nearest finds the k gallery images closest to the query embedding.
func (idx *Index) Nearest(query []float32, k int) ([]Neighbor, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil, errors.New("index not initialized")
	}
	if k <= 0 {
		k = 1
	}

	nodes := idx.graph.Search(query, k)

	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		entry, ok := idx.entries[n.Key]
		if !ok {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			PersonID:  entry.PersonID,
			ImagePath: entry.ImagePath,
			Distance:  CosineDistance(query, n.Value),
		})
	}

	return neighbors, nil
}
