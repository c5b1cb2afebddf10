package knowledge

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
)

// Supported similarity metrics.
const (
	MetricCosine = "cosine"
	MetricL2     = "l2"
)

// Match is a single similarity search hit.
type Match struct {
	ID    string
	Score float64
}

// Index performs similarity search over the knowledge vectors. Implementations
// must be safe for concurrent use after construction.
type Index interface {
	// Search returns up to topK matches sorted by descending score.
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// Dimension returns the vector dimension the index was built with.
	Dimension() int
}

// FlatIndex is an exact-scan vector index held fully in memory. The knowledge
// base is a few hundred entries, so a brute-force scan with precomputed norms
// answers well under a millisecond.
type FlatIndex struct {
	dimension int
	metric    string
	ids       []string
	vectors   [][]float32
	norms     []float64
}

// flatArtifact is the gob-encoded on-disk form of a FlatIndex.
type flatArtifact struct {
	Dimension int
	Metric    string
	IDs       []string
	Vectors   [][]float32
	Norms     []float64
}

// BuildFlatIndex constructs a FlatIndex from parallel id and vector slices.
func BuildFlatIndex(metric string, ids []string, vectors [][]float32) (*FlatIndex, error) {
	switch metric {
	case MetricCosine, MetricL2:
	case "":
		metric = MetricCosine
	default:
		return nil, fmt.Errorf("unsupported metric '%s'", metric)
	}
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("mismatch between number of ids (%d) and vectors (%d)", len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cannot build an index with no vectors")
	}

	dim := len(vectors[0])
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector for '%s' has dimension %d, expected %d", ids[i], len(v), dim)
		}
		norms[i] = norm(v)
	}

	return &FlatIndex{
		dimension: dim,
		metric:    metric,
		ids:       ids,
		vectors:   vectors,
		norms:     norms,
	}, nil
}

// LoadFlatIndex reads the index artifact written by Save.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file '%s': %w", path, err)
	}
	defer f.Close()

	var art flatArtifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("failed to decode index file '%s': %w", path, err)
	}
	if len(art.IDs) != len(art.Vectors) || len(art.IDs) != len(art.Norms) {
		return nil, fmt.Errorf("index file '%s' is corrupt: %d ids, %d vectors, %d norms",
			path, len(art.IDs), len(art.Vectors), len(art.Norms))
	}
	for i, v := range art.Vectors {
		if len(v) != art.Dimension {
			return nil, fmt.Errorf("index file '%s' is corrupt: vector for '%s' has dimension %d, expected %d",
				path, art.IDs[i], len(v), art.Dimension)
		}
	}

	return &FlatIndex{
		dimension: art.Dimension,
		metric:    art.Metric,
		ids:       art.IDs,
		vectors:   art.Vectors,
		norms:     art.Norms,
	}, nil
}

// Save writes the index artifact to disk.
func (ix *FlatIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index file '%s': %w", path, err)
	}
	defer f.Close()

	art := flatArtifact{
		Dimension: ix.dimension,
		Metric:    ix.metric,
		IDs:       ix.ids,
		Vectors:   ix.vectors,
		Norms:     ix.norms,
	}
	if err := gob.NewEncoder(f).Encode(&art); err != nil {
		return fmt.Errorf("failed to encode index file '%s': %w", path, err)
	}
	return nil
}

// Search scans every vector and returns the topK best matches in descending
// score order. Ties keep insertion order.
func (ix *FlatIndex) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, index expects %d", len(vector), ix.dimension)
	}
	if topK <= 0 || topK > len(ix.ids) {
		topK = len(ix.ids)
	}

	queryNorm := norm(vector)
	matches := make([]Match, len(ix.ids))
	for i := range ix.ids {
		var score float64
		switch ix.metric {
		case MetricL2:
			score = 1.0 / (1.0 + l2Distance(vector, ix.vectors[i]))
		default:
			score = cosine(vector, ix.vectors[i], queryNorm, ix.norms[i])
		}
		matches[i] = Match{ID: ix.ids[i], Score: score}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	return matches[:topK], nil
}

// Dimension returns the vector dimension the index was built with.
func (ix *FlatIndex) Dimension() int {
	return ix.dimension
}

// Metric returns the similarity metric the index was built with.
func (ix *FlatIndex) Metric() string {
	return ix.metric
}

// Len returns the number of indexed vectors.
func (ix *FlatIndex) Len() int {
	return len(ix.ids)
}

// Verify checks that the index and the entry store describe the same
// knowledge base.
func (ix *FlatIndex) Verify(store *Store) error {
	if ix.Len() != store.Len() {
		return fmt.Errorf("index has %d vectors but store has %d entries", ix.Len(), store.Len())
	}
	for _, id := range ix.ids {
		if _, ok := store.Get(id); !ok {
			return fmt.Errorf("index id '%s' is missing from the entry store", id)
		}
	}
	return nil
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// l2Distance returns the squared euclidean distance, the same quantity a
// FAISS or Milvus L2 search reports, so 1/(1+d) scores agree across backends.
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

var _ Index = (*FlatIndex)(nil)
