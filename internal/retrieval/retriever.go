package retrieval

import (
	"context"
	"fmt"
	"math"

	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// Defaults applied when the configuration leaves a knob unset.
const (
	DefaultTopK     = 5
	DefaultMinScore = 0.25
)

// Result pairs a knowledge entry with its similarity score.
type Result struct {
	Entry *knowledge.Entry
	Score float64
}

// Retriever runs similarity search over the vector index and joins the
// matches back to their entries.
type Retriever struct {
	index    knowledge.Index
	store    *knowledge.Store
	topK     int
	minScore float64
	log      *logger.Logger
}

// NewRetriever creates a Retriever. Zero values for topK and minScore select
// the defaults; a negative minScore disables the threshold entirely.
func NewRetriever(index knowledge.Index, store *knowledge.Store, topK int, minScore float64, log *logger.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore == 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{
		index:    index,
		store:    store,
		topK:     topK,
		minScore: minScore,
		log:      log,
	}
}

// Retrieve returns the entries most similar to the query vector, sorted by
// descending score, with everything below the threshold dropped. An empty
// result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32) ([]Result, error) {
	matches, err := r.index.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		if len(results) >= r.topK {
			break
		}
		score := roundScore(m.Score)
		if score < r.minScore {
			continue
		}
		entry, ok := r.store.Get(m.ID)
		if !ok {
			return nil, fmt.Errorf("index returned id '%s' that is missing from the entry store", m.ID)
		}
		results = append(results, Result{Entry: entry, Score: score})
	}

	r.log.Debug(fmt.Sprintf("Retrieved %d of %d candidates above threshold %.2f", len(results), len(matches), r.minScore))
	return results, nil
}

// roundScore trims scores to three decimals, the precision surfaced to the
// model and in API responses.
func roundScore(s float64) float64 {
	return math.Round(s*1000) / 1000
}
