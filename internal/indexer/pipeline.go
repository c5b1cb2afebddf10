package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hameedlatif/hospital-assistant/internal/embedding"
	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// DefaultBatchSize bounds one embedding request. The knowledge base is a few
// hundred entries, so batching mostly guards against provider payload limits.
const DefaultBatchSize = 64

// Artifacts names the files a build writes.
type Artifacts struct {
	EntriesPath string
	IndexPath   string
}

// Result of a completed build, kept in memory so callers can push the same
// data to secondary backends or print statistics.
type Result struct {
	Store *knowledge.Store
	Index *knowledge.FlatIndex
}

// Pipeline turns scraped hospital data into the serving artifacts: the entry
// store and the vector index.
type Pipeline struct {
	embedder  embedding.Model
	batchSize int
	log       *logger.Logger
}

// NewPipeline creates a Pipeline. A zero batchSize selects the default.
func NewPipeline(embedder embedding.Model, batchSize int, log *logger.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		embedder:  embedder,
		batchSize: batchSize,
		log:       log,
	}
}

// Build flattens the hospital data into entries, embeds every entry text,
// and writes the entries and index artifacts.
func (p *Pipeline) Build(ctx context.Context, data *HospitalData, metric string, arts Artifacts) (*Result, error) {
	entries := FormatEntries(data)
	if len(entries) == 0 {
		return nil, fmt.Errorf("hospital data contains no indexable entries")
	}
	p.log.Info(fmt.Sprintf("Formatted %d entries from hospital data", len(entries)))

	texts := make([]string, len(entries))
	for i := range entries {
		texts[i] = entries[i].Text
	}

	vectors, err := p.embedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i := range entries {
		entries[i].Vector = vectors[i]
		ids[i] = entries[i].ID
	}

	store, err := knowledge.NewStore(entries)
	if err != nil {
		return nil, err
	}
	index, err := knowledge.BuildFlatIndex(metric, ids, vectors)
	if err != nil {
		return nil, err
	}

	// Write both artifacts concurrently.
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error { return store.Save(arts.EntriesPath) })
	eg.Go(func() error { return index.Save(arts.IndexPath) })
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p.log.WithPayload(map[string]interface{}{
		"entries":   store.Len(),
		"dimension": index.Dimension(),
		"metric":    index.Metric(),
	}).Info("Wrote knowledge base artifacts")

	return &Result{Store: store, Index: index}, nil
}

// embedTexts embeds the texts batch by batch, retrying transient provider
// failures with exponential backoff.
func (p *Pipeline) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += p.batchSize {
		end := min(i+p.batchSize, len(texts))
		batch := texts[i:end]

		var vectors [][]float32
		operation := func() error {
			out, err := p.embedder.EmbedBatch(ctx, batch)
			if err != nil {
				return err
			}
			if len(out) != len(batch) {
				return backoff.Permanent(fmt.Errorf("provider returned %d vectors for %d texts", len(out), len(batch)))
			}
			vectors = out
			return nil
		}

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 10 * time.Second
		b.MaxElapsedTime = 30 * time.Second

		if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
			return nil, fmt.Errorf("embedding entries %d-%d: %w", i, end, err)
		}

		all = append(all, vectors...)
		p.log.Debug(fmt.Sprintf("Embedded %d/%d entry texts", end, len(texts)))
	}

	return all, nil
}
