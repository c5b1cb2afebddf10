package knowledge

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

// Milvus collection schema fields.
const (
	FieldID        = "id"
	FieldKind      = "kind"
	FieldEmbedding = "embedding"
)

// MilvusIndex serves similarity search from a Milvus collection, for
// deployments where the knowledge base outgrows the in-process flat scan.
type MilvusIndex struct {
	log        *logger.Logger
	client     client.Client
	collection string
	dimension  int
	metric     entity.MetricType
}

// NewMilvusIndex connects to Milvus and loads the configured collection.
func NewMilvusIndex(ctx context.Context, cfg config.MilvusConfig, dimension int, metric string, log *logger.Logger) (*MilvusIndex, error) {
	metricType, err := milvusMetric(metric)
	if err != nil {
		return nil, err
	}

	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus at '%s': %w", cfg.Address, err)
	}

	return &MilvusIndex{
		log:        log,
		client:     c,
		collection: cfg.CollectionName,
		dimension:  dimension,
		metric:     metricType,
	}, nil
}

// EnsureCollection creates the collection and its vector index if missing,
// then loads it into memory for search.
func (ix *MilvusIndex) EnsureCollection(ctx context.Context) error {
	exists, err := ix.client.HasCollection(ctx, ix.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", ix.collection, err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(ix.collection).
			WithDescription("Hospital knowledge base vectors").
			WithField(entity.NewField().WithName(FieldID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(FieldKind).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(32)).
			WithField(entity.NewField().WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).WithDim(int64(ix.dimension)))

		if err := ix.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection '%s': %w", ix.collection, err)
		}

		idx, err := entity.NewIndexIvfFlat(ix.metric, 128)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := ix.client.CreateIndex(ctx, ix.collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on '%s': %w", FieldEmbedding, err)
		}
		ix.log.Info(fmt.Sprintf("Created Milvus collection '%s' (dim=%d, metric=%s)", ix.collection, ix.dimension, ix.metric))
	}

	if err := ix.client.LoadCollection(ctx, ix.collection, false); err != nil {
		return fmt.Errorf("failed to load collection '%s': %w", ix.collection, err)
	}
	return nil
}

// InsertEntries upserts knowledge entries and their vectors into the
// collection, then flushes so the data is searchable.
func (ix *MilvusIndex) InsertEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	kinds := make([]string, len(entries))
	vectors := make([][]float32, len(entries))
	for i := range entries {
		if len(entries[i].Vector) != ix.dimension {
			return fmt.Errorf("entry '%s' has vector dimension %d, collection expects %d",
				entries[i].ID, len(entries[i].Vector), ix.dimension)
		}
		ids[i] = entries[i].ID
		kinds[i] = string(entries[i].Kind)
		vectors[i] = entries[i].Vector
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	kindCol := entity.NewColumnVarChar(FieldKind, kinds)
	vectorCol := entity.NewColumnFloatVector(FieldEmbedding, ix.dimension, vectors)

	ix.log.Info(fmt.Sprintf("Inserting %d entries into Milvus collection '%s'", len(entries), ix.collection))
	if _, err := ix.client.Insert(ctx, ix.collection, "" /* default partition */, idCol, kindCol, vectorCol); err != nil {
		return fmt.Errorf("failed to insert entries into Milvus: %w", err)
	}
	if err := ix.client.Flush(ctx, ix.collection, false); err != nil {
		return fmt.Errorf("failed to flush collection '%s': %w", ix.collection, err)
	}
	return nil
}

// Search runs a vector similarity search against the collection.
func (ix *MilvusIndex) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, collection expects %d", len(vector), ix.dimension)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	results, err := ix.client.Search(
		ctx, ix.collection, []string{}, "", []string{FieldID},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldEmbedding, ix.metric, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search Milvus collection '%s': %w", ix.collection, err)
	}

	var matches []Match
	for _, res := range results {
		var idCol *entity.ColumnVarChar
		for _, field := range res.Fields {
			if field.Name() == FieldID {
				idCol, _ = field.(*entity.ColumnVarChar)
			}
		}
		if idCol == nil {
			ix.log.Warn("Milvus search result is missing the id field, skipping.")
			continue
		}
		idData := idCol.Data()

		for i := 0; i < res.ResultCount && i < len(idData); i++ {
			matches = append(matches, Match{
				ID:    idData[i],
				Score: ix.score(res.Scores[i]),
			})
		}
	}

	return matches, nil
}

// Dimension returns the vector dimension the collection expects.
func (ix *MilvusIndex) Dimension() int {
	return ix.dimension
}

// Close releases the Milvus connection.
func (ix *MilvusIndex) Close() {
	if ix.client != nil {
		ix.client.Close()
	}
}

// score converts what Milvus reports into the descending similarity scale
// the rest of the pipeline works with. L2 reports a squared distance where
// smaller is better; cosine is already a similarity.
func (ix *MilvusIndex) score(raw float32) float64 {
	if ix.metric == entity.L2 {
		return 1.0 / (1.0 + float64(raw))
	}
	return float64(raw)
}

func milvusMetric(metric string) (entity.MetricType, error) {
	switch metric {
	case MetricL2:
		return entity.L2, nil
	case MetricCosine, "":
		return entity.COSINE, nil
	default:
		return "", fmt.Errorf("unsupported metric '%s'", metric)
	}
}

var _ Index = (*MilvusIndex)(nil)
