// Package main provides the kbindex CLI for building and inspecting the
// hospital assistant's knowledge base artifacts.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/internal/embedding"
	"github.com/hameedlatif/hospital-assistant/internal/indexer"
	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

var (
	inputPath  string
	dataDir    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "kbindex",
	Short: "Hospital knowledge base indexing tool",
	Long:  "CLI tool for building the hospital assistant's entry store and vector index from scraped hospital data.",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the knowledge base artifacts from scraped hospital data",
	Long: `Flattens the scraped hospital JSON into knowledge entries, embeds every
entry text, and writes entries.jsonl and index.gob into the data directory.

With the milvus backend configured, the vectors are also inserted into the
Milvus collection. With MinIO enabled, the artifacts are uploaded to the
bucket so service instances can fetch them at startup.`,
	RunE: runBuild,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print entry counts and index details for built artifacts",
	RunE:  runStats,
}

func init() {
	buildCmd.Flags().StringVar(&inputPath, "input", "data/hospital_data.json", "scraped hospital data JSON file")
	buildCmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory receiving the artifacts")
	buildCmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "configuration file")
	statsCmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory holding the artifacts")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("kbindex", "")

	fmt.Printf("Loading hospital data from %s...\n", inputPath)
	data, err := indexer.LoadHospitalData(inputPath)
	if err != nil {
		return err
	}

	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	arts := indexer.Artifacts{
		EntriesPath: filepath.Join(dataDir, "entries.jsonl"),
		IndexPath:   filepath.Join(dataDir, "index.gob"),
	}

	fmt.Println("Embedding entries and writing artifacts...")
	pipeline := indexer.NewPipeline(embedder, 0, appLogger)
	result, err := pipeline.Build(ctx, data, cfg.Knowledge.Metric, arts)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if cfg.Knowledge.Backend == "milvus" {
		fmt.Printf("Inserting vectors into Milvus at %s...\n", cfg.Knowledge.Milvus.Address)
		mv, err := knowledge.NewMilvusIndex(ctx, cfg.Knowledge.Milvus, result.Index.Dimension(), cfg.Knowledge.Metric, appLogger)
		if err != nil {
			return err
		}
		defer mv.Close()
		if err := mv.EnsureCollection(ctx); err != nil {
			return err
		}
		if err := mv.InsertEntries(ctx, result.Store.All()); err != nil {
			return err
		}
	}

	if cfg.Knowledge.MinIO.Enabled {
		fmt.Printf("Uploading artifacts to bucket %s...\n", cfg.Knowledge.MinIO.Bucket)
		if err := knowledge.UploadArtifacts(ctx, cfg.Knowledge.MinIO, appLogger, arts.EntriesPath, arts.IndexPath); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("Build complete!")
	printCounts(result.Store)
	fmt.Printf("  Index: %d vectors, dimension %d, metric %s\n", result.Index.Len(), result.Index.Dimension(), result.Index.Metric())
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Millisecond))

	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := knowledge.LoadStore(filepath.Join(dataDir, "entries.jsonl"))
	if err != nil {
		return err
	}
	index, err := knowledge.LoadFlatIndex(filepath.Join(dataDir, "index.gob"))
	if err != nil {
		return err
	}

	fmt.Printf("Knowledge base at %s:\n", dataDir)
	printCounts(store)
	fmt.Printf("  Index: %d vectors, dimension %d, metric %s\n", index.Len(), index.Dimension(), index.Metric())
	if err := index.Verify(store); err != nil {
		fmt.Printf("  WARNING: %v\n", err)
	}
	return nil
}

func printCounts(store *knowledge.Store) {
	fmt.Printf("  Entries: %d\n", store.Len())
	counts := store.CountByKind()
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("    %s: %d\n", kind, counts[knowledge.Kind(kind)])
	}
}
