package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hameedlatif/hospital-assistant/internal/assistant"
	"github.com/hameedlatif/hospital-assistant/internal/config"
	"github.com/hameedlatif/hospital-assistant/internal/embedding"
	"github.com/hameedlatif/hospital-assistant/internal/knowledge"
	"github.com/hameedlatif/hospital-assistant/internal/llm"
	"github.com/hameedlatif/hospital-assistant/internal/memory"
	"github.com/hameedlatif/hospital-assistant/internal/retrieval"
	"github.com/hameedlatif/hospital-assistant/internal/server"
	"github.com/hameedlatif/hospital-assistant/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load .env if present (local development) so ${VAR} expansion in the
	// config file can see the API keys.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "")
	appLogger.Info("Starting hospital assistant service...")

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. Load the knowledge base
	ctx := context.Background()
	store, index := loadKnowledge(ctx, cfg, appLogger)
	appLogger.Info(fmt.Sprintf("Knowledge base loaded: %d entries, dimension %d", store.Len(), index.Dimension()))

	// 4. Initialize model clients
	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	answerClient, err := llm.NewClient(cfg.LLM, cfg.Generation.Temperature, cfg.Generation.MaxOutputTokens)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	// The summarizer shares the provider but runs with a shorter output cap.
	summaryClient, err := llm.NewClient(cfg.LLM, cfg.Generation.Temperature, cfg.Generation.SummaryMaxTokens)
	if err != nil {
		log.Fatalf("Failed to create summary LLM client: %v", err)
	}

	// 5. Assemble the assistant
	retriever := retrieval.NewRetriever(index, store, cfg.Retrieval.TopK, cfg.Retrieval.MinScore, appLogger)
	assembler := retrieval.NewContextAssembler(cfg.Retrieval.ContextBudget)
	summarizer := memory.NewLLMSummarizer(summaryClient)
	arena := memory.NewArena(func() *memory.Memory {
		return memory.NewMemory(summarizer, cfg.Memory.MaxTurns, cfg.Memory.KeepRecent, appLogger)
	})
	bot := assistant.New(embedder, retriever, assembler, arena, answerClient, generationOptions(cfg), appLogger)

	// 6. Start HTTP Server in a goroutine
	handler := server.NewHandler(bot, store.Len(), cfg.App, appLogger)
	srv, err := server.NewServer(cfg, handler, appLogger)
	if err != nil {
		log.Fatalf("Failed to build HTTP server: %v", err)
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shut down")
	}
	appLogger.Info("Server gracefully stopped")
}

// loadKnowledge loads the entry store and the configured vector index,
// fetching the artifacts from MinIO first when that is enabled.
func loadKnowledge(ctx context.Context, cfg *config.AppConfig, appLogger *logger.Logger) (*knowledge.Store, knowledge.Index) {
	paths := []string{cfg.Knowledge.EntriesPath}
	if cfg.Knowledge.Backend != "milvus" {
		paths = append(paths, cfg.Knowledge.IndexPath)
	}
	if cfg.Knowledge.MinIO.Enabled {
		if err := knowledge.FetchArtifacts(ctx, cfg.Knowledge.MinIO, appLogger, paths...); err != nil {
			log.Fatalf("Failed to fetch knowledge artifacts: %v", err)
		}
	}

	store, err := knowledge.LoadStore(cfg.Knowledge.EntriesPath)
	if err != nil {
		log.Fatalf("Failed to load knowledge entries: %v", err)
	}

	if cfg.Knowledge.Backend == "milvus" {
		dim := 0
		if entries := store.All(); len(entries) > 0 {
			dim = len(entries[0].Vector)
		}
		if dim == 0 {
			log.Fatalf("Entries file '%s' carries no vectors; rebuild it with kbindex before using the milvus backend", cfg.Knowledge.EntriesPath)
		}
		index, err := knowledge.NewMilvusIndex(ctx, cfg.Knowledge.Milvus, dim, cfg.Knowledge.Metric, appLogger)
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		if err := index.EnsureCollection(ctx); err != nil {
			log.Fatalf("Failed to prepare Milvus collection: %v", err)
		}
		return store, index
	}

	index, err := knowledge.LoadFlatIndex(cfg.Knowledge.IndexPath)
	if err != nil {
		log.Fatalf("Failed to load vector index: %v", err)
	}
	if err := index.Verify(store); err != nil {
		log.Fatalf("Knowledge base artifacts disagree: %v", err)
	}
	return store, index
}

// generationOptions parses the duration strings of the generation section.
func generationOptions(cfg *config.AppConfig) assistant.Options {
	opts := assistant.Options{MaxRetries: cfg.Generation.MaxRetries}
	if cfg.Generation.Timeout != "" {
		d, err := time.ParseDuration(cfg.Generation.Timeout)
		if err != nil {
			log.Fatalf("Invalid generation timeout '%s': %v", cfg.Generation.Timeout, err)
		}
		opts.Timeout = d
	}
	if cfg.Generation.RetryBackoff != "" {
		d, err := time.ParseDuration(cfg.Generation.RetryBackoff)
		if err != nil {
			log.Fatalf("Invalid generation retry backoff '%s': %v", cfg.Generation.RetryBackoff, err)
		}
		opts.RetryBackoff = d
	}
	return opts
}
