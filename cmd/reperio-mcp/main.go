package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/services/analyzer"
	"github.com/ternarybob/reperio/internal/services/confidence"
	"github.com/ternarybob/reperio/internal/services/embeddings"
	"github.com/ternarybob/reperio/internal/services/llm"
	"github.com/ternarybob/reperio/internal/services/retrieval"
	"github.com/ternarybob/reperio/internal/services/search"
	"github.com/ternarybob/reperio/internal/services/strategy"
	"github.com/ternarybob/reperio/internal/storage/graph"
	"github.com/ternarybob/reperio/internal/storage/vectorstore"
)

func main() {
	configPath := os.Getenv("REPERIO_CONFIG")
	if configPath == "" {
		configPath = "reperio.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal console-only logger to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	store, err := vectorstore.NewStore(config.Storage.Vectors.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open vector store")
	}

	graphDB, err := graph.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open graph store")
	}
	defer graphDB.Close()
	graphStorage := graph.NewStorage(graphDB, logger)

	llmService, err := llm.NewLLMService(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}
	defer llmService.Close()

	embeddingService, err := embeddings.NewService(&config.Gemini, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize embedding service")
	}

	searchEngine := search.NewEngine(store, &config.Search, logger)
	analyzerService := analyzer.NewService(llmService, logger)
	strategyService := strategy.NewService(llmService, logger)
	confidenceService := confidence.NewService(logger)

	retrievalService := retrieval.NewEngine(
		analyzerService,
		strategyService,
		searchEngine,
		embeddingService,
		store,
		graphStorage,
		llmService,
		&config.Retrieval,
		logger,
	)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"reperio",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register retrieval tools
	mcpServer.AddTool(createRetrieveTool(), handleRetrieve(retrievalService, confidenceService, logger))
	mcpServer.AddTool(createGetDocumentTool(), handleGetDocument(store, logger))
	mcpServer.AddTool(createListDocumentsTool(), handleListDocuments(store, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
