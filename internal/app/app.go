package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/handlers"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/analyzer"
	"github.com/ternarybob/reperio/internal/services/confidence"
	"github.com/ternarybob/reperio/internal/services/embeddings"
	"github.com/ternarybob/reperio/internal/services/llm"
	"github.com/ternarybob/reperio/internal/services/retrieval"
	"github.com/ternarybob/reperio/internal/services/scheduler"
	"github.com/ternarybob/reperio/internal/services/search"
	"github.com/ternarybob/reperio/internal/services/strategy"
	"github.com/ternarybob/reperio/internal/storage/graph"
	"github.com/ternarybob/reperio/internal/storage/vectorstore"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage layer
	VectorStore  interfaces.VectorStorage
	GraphDB      *graph.BadgerDB
	GraphStorage interfaces.GraphStorage

	// LLM oracle and embeddings
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService

	// Retrieval pipeline
	SearchEngine      interfaces.SearchEngine
	AnalyzerService   interfaces.QueryAnalyzer
	StrategyService   interfaces.StrategySelector
	ConfidenceService interfaces.ConfidenceEstimator
	RetrievalService  interfaces.RetrievalService

	// Background maintenance
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	DocumentHandler  *handlers.DocumentHandler
	RetrievalHandler *handlers.RetrievalHandler
	GraphHandler     *handlers.GraphHandler
	StatusHandler    *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("maintenance_enabled", cfg.Maintenance.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the vector store and the knowledge graph
func (a *App) initStorage() error {
	store, err := vectorstore.NewStore(a.Config.Storage.Vectors.Path, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	a.VectorStore = store
	a.Logger.Debug().
		Str("path", a.Config.Storage.Vectors.Path).
		Msg("Vector store initialized")

	graphDB, err := graph.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open graph store: %w", err)
	}
	a.GraphDB = graphDB
	a.GraphStorage = graph.NewStorage(graphDB, a.Logger)
	a.Logger.Debug().
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Knowledge graph store initialized")

	return nil
}

// initServices initializes the retrieval pipeline in dependency order.
// The LLM oracle is mandatory: analysis, strategy selection, and
// embeddings all depend on it, so a failed provider fails startup
// instead of degrading into a service that cannot retrieve.
func (a *App) initServices() error {
	var err error

	a.LLMService, err = llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.Logger.Debug().
		Str("provider", string(a.Config.LLM.DefaultProvider)).
		Str("mode", string(a.LLMService.GetMode())).
		Msg("LLM service initialized")

	// Embeddings always go through Gemini regardless of the oracle
	// provider, since Claude has no embedding endpoint
	a.EmbeddingService, err = embeddings.NewService(&a.Config.Gemini, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding service: %w", err)
	}
	a.Logger.Debug().
		Str("model", a.EmbeddingService.ModelName()).
		Int("dimension", a.EmbeddingService.Dimension()).
		Msg("Embedding service initialized")

	a.SearchEngine = search.NewEngine(a.VectorStore, &a.Config.Search, a.Logger)
	a.AnalyzerService = analyzer.NewService(a.LLMService, a.Logger)
	a.StrategyService = strategy.NewService(a.LLMService, a.Logger)
	a.ConfidenceService = confidence.NewService(a.Logger)

	a.RetrievalService = retrieval.NewEngine(
		a.AnalyzerService,
		a.StrategyService,
		a.SearchEngine,
		a.EmbeddingService,
		a.VectorStore,
		a.GraphStorage,
		a.LLMService,
		&a.Config.Retrieval,
		a.Logger,
	)
	a.Logger.Debug().Msg("Retrieval pipeline initialized")

	a.SchedulerService = scheduler.NewService(a.Logger)
	if a.Config.Maintenance.Enabled {
		job := scheduler.NewMaintenanceJob(a.VectorStore, a.GraphStorage, a.GraphDB.RunGC, a.Logger)
		if err := a.SchedulerService.RegisterJob("maintenance", a.Config.Maintenance.Schedule, job); err != nil {
			return fmt.Errorf("failed to register maintenance job: %w", err)
		}
		if err := a.SchedulerService.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		a.Logger.Debug().
			Str("schedule", a.Config.Maintenance.Schedule).
			Msg("Maintenance scheduler started")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.DocumentHandler = handlers.NewDocumentHandler(a.VectorStore, a.Logger)
	a.RetrievalHandler = handlers.NewRetrievalHandler(a.RetrievalService, a.ConfidenceService, a.Logger)
	a.GraphHandler = handlers.NewGraphHandler(a.GraphStorage, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.VectorStore, a.GraphStorage, a.LLMService, a.SchedulerService, a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.GraphDB != nil {
		if err := a.GraphDB.Close(); err != nil {
			return fmt.Errorf("failed to close graph store: %w", err)
		}
		a.Logger.Info().Msg("Graph store closed")
	}

	return nil
}
