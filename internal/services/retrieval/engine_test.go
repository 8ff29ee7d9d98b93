package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/search"
	"github.com/ternarybob/reperio/internal/storage/graph"
	"github.com/ternarybob/reperio/internal/storage/vectorstore"
)

type stubAnalyzer struct {
	analysis *models.QueryAnalysis
}

func (s *stubAnalyzer) Analyze(ctx context.Context, query string) (*models.QueryAnalysis, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.ErrEmptyQuery
	}
	if s.analysis != nil {
		return s.analysis, nil
	}
	return &models.QueryAnalysis{
		OriginalQuery: query,
		ExpandedQuery: query,
		Intent:        models.IntentQuestion,
		Entities:      []string{},
		Keywords:      []string{},
		Confidence:    0.5,
	}, nil
}

type stubSelector struct {
	strategy *models.RetrievalStrategy
	err      error
}

func (s *stubSelector) Select(ctx context.Context, analysis *models.QueryAnalysis) (*models.RetrievalStrategy, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.strategy != nil {
		return s.strategy, nil
	}
	return models.FallbackStrategy(), nil
}

type stubChat struct {
	response string
	err      error
	calls    int
}

func (s *stubChat) Embed(ctx context.Context, text string) ([]float32, error) { return nil, nil }
func (s *stubChat) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	s.calls++
	return s.response, s.err
}
func (s *stubChat) HealthCheck(ctx context.Context) error { return nil }
func (s *stubChat) GetMode() interfaces.LLMMode           { return interfaces.LLMModeCloud }
func (s *stubChat) Close() error                          { return nil }

// fakeEmbedder maps known query strings to fixed vectors
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
}

func (f *fakeEmbedder) embed(text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	if f.fallback != nil {
		return f.fallback, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f.embed(text)
}
func (f *fakeEmbedder) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return f.embed(query)
}
func (f *fakeEmbedder) ModelName() string                    { return "fake" }
func (f *fakeEmbedder) Dimension() int                       { return 3 }
func (f *fakeEmbedder) IsAvailable(ctx context.Context) bool { return true }

type testEnv struct {
	engine   interfaces.RetrievalService
	store    interfaces.VectorStorage
	graph    interfaces.GraphStorage
	embedder *fakeEmbedder
	chat     *stubChat
	selector *stubSelector
}

func newTestEnv(t *testing.T, analysis *models.QueryAnalysis) *testEnv {
	t.Helper()

	store, err := vectorstore.NewStore(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	db, err := graph.NewBadgerDB(common.GetLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "graph"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	graphStore := graph.NewStorage(db, common.GetLogger())

	cfg := common.NewDefaultConfig()
	searchEngine := search.NewEngine(store, &cfg.Search, common.GetLogger())

	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	chat := &stubChat{}
	selector := &stubSelector{}

	engine := NewEngine(
		&stubAnalyzer{analysis: analysis},
		selector,
		searchEngine,
		embedder,
		store,
		graphStore,
		chat,
		&cfg.Retrieval,
		common.GetLogger(),
	)

	return &testEnv{
		engine:   engine,
		store:    store,
		graph:    graphStore,
		embedder: embedder,
		chat:     chat,
		selector: selector,
	}
}

func storeDoc(t *testing.T, store interfaces.VectorStorage, docID string, chunks ...models.DocumentChunk) {
	t.Helper()
	require.NoError(t, store.StoreDocument(context.Background(), docID, chunks, &models.DocumentMeta{
		UploadDate: time.Now(),
		ChunkCount: len(chunks),
	}))
}

func testChunk(id, content string, embedding ...float32) models.DocumentChunk {
	return models.DocumentChunk{ID: id, Content: content, Embedding: embedding}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.engine.Retrieve(context.Background(), "   ", nil, 0)
	assert.ErrorIs(t, err, models.ErrEmptyQuery)
}

func TestRetrieveSimple(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1",
		testChunk("close", "solar panel efficiency figures", 1, 0, 0),
		testChunk("far", "unrelated maintenance log", 0, 1, 0),
	)
	env.embedder.vectors["what is solar efficiency"] = []float32{1, 0, 0}

	result, err := env.engine.Retrieve(ctx, "what is solar efficiency", nil, 5)
	require.NoError(t, err)

	require.NotEmpty(t, result.Contexts)
	assert.Equal(t, "close", result.Contexts[0].Chunk.ID)
	assert.Equal(t, models.StrategySimple, result.Strategy.Kind)
	assert.Equal(t, len(result.Contexts), result.TotalFound)
	assert.GreaterOrEqual(t, result.SearchTimeMs, int64(0))

	// Contexts carry neutral trust metadata and a real recency
	first := result.Contexts[0]
	assert.Equal(t, 0.5, first.Metadata.Trustworthiness)
	assert.Equal(t, 0.5, first.Metadata.Authority)
	assert.False(t, first.Metadata.Recency.IsZero())
}

func TestRetrieveSelectorFailureFallsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	env.selector.err = errors.New("selector down")

	storeDoc(t, env.store, "doc-1", testChunk("c1", "some content here", 1, 0, 0))

	result, err := env.engine.Retrieve(context.Background(), "some query", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StrategySimple, result.Strategy.Kind)
}

func TestRetrieveWithStrategyInvalidKind(t *testing.T) {
	env := newTestEnv(t, nil)

	storeDoc(t, env.store, "doc-1", testChunk("c1", "content for the query", 1, 0, 0))

	result, err := env.engine.RetrieveWithStrategy(context.Background(), "query",
		&models.RetrievalStrategy{Kind: "quantum"}, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StrategySimple, result.Strategy.Kind)
}

func TestRetrieveScopedToDocuments(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1", testChunk("in", "scoped content", 1, 0, 0))
	storeDoc(t, env.store, "doc-2", testChunk("out", "other content", 1, 0, 0))

	result, err := env.engine.Retrieve(ctx, "query", []string{"doc-1"}, 5)
	require.NoError(t, err)
	require.Len(t, result.Contexts, 1)
	assert.Equal(t, "in", result.Contexts[0].Chunk.ID)
}

func TestMultiStageAccumulatesAcrossRounds(t *testing.T) {
	analysis := &models.QueryAnalysis{
		OriginalQuery: "broad topic",
		ExpandedQuery: "broad topic",
		Intent:        models.IntentSummary,
		Confidence:    0.7,
	}
	env := newTestEnv(t, analysis)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1",
		testChunk("first", "initial angle on the topic", 1, 0, 0),
		testChunk("second", "a different aspect entirely", 0, 1, 0),
	)
	env.embedder.vectors["broad topic"] = []float32{1, 0, 0}
	env.embedder.vectors["refined angle"] = []float32{0, 1, 0}
	env.chat.response = "refined angle"

	env.selector.strategy = &models.RetrievalStrategy{
		Kind:       models.StrategyMultiStage,
		Confidence: 0.8,
		Parameters: models.StrategyParameters{Stages: 2},
	}

	result, err := env.engine.Retrieve(ctx, "broad topic", nil, 5)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, c := range result.Contexts {
		ids[c.Chunk.ID] = true
	}
	assert.True(t, ids["first"], "round one result missing")
	assert.True(t, ids["second"], "refined round result missing")
	assert.Equal(t, 1, env.chat.calls, "expected one refinement call between two rounds")
}

func TestMultiStageDeduplicatesNearIdenticalChunks(t *testing.T) {
	analysis := &models.QueryAnalysis{
		OriginalQuery: "topic",
		ExpandedQuery: "topic",
		Intent:        models.IntentQuestion,
	}
	env := newTestEnv(t, analysis)
	ctx := context.Background()

	// Both rounds hit the same document and surface the same content
	storeDoc(t, env.store, "doc-1",
		testChunk("a", "the exact same sentence about the topic", 1, 0, 0),
	)
	env.embedder.fallback = []float32{1, 0, 0}
	env.chat.response = "still the topic"

	env.selector.strategy = &models.RetrievalStrategy{
		Kind:       models.StrategyMultiStage,
		Parameters: models.StrategyParameters{Stages: 2},
	}

	result, err := env.engine.Retrieve(ctx, "topic", nil, 5)
	require.NoError(t, err)
	assert.Len(t, result.Contexts, 1)
}

func TestMultiStageRefinementFailureKeepsGoing(t *testing.T) {
	analysis := &models.QueryAnalysis{
		OriginalQuery: "topic",
		ExpandedQuery: "topic",
		Intent:        models.IntentQuestion,
	}
	env := newTestEnv(t, analysis)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1", testChunk("a", "content about the topic", 1, 0, 0))
	env.embedder.fallback = []float32{1, 0, 0}
	env.chat.err = errors.New("oracle unavailable")

	env.selector.strategy = &models.RetrievalStrategy{
		Kind:       models.StrategyMultiStage,
		Parameters: models.StrategyParameters{Stages: 3},
	}

	result, err := env.engine.Retrieve(ctx, "topic", nil, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Contexts)
}

func TestExpertDomainRuns(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1", testChunk("a", "deep domain content", 1, 0, 0))
	env.embedder.fallback = []float32{1, 0, 0}
	env.chat.response = "same query"

	result, err := env.engine.RetrieveWithStrategy(ctx, "domain query",
		&models.RetrievalStrategy{Kind: models.StrategyExpertDomain}, nil, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Contexts)
	assert.Equal(t, models.StrategyExpertDomain, result.Strategy.Kind)
}

func TestKnowledgeGraphAnnotatesContexts(t *testing.T) {
	analysis := &models.QueryAnalysis{
		OriginalQuery: "how do panels connect to inverters",
		ExpandedQuery: "how do panels connect to inverters",
		Intent:        models.IntentQuestion,
		Entities:      []string{"solar panel"},
	}
	env := newTestEnv(t, analysis)
	ctx := context.Background()

	require.NoError(t, env.graph.PutEntity(ctx, &models.GraphEntity{
		ID:   "ent-panel",
		Name: "Solar Panel",
		Type: "component",
		Relationships: []models.GraphRelationship{
			{Target: "ent-inverter", Relation: "feeds", Strength: 0.9},
		},
	}))
	require.NoError(t, env.graph.PutEntity(ctx, &models.GraphEntity{
		ID:   "ent-inverter",
		Name: "Inverter",
		Type: "component",
	}))

	storeDoc(t, env.store, "doc-1",
		testChunk("panel-chunk", "solar panel output characteristics", 1, 0, 0),
		testChunk("inverter-chunk", "inverter input voltage ranges", 0, 1, 0),
	)
	env.embedder.vectors["solar panel"] = []float32{1, 0, 0}
	env.embedder.vectors["Solar Panel"] = []float32{1, 0, 0}
	env.embedder.vectors["Inverter"] = []float32{0, 1, 0}

	result, err := env.engine.RetrieveWithStrategy(ctx, "how do panels connect to inverters",
		&models.RetrievalStrategy{Kind: models.StrategyKnowledgeGraph}, nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, result.Contexts)

	ids := make(map[string]bool)
	for _, c := range result.Contexts {
		ids[c.Chunk.ID] = true
	}
	assert.True(t, ids["panel-chunk"])
	assert.True(t, ids["inverter-chunk"], "related entity search should surface inverter content")

	first := result.Contexts[0]
	assert.Contains(t, first.Metadata.ExtractedEntities, "Solar Panel")
	assert.Contains(t, first.Metadata.ExtractedEntities, "Inverter")
	require.NotEmpty(t, first.Metadata.Relationships)
	assert.Contains(t, first.Metadata.Relationships[0], "feeds")
}

func TestKnowledgeGraphWithoutEntitiesFallsBackToSimple(t *testing.T) {
	analysis := &models.QueryAnalysis{
		OriginalQuery: "plain question",
		ExpandedQuery: "plain question",
		Intent:        models.IntentQuestion,
	}
	env := newTestEnv(t, analysis)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1", testChunk("a", "plain content", 1, 0, 0))
	env.embedder.fallback = []float32{1, 0, 0}

	result, err := env.engine.RetrieveWithStrategy(ctx, "plain question",
		&models.RetrievalStrategy{Kind: models.StrategyKnowledgeGraph}, nil, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Contexts)
}

func TestMultimodalReturnsTextResults(t *testing.T) {
	analysis := &models.QueryAnalysis{
		OriginalQuery: "show me the chart of quarterly revenue",
		ExpandedQuery: "quarterly revenue chart",
		Intent:        models.IntentQuestion,
	}
	env := newTestEnv(t, analysis)
	ctx := context.Background()

	storeDoc(t, env.store, "doc-1", testChunk("a", "quarterly revenue discussion", 1, 0, 0))
	env.embedder.fallback = []float32{1, 0, 0}

	result, err := env.engine.RetrieveWithStrategy(ctx, "show me the chart of quarterly revenue",
		&models.RetrievalStrategy{Kind: models.StrategyMultimodal}, nil, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Contexts, "text path still serves visual queries")
}

func TestClassifyModalities(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"text only", "what is the refund policy", []string{"text"}},
		{"visual", "show the diagram of the system", []string{"text", "visual"}},
		{"visual and structured", "chart the statistics for me", []string{"text", "visual", "structured"}},
		{"structured only", "summarize the dataset", []string{"text", "structured"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyModalities(tt.query))
		})
	}
}

func TestRankContextsBlendsMetadata(t *testing.T) {
	now := time.Now()
	lowTrust := &models.EnhancedContext{
		Score:    0.9,
		Metadata: models.ContextMetadata{Trustworthiness: 0.1, Authority: 0.1, Recency: now},
	}
	highTrust := &models.EnhancedContext{
		Score:    0.7,
		Metadata: models.ContextMetadata{Trustworthiness: 1.0, Authority: 1.0, Recency: now},
	}

	contexts := []*models.EnhancedContext{lowTrust, highTrust}
	rankContexts(contexts)

	// 0.4*0.7 + 0.3 + 0.2 + 0.1 = 0.88 beats 0.4*0.9 + 0.03 + 0.02 + 0.1 = 0.51
	assert.Same(t, highTrust, contexts[0])
}

func TestWordJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "the quick brown fox", "the quick brown fox", 1},
		{"disjoint", "alpha beta", "gamma delta", 0},
		{"half overlap", "a b c d", "c d e f", 1.0 / 3.0},
		{"case insensitive", "Solar Panel", "solar panel", 1},
		{"both empty", "", "", 1},
		{"one empty", "words here", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, wordJaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRetrieveCancelledContext(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.engine.Retrieve(ctx, "query", nil, 5)
	assert.Error(t, err)
}
