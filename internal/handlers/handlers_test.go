package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/storage/graph"
	"github.com/ternarybob/reperio/internal/storage/vectorstore"
)

func newTestStore(t *testing.T) interfaces.VectorStorage {
	t.Helper()
	store, err := vectorstore.NewStore(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	return store
}

func newTestGraph(t *testing.T) interfaces.GraphStorage {
	t.Helper()
	db, err := graph.NewBadgerDB(common.GetLogger(), &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "graph"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return graph.NewStorage(db, common.GetLogger())
}

func uploadBody(t *testing.T, chunks []models.DocumentChunk) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(documentUpload{Chunks: chunks})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestDocumentIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/documents/doc-1", "doc-1"},
		{"/api/documents/doc-1/", "doc-1"},
		{"/api/documents/", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DocumentIDFromPath(tt.path))
	}
}

func TestDocumentUpsertAndGet(t *testing.T) {
	h := NewDocumentHandler(newTestStore(t), common.GetLogger())

	chunks := []models.DocumentChunk{
		{ID: "c1", Content: "hello world", Embedding: []float32{1, 0}},
	}
	req := httptest.NewRequest("PUT", "/api/documents/doc-1", uploadBody(t, chunks))
	rec := httptest.NewRecorder()
	h.UpsertHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/api/documents/doc-1", nil)
	rec = httptest.NewRecorder()
	h.GetHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		DocumentID string                 `json:"document_id"`
		Chunks     []models.DocumentChunk `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.DocumentID)
	require.Len(t, resp.Chunks, 1)
	assert.Equal(t, "hello world", resp.Chunks[0].Content)
}

func TestDocumentUpsertDimensionMismatch(t *testing.T) {
	h := NewDocumentHandler(newTestStore(t), common.GetLogger())

	chunks := []models.DocumentChunk{
		{ID: "c1", Content: "a", Embedding: []float32{1, 0}},
		{ID: "c2", Content: "b", Embedding: []float32{1, 0, 0}},
	}
	req := httptest.NewRequest("PUT", "/api/documents/doc-1", uploadBody(t, chunks))
	rec := httptest.NewRecorder()
	h.UpsertHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentUpsertRejectsEmpty(t *testing.T) {
	h := NewDocumentHandler(newTestStore(t), common.GetLogger())

	req := httptest.NewRequest("PUT", "/api/documents/doc-1", bytes.NewBufferString(`{"chunks":[]}`))
	rec := httptest.NewRecorder()
	h.UpsertHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentGetMissing(t *testing.T) {
	h := NewDocumentHandler(newTestStore(t), common.GetLogger())

	req := httptest.NewRequest("GET", "/api/documents/unknown", nil)
	rec := httptest.NewRecorder()
	h.GetHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentDeleteIdempotent(t *testing.T) {
	h := NewDocumentHandler(newTestStore(t), common.GetLogger())

	req := httptest.NewRequest("DELETE", "/api/documents/never-existed", nil)
	rec := httptest.NewRecorder()
	h.DeleteHandler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDocumentList(t *testing.T) {
	store := newTestStore(t)
	h := NewDocumentHandler(store, common.GetLogger())

	require.NoError(t, store.StoreDocument(context.Background(), "doc-1", []models.DocumentChunk{
		{ID: "c1", Content: "a", Embedding: []float32{1}},
	}, nil))

	req := httptest.NewRequest("GET", "/api/documents", nil)
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

// stubRetrieval returns a fixed result or error
type stubRetrieval struct {
	result *models.RetrievalResult
	err    error
}

func (s *stubRetrieval) Retrieve(ctx context.Context, query string, scope []string, maxResults int) (*models.RetrievalResult, error) {
	return s.result, s.err
}

func (s *stubRetrieval) RetrieveWithStrategy(ctx context.Context, query string, strategy *models.RetrievalStrategy, scope []string, maxResults int) (*models.RetrievalResult, error) {
	return s.result, s.err
}

type stubConfidence struct{ value float64 }

func (s *stubConfidence) Estimate(ctx context.Context, analysis *models.QueryAnalysis, answer string, oracleConfidence float64, contexts []*models.EnhancedContext) float64 {
	return s.value
}

func TestRetrieveHandler(t *testing.T) {
	result := &models.RetrievalResult{
		Contexts: []*models.EnhancedContext{
			{Chunk: models.DocumentChunk{ID: "c1", Content: "answer material"}, Score: 0.9},
		},
		Strategy:   models.FallbackStrategy(),
		TotalFound: 1,
	}
	h := NewRetrievalHandler(&stubRetrieval{result: result}, &stubConfidence{value: 0.7}, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/retrieve", bytes.NewBufferString(`{"query":"what is it"}`))
	rec := httptest.NewRecorder()
	h.RetrieveHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalFound int     `json:"total_found"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalFound)
	assert.Equal(t, 0.7, resp.Confidence)
}

func TestRetrieveHandlerEmptyQuery(t *testing.T) {
	h := NewRetrievalHandler(&stubRetrieval{err: models.ErrEmptyQuery}, &stubConfidence{}, common.GetLogger())

	req := httptest.NewRequest("POST", "/api/retrieve", bytes.NewBufferString(`{"query":""}`))
	rec := httptest.NewRecorder()
	h.RetrieveHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphUpsertAndGet(t *testing.T) {
	h := NewGraphHandler(newTestGraph(t), common.GetLogger())

	body := `[{"id":"ent-1","name":"Apollo","type":"project"}]`
	req := httptest.NewRequest("PUT", "/api/graph/entities", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.UpsertEntitiesHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", "/api/graph/entities/ent-1", nil)
	rec = httptest.NewRecorder()
	h.GetEntityHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entity models.GraphEntity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entity))
	assert.Equal(t, "Apollo", entity.Name)
}

func TestGraphGetMissing(t *testing.T) {
	h := NewGraphHandler(newTestGraph(t), common.GetLogger())

	req := httptest.NewRequest("GET", "/api/graph/entities/ent-404", nil)
	rec := httptest.NewRecorder()
	h.GetEntityHandler(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
