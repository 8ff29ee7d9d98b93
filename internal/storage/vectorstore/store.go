package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/models"
)

// documentFile is the on-disk envelope for one document's chunks. The
// document ID travels inside the file so loading never depends on
// decoding filenames.
type documentFile struct {
	DocumentID string                 `json:"document_id"`
	Chunks     []models.DocumentChunk `json:"chunks"`
	Meta       *models.DocumentMeta   `json:"meta,omitempty"`
}

// Store is a file-backed vector store. Each document is one JSON file on
// disk and one entry in the in-memory index; writes go to a temp file
// first and are renamed into place so a crash never leaves a partial
// document behind.
type Store struct {
	dataDir string
	logger  arbor.ILogger

	mu   sync.RWMutex
	docs map[string][]models.DocumentChunk
	meta map[string]*models.DocumentMeta

	// dimension is fixed by the first chunk ever stored and enforced on
	// every subsequent write
	dimension int
}

// NewStore opens the store rooted at dataDir, creating the directory if
// needed and loading every persisted document into the index.
func NewStore(dataDir string, logger arbor.ILogger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector store directory %s: %w", dataDir, err)
	}

	s := &Store{
		dataDir: dataDir,
		logger:  logger,
		docs:    make(map[string][]models.DocumentChunk),
		meta:    make(map[string]*models.DocumentMeta),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", dataDir).
		Int("documents", len(s.docs)).
		Msg("Vector store opened")

	return s, nil
}

// load reads every document file under dataDir into the index. Files
// that fail to parse are skipped with a warning rather than blocking
// startup.
func (s *Store) load() error {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read vector store directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dataDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read document file, skipping")
			continue
		}

		var doc documentFile
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse document file, skipping")
			continue
		}
		if doc.DocumentID == "" {
			s.logger.Warn().Str("file", entry.Name()).Msg("Document file missing ID, skipping")
			continue
		}

		s.docs[doc.DocumentID] = doc.Chunks
		if doc.Meta != nil {
			s.meta[doc.DocumentID] = doc.Meta
		}
		if s.dimension == 0 && len(doc.Chunks) > 0 {
			s.dimension = len(doc.Chunks[0].Embedding)
		}
	}

	return nil
}

func (s *Store) docPath(documentID string) string {
	return filepath.Join(s.dataDir, url.PathEscape(documentID)+".json")
}

// StoreDocument persists all chunks for a document, replacing any prior
// version. All chunk embeddings must share the store's dimension.
func (s *Store) StoreDocument(ctx context.Context, documentID string, chunks []models.DocumentChunk, meta *models.DocumentMeta) error {
	if documentID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunks[i].ID)
		}
		if dim == 0 {
			dim = len(chunks[i].Embedding)
		}
		if len(chunks[i].Embedding) != dim {
			return fmt.Errorf("chunk %s: %w", chunks[i].ID,
				&models.DimensionMismatchError{Expected: dim, Actual: len(chunks[i].Embedding)})
		}
		if chunks[i].Metadata.DocumentID == "" {
			chunks[i].Metadata.DocumentID = documentID
		}
	}

	if err := s.writeFile(documentID, chunks, meta); err != nil {
		return err
	}

	s.docs[documentID] = chunks
	if meta != nil {
		s.meta[documentID] = meta
	} else {
		delete(s.meta, documentID)
	}
	s.dimension = dim

	s.logger.Debug().
		Str("document_id", documentID).
		Int("chunks", len(chunks)).
		Msg("Document stored")

	return nil
}

// writeFile persists a document atomically: write to a temp file in the
// same directory, then rename over the target.
func (s *Store) writeFile(documentID string, chunks []models.DocumentChunk, meta *models.DocumentMeta) error {
	data, err := json.Marshal(documentFile{
		DocumentID: documentID,
		Chunks:     chunks,
		Meta:       meta,
	})
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", documentID, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, ".doc-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write document %s: %w", documentID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for document %s: %w", documentID, err)
	}

	if err := os.Rename(tmpName, s.docPath(documentID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to persist document %s: %w", documentID, err)
	}

	return nil
}

// GetDocument returns the chunks for a document.
func (s *Store) GetDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, models.ErrDocumentNotFound)
	}

	out := make([]models.DocumentChunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetDocumentMeta returns the sidecar metadata for a document, or nil
// when none was stored.
func (s *Store) GetDocumentMeta(ctx context.Context, documentID string) (*models.DocumentMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.docs[documentID]; !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, models.ErrDocumentNotFound)
	}

	m, ok := s.meta[documentID]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

// DeleteDocument removes a document from disk and the index. Deleting an
// absent document is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.docPath(documentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	delete(s.docs, documentID)
	delete(s.meta, documentID)

	s.logger.Debug().Str("document_id", documentID).Msg("Document deleted")
	return nil
}

// ListDocuments returns the IDs of all stored documents, sorted.
func (s *Store) ListDocuments(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SearchDocument scores every chunk of one document against the query
// embedding and returns the top limit matches, best first. An unknown
// document yields an empty result, not an error.
func (s *Store) SearchDocument(ctx context.Context, documentID string, embedding []float32, limit int) ([]models.ScoredChunk, error) {
	s.mu.RLock()
	chunks, ok := s.docs[documentID]
	s.mu.RUnlock()

	if !ok {
		return []models.ScoredChunk{}, nil
	}

	scored, err := scoreChunks(chunks, embedding)
	if err != nil {
		return nil, err
	}
	return topK(scored, limit), nil
}

// SearchAll scores every chunk across all documents, keeping matches
// above minScore. Documents are scanned concurrently; results are merged
// and the top limit returned.
func (s *Store) SearchAll(ctx context.Context, embedding []float32, limit int, minScore float64) ([]models.ScoredChunk, error) {
	s.mu.RLock()
	snapshot := make(map[string][]models.DocumentChunk, len(s.docs))
	for id, chunks := range s.docs {
		snapshot[id] = chunks
	}
	s.mu.RUnlock()

	var (
		wg       sync.WaitGroup
		resultMu sync.Mutex
		all      []models.ScoredChunk
		firstErr error
	)

	for _, chunks := range snapshot {
		wg.Add(1)
		go func(chunks []models.DocumentChunk) {
			defer wg.Done()

			scored, err := scoreChunks(chunks, embedding)

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, sc := range scored {
				if sc.Score > minScore {
					all = append(all, sc)
				}
			}
		}(chunks)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return topK(all, limit), nil
}

// Stats summarizes the store contents.
func (s *Store) Stats(ctx context.Context) (*models.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.StoreStats{
		DocumentCount: len(s.docs),
		Dimension:     s.dimension,
	}
	for _, chunks := range s.docs {
		stats.ChunkCount += len(chunks)
	}
	return stats, nil
}

func scoreChunks(chunks []models.DocumentChunk, embedding []float32) ([]models.ScoredChunk, error) {
	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score, err := Cosine(embedding, chunk.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: score})
	}
	return scored, nil
}

// topK sorts scored chunks best first and truncates to limit. A limit of
// zero or less returns everything.
func topK(scored []models.ScoredChunk, limit int) []models.ScoredChunk {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
