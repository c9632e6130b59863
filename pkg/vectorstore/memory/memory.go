// Package memory implements vectorstore.Store as a brute-force in-memory
// index with a JSON snapshot on disk.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/shopgraph/backend/pkg/ai"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// Backup receives a copy of every snapshot, typically backed by S3. All
// backup calls are best effort.
type Backup interface {
	Put(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
}

// VectorStore holds documents in parallel slices guarded by one RWMutex.
// Mutations write a full snapshot before releasing the lock, so the on-disk
// state never lags the in-memory state.
type VectorStore struct {
	mu sync.RWMutex

	collection string
	persistDir string
	aiClient   ai.AIClient
	backup     Backup

	ids        []string
	contents   []string
	embeddings [][]float32
	metadatas  []map[string]string
}

type NewVectorStoreParams struct {
	Collection string
	PersistDir string
	AIClient   ai.AIClient
	Backup     Backup
}

// snapshot is the on-disk representation of a collection.
type snapshot struct {
	IDs        []string            `json:"ids"`
	Contents   []string            `json:"contents"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas"`
}

// NewVectorStore creates a store and loads an existing snapshot when one is
// present. A corrupt snapshot is logged and discarded rather than failing
// construction.
func NewVectorStore(params NewVectorStoreParams) (*VectorStore, error) {
	if params.Collection == "" {
		params.Collection = "documents"
	}
	if params.AIClient == nil {
		return nil, fmt.Errorf("memory vector store requires an AI client")
	}

	s := &VectorStore{
		collection: params.Collection,
		persistDir: params.PersistDir,
		aiClient:   params.AIClient,
		backup:     params.Backup,
	}

	if s.persistDir != "" {
		if err := os.MkdirAll(s.persistDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persist dir: %w", err)
		}
		s.loadSnapshot()
	}
	return s, nil
}

func (s *VectorStore) snapshotPath() string {
	return filepath.Join(s.persistDir, s.collection+".json")
}

func (s *VectorStore) backupKey() string {
	return "snapshots/" + s.collection + ".json"
}

func (s *VectorStore) loadSnapshot() {
	data, err := os.ReadFile(s.snapshotPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read vector store snapshot", "path", s.snapshotPath(), "error", err)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("Corrupt vector store snapshot, starting empty", "path", s.snapshotPath(), "error", err)
		return
	}
	if len(snap.IDs) != len(snap.Contents) ||
		len(snap.IDs) != len(snap.Embeddings) ||
		len(snap.IDs) != len(snap.Metadatas) {
		logger.Warn("Inconsistent vector store snapshot, starting empty", "path", s.snapshotPath())
		return
	}

	s.ids = snap.IDs
	s.contents = snap.Contents
	s.embeddings = snap.Embeddings
	s.metadatas = snap.Metadatas
	logger.Info("Loaded vector store snapshot", "collection", s.collection, "documents", len(s.ids))
}

// writeSnapshotLocked persists the current state. Caller holds the write lock.
func (s *VectorStore) writeSnapshotLocked(ctx context.Context) error {
	if s.persistDir == "" {
		return nil
	}

	data, err := json.Marshal(snapshot{
		IDs:        s.ids,
		Contents:   s.contents,
		Embeddings: s.embeddings,
		Metadatas:  s.metadatas,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.snapshotPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshotPath()); err != nil {
		return fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	if s.backup != nil {
		if err := s.backup.Put(ctx, s.backupKey(), data); err != nil {
			logger.Warn("Snapshot backup upload failed", "collection", s.collection, "error", err)
		}
	}
	return nil
}

// Add embeds the contents in one batch request and appends them under a
// single critical section that also covers the snapshot write.
func (s *VectorStore) Add(
	ctx context.Context,
	contents []string,
	metadatas []map[string]string,
	ids []string,
) ([]string, error) {
	if len(contents) == 0 {
		return []string{}, nil
	}
	if len(metadatas) != 0 && len(metadatas) != len(contents) {
		return nil, fmt.Errorf("metadatas length %d does not match contents length %d", len(metadatas), len(contents))
	}
	if len(ids) != 0 && len(ids) != len(contents) {
		return nil, fmt.Errorf("ids length %d does not match contents length %d", len(ids), len(contents))
	}

	inputs := make([][]byte, len(contents))
	for i, c := range contents {
		inputs[i] = []byte(c)
	}
	embeddings, err := s.aiClient.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	assigned := make([]string, len(contents))
	for i := range contents {
		if len(ids) != 0 && ids[i] != "" {
			assigned[i] = ids[i]
			continue
		}
		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("failed to generate document id: %w", err)
		}
		assigned[i] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range contents {
		meta := map[string]string{"source": "unknown"}
		if len(metadatas) != 0 && metadatas[i] != nil {
			meta = metadatas[i]
		}
		s.ids = append(s.ids, assigned[i])
		s.contents = append(s.contents, contents[i])
		s.embeddings = append(s.embeddings, embeddings[i])
		s.metadatas = append(s.metadatas, meta)
	}

	if err := s.writeSnapshotLocked(ctx); err != nil {
		return nil, err
	}
	return assigned, nil
}

// Search embeds the query and ranks the stored documents against it.
func (s *VectorStore) Search(
	ctx context.Context,
	query string,
	k int,
	filter map[string]string,
) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	s.mu.RLock()
	empty := len(s.ids) == 0
	s.mu.RUnlock()
	if empty {
		return []vectorstore.SearchResult{}, nil
	}

	queryVec, err := s.aiClient.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rank(queryVec, k, filter), nil
}

// rank is the linear scan behind Search, isolated so an approximate index
// could replace it without touching the rest of the store. Caller holds at
// least the read lock.
func (s *VectorStore) rank(queryVec []float32, k int, filter map[string]string) []vectorstore.SearchResult {
	results := make([]vectorstore.SearchResult, 0, k)
	for i := range s.ids {
		if !metadataMatches(s.metadatas[i], filter) {
			continue
		}
		score := math.Round(cosineSimilarity(queryVec, s.embeddings[i])*10000) / 10000
		results = append(results, vectorstore.SearchResult{
			Document: vectorstore.Document{
				ID:       s.ids[i],
				Content:  s.contents[i],
				Metadata: s.metadatas[i],
			},
			Score: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func metadataMatches(meta, filter map[string]string) bool {
	for key, want := range filter {
		if meta[key] != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DeleteAll drops every document, removes the snapshot file and deletes the
// backup object when one is configured.
func (s *VectorStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	s.contents = nil
	s.embeddings = nil
	s.metadatas = nil

	if s.persistDir != "" {
		if err := os.Remove(s.snapshotPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove snapshot: %w", err)
		}
	}
	if s.backup != nil {
		if err := s.backup.Delete(ctx, s.backupKey()); err != nil {
			logger.Warn("Snapshot backup delete failed", "collection", s.collection, "error", err)
		}
	}
	return nil
}

func (s *VectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids), nil
}

func (s *VectorStore) ListAll(ctx context.Context) ([]vectorstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]vectorstore.Document, 0, len(s.ids))
	for i := range s.ids {
		docs = append(docs, vectorstore.Document{
			ID:       s.ids[i],
			Content:  s.contents[i],
			Metadata: s.metadatas[i],
		})
	}
	return docs, nil
}

func (s *VectorStore) Stats(ctx context.Context) (vectorstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return vectorstore.Stats{
		Documents:  len(s.ids),
		Collection: s.collection,
		Backend:    "memory",
	}, nil
}
