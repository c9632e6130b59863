package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopgraph/backend/pkg/ai"
)

// fakeAI returns fixed vectors per input text so similarity ordering is
// fully deterministic.
type fakeAI struct {
	vectors map[string][]float32
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "ok", nil
}

func (f *fakeAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if v, ok := f.vectors[string(input)]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (f *fakeAI) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		v, err := f.GenerateEmbedding(ctx, in)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }
func (f *fakeAI) ResetMetrics()               {}

func testAI() *fakeAI {
	return &fakeAI{vectors: map[string][]float32{
		"apple phone":   {1, 0, 0},
		"apple laptop":  {0.9, 0.1, 0},
		"running shoes": {0, 0, 1},
		"phone":         {1, 0, 0},
	}}
}

func newTestStore(t *testing.T, persistDir string) *VectorStore {
	t.Helper()
	s, err := NewVectorStore(NewVectorStoreParams{
		Collection: "test",
		PersistDir: persistDir,
		AIClient:   testAI(),
	})
	if err != nil {
		t.Fatalf("expected store, got error %v", err)
	}
	return s
}

func TestAdd_EmptyInput(t *testing.T) {
	s := newTestStore(t, "")

	ids, err := s.Add(context.Background(), nil, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestAdd_GeneratesIDsAndDefaultMetadata(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	ids, err := s.Add(ctx, []string{"apple phone", "running shoes"}, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] == "" || ids[0] == ids[1] {
		t.Fatalf("expected distinct non-empty ids, got %v", ids)
	}

	docs, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if docs[0].Metadata["source"] != "unknown" {
		t.Fatalf("expected default source metadata, got %v", docs[0].Metadata)
	}
}

func TestSearch_RanksByCosineAndRoundsScores(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	_, err := s.Add(ctx, []string{"running shoes", "apple laptop", "apple phone"}, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	results, err := s.Search(ctx, "phone", 2, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document.Content != "apple phone" {
		t.Fatalf("expected best match 'apple phone', got %q", results[0].Document.Content)
	}
	if results[0].Score != 1.0 {
		t.Fatalf("expected score 1.0, got %v", results[0].Score)
	}
	// cos((0.9,0.1,0),(1,0,0)) = 0.9/sqrt(0.82) rounded to 4 decimals
	if results[1].Score != 0.9939 {
		t.Fatalf("expected score 0.9939, got %v", results[1].Score)
	}
}

func TestSearch_EmptyStore(t *testing.T) {
	s := newTestStore(t, "")

	results, err := s.Search(context.Background(), "phone", 5, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearch_MetadataFilter(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	_, err := s.Add(ctx,
		[]string{"apple phone", "apple laptop"},
		[]map[string]string{
			{"source": "catalog"},
			{"source": "review"},
		}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	results, err := s.Search(ctx, "phone", 5, map[string]string{"source": "review"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 filtered result, got %d", len(results))
	}
	if results[0].Document.Content != "apple laptop" {
		t.Fatalf("expected 'apple laptop', got %q", results[0].Document.Content)
	}
}

func TestSearch_ZeroNormScoresZero(t *testing.T) {
	s := newTestStore(t, "")
	ctx := context.Background()

	// unknown text embeds to the zero vector
	_, err := s.Add(ctx, []string{"unmapped document"}, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	results, err := s.Search(ctx, "phone", 5, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Score != 0.0 {
		t.Fatalf("expected score 0.0 for zero-norm embedding, got %v", results[0].Score)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t, dir)
	ids, err := s.Add(ctx, []string{"apple phone"}, []map[string]string{{"source": "catalog"}}, []string{"doc-1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ids[0] != "doc-1" {
		t.Fatalf("expected supplied id to be kept, got %q", ids[0])
	}

	reloaded := newTestStore(t, dir)
	count, err := reloaded.Count(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 document after reload, got %d", count)
	}

	results, err := reloaded.Search(ctx, "phone", 1, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if results[0].Document.ID != "doc-1" || results[0].Document.Metadata["source"] != "catalog" {
		t.Fatalf("expected persisted document back, got %+v", results[0].Document)
	}
}

func TestSnapshot_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	s := newTestStore(t, dir)
	count, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty store after corrupt snapshot, got %d documents", count)
	}
}

func TestDeleteAll_RemovesSnapshot(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t, dir)
	if _, err := s.Add(ctx, []string{"apple phone"}, nil, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty store, got %d documents", count)
	}
	if _, err := os.Stat(filepath.Join(dir, "test.json")); !os.IsNotExist(err) {
		t.Fatalf("expected snapshot file removed, stat err %v", err)
	}
}

// recordingBackup captures backup calls for assertions.
type recordingBackup struct {
	puts    []string
	deletes []string
}

func (b *recordingBackup) Put(ctx context.Context, key string, body []byte) error {
	b.puts = append(b.puts, key)
	return nil
}

func (b *recordingBackup) Delete(ctx context.Context, key string) error {
	b.deletes = append(b.deletes, key)
	return nil
}

func TestBackupHook(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	backup := &recordingBackup{}

	s, err := NewVectorStore(NewVectorStoreParams{
		Collection: "test",
		PersistDir: dir,
		AIClient:   testAI(),
		Backup:     backup,
	})
	if err != nil {
		t.Fatalf("expected store, got error %v", err)
	}

	if _, err := s.Add(ctx, []string{"apple phone"}, nil, nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(backup.puts) != 1 || backup.puts[0] != "snapshots/test.json" {
		t.Fatalf("expected one backup upload, got %v", backup.puts)
	}

	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(backup.deletes) != 1 {
		t.Fatalf("expected one backup delete, got %v", backup.deletes)
	}
}
