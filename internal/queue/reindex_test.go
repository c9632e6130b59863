package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// fakeStore records added contents without embedding anything.
type fakeStore struct {
	contents  []string
	metadatas []map[string]string
}

func (f *fakeStore) Add(ctx context.Context, contents []string, metadatas []map[string]string, ids []string) ([]string, error) {
	f.contents = append(f.contents, contents...)
	f.metadatas = append(f.metadatas, metadatas...)
	out := make([]string, len(contents))
	for i := range contents {
		out[i] = "id"
	}
	return out, nil
}

func (f *fakeStore) Search(ctx context.Context, query string, k int, filter map[string]string) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeStore) DeleteAll(ctx context.Context) error { return nil }
func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.contents), nil
}
func (f *fakeStore) ListAll(ctx context.Context) ([]vectorstore.Document, error) {
	return nil, nil
}
func (f *fakeStore) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return vectorstore.Stats{}, nil
}

func TestProcessReindexMessage_InlineCatalog(t *testing.T) {
	graph := knowledge.NewGraph()
	store := &fakeStore{}

	msg, err := json.Marshal(ReindexJobMsg{
		Message: "test",
		Catalog: json.RawMessage(`[
			{"name": "iPhone 15", "brand": "Apple", "category": "Electronics", "price": 79900},
			{"name": "Galaxy S24", "brand": "Samsung", "category": "Electronics", "price": 69900}
		]`),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ProcessReindexMessage(context.Background(), nil, graph, store, msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, ok := graph.FindEntity("iPhone 15"); !ok {
		t.Fatal("expected product entity in rebuilt graph")
	}
	if _, ok := graph.FindEntity("Samsung"); !ok {
		t.Fatal("expected brand entity in rebuilt graph")
	}
	if len(store.contents) != 2 {
		t.Fatalf("expected 2 summary documents, got %d", len(store.contents))
	}
	if store.metadatas[0]["source"] != "catalog" || store.metadatas[0]["title"] != "iPhone 15" {
		t.Fatalf("expected catalog metadata, got %v", store.metadatas[0])
	}
}

func TestProcessReindexMessage_ReplacesPreviousGraph(t *testing.T) {
	graph := knowledge.NewGraph()
	graph.AddEntity(knowledge.EntityProduct, "Old Product", knowledge.Properties{})
	store := &fakeStore{}

	msg, err := json.Marshal(ReindexJobMsg{
		Catalog: json.RawMessage(`[{"name": "New Product", "brand": "Acme", "price": 100}]`),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ProcessReindexMessage(context.Background(), nil, graph, store, msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, ok := graph.FindEntity("Old Product"); ok {
		t.Fatal("expected previous graph state to be dropped")
	}
	if _, ok := graph.FindEntity("New Product"); !ok {
		t.Fatal("expected new product entity")
	}
}

func TestProcessReindexMessage_MissingPayload(t *testing.T) {
	graph := knowledge.NewGraph()
	store := &fakeStore{}

	msg, err := json.Marshal(ReindexJobMsg{Message: "nothing to do"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ProcessReindexMessage(context.Background(), nil, graph, store, msg); err == nil {
		t.Fatal("expected error when message carries neither catalog nor object key")
	}
}

func TestProcessReindexMessage_EmptyCatalogIsSkipped(t *testing.T) {
	graph := knowledge.NewGraph()
	graph.AddEntity(knowledge.EntityProduct, "Kept Product", knowledge.Properties{})
	store := &fakeStore{}

	msg, err := json.Marshal(ReindexJobMsg{Catalog: json.RawMessage(`[]`)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ProcessReindexMessage(context.Background(), nil, graph, store, msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := graph.FindEntity("Kept Product"); !ok {
		t.Fatal("expected the graph to be left untouched for an empty catalog")
	}
}
