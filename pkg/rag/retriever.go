package rag

import (
	"context"
	"fmt"

	"github.com/shopgraph/backend/pkg/vectorstore"
)

const (
	defaultTopK = 5
	// Low threshold on purpose: under-recall degrades silently to "no
	// context" instead of a visible failure.
	defaultScoreThreshold = 0.1
)

// Retriever runs vector search and drops hits below the similarity
// threshold before they reach fusion.
type Retriever struct {
	store          vectorstore.Store
	topK           int
	scoreThreshold float64
}

func NewRetriever(store vectorstore.Store, topK int, scoreThreshold float64) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	if scoreThreshold <= 0 {
		scoreThreshold = defaultScoreThreshold
	}
	return &Retriever{
		store:          store,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

func (r *Retriever) TopK() int               { return r.topK }
func (r *Retriever) ScoreThreshold() float64 { return r.scoreThreshold }

// Retrieve returns up to topK documents above the score threshold, ranked
// by similarity.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vectorstore.SearchResult, error) {
	results, err := r.store.Search(ctx, query, r.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("vector retrieval failed: %w", err)
	}

	filtered := make([]vectorstore.SearchResult, 0, len(results))
	for _, res := range results {
		if res.Score < r.scoreThreshold {
			continue
		}
		filtered = append(filtered, res)
	}
	return filtered, nil
}
