// Package vectorstore defines the storage interface for embedded text chunks
// shared by the in-memory and Postgres implementations.
package vectorstore

import "context"

// Document is one stored text chunk with its metadata.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Stats summarizes a store for the stats endpoint.
type Stats struct {
	Documents  int    `json:"documents"`
	Collection string `json:"collection"`
	Backend    string `json:"backend"`
}

// Store persists and ranks embedded documents. Implementations embed the
// inputs themselves so callers only ever deal in text.
type Store interface {
	// Add embeds and stores the given contents. Metadatas and ids are
	// optional; generated ids are returned in input order. An empty input
	// returns an empty slice without error.
	Add(ctx context.Context, contents []string, metadatas []map[string]string, ids []string) ([]string, error)

	// Search returns up to k documents ranked by cosine similarity to the
	// query, optionally restricted to documents whose metadata contains
	// every key/value pair in filter. An empty store yields an empty result.
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]SearchResult, error)

	// DeleteAll removes every document and any persisted state.
	DeleteAll(ctx context.Context) error

	Count(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]Document, error)
	Stats(ctx context.Context) (Stats, error)
}
