// Package pgx implements vectorstore.Store on Postgres with the pgvector
// extension. Cosine ranking happens in the database, so restart correctness
// needs no snapshot files.
package pgx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/shopgraph/backend/pkg/ai"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

type VectorStore struct {
	conn       *pgxpool.Pool
	collection string
	aiClient   ai.AIClient
}

type NewVectorStoreParams struct {
	DatabaseURL string
	Collection  string
	Dimensions  int
	AIClient    ai.AIClient
}

// NewVectorStore connects to Postgres, registers the pgvector types and
// ensures the documents table exists.
func NewVectorStore(ctx context.Context, params NewVectorStoreParams) (*VectorStore, error) {
	if params.Collection == "" {
		params.Collection = "documents"
	}
	if params.Dimensions <= 0 {
		params.Dimensions = 384
	}
	if params.AIClient == nil {
		return nil, fmt.Errorf("pgx vector store requires an AI client")
	}

	config, err := pgxpool.ParseConfig(params.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &VectorStore{
		conn:       conn,
		collection: params.Collection,
		aiClient:   params.AIClient,
	}
	if err := s.ensureSchema(ctx, params.Dimensions); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *VectorStore) ensureSchema(ctx context.Context, dimensions int) error {
	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS vector_documents (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions)
	if _, err := s.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure vector_documents table: %w", err)
	}

	_, err := s.conn.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS vector_documents_collection_idx ON vector_documents (collection)")
	if err != nil {
		return fmt.Errorf("failed to ensure collection index: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *VectorStore) Close() {
	s.conn.Close()
}

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

	batch := &pgx.Batch{}
	for i := range contents {
		meta := map[string]string{"source": "unknown"}
		if len(metadatas) != 0 && metadatas[i] != nil {
			meta = metadatas[i]
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		batch.Queue(`
			INSERT INTO vector_documents (id, collection, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content,
			    metadata = EXCLUDED.metadata,
			    embedding = EXCLUDED.embedding`,
			assigned[i], s.collection, contents[i], metaJSON, pgvector.NewVector(embeddings[i]))
	}

	results := s.conn.SendBatch(ctx, batch)
	defer results.Close()
	for range contents {
		if _, err := results.Exec(); err != nil {
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
	}
	return assigned, nil
}

func (s *VectorStore) Search(
	ctx context.Context,
	query string,
	k int,
	filter map[string]string,
) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		k = 5
	}

	queryVec, err := s.aiClient.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filter: %w", err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM vector_documents
		WHERE collection = $2 AND metadata @> $3
		ORDER BY embedding <=> $1
		LIMIT $4`,
		pgvector.NewVector(queryVec), s.collection, filterJSON, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	results := make([]vectorstore.SearchResult, 0, k)
	for rows.Next() {
		var r vectorstore.SearchResult
		var metaJSON []byte
		if err := rows.Scan(&r.Document.ID, &r.Document.Content, &metaJSON, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &r.Document.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
		r.Score = math.Round(r.Score*10000) / 10000
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *VectorStore) DeleteAll(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "DELETE FROM vector_documents WHERE collection = $1", s.collection)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRow(ctx,
		"SELECT count(*) FROM vector_documents WHERE collection = $1", s.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (s *VectorStore) ListAll(ctx context.Context) ([]vectorstore.Document, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, content, metadata
		FROM vector_documents
		WHERE collection = $1
		ORDER BY created_at`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []vectorstore.Document
	for rows.Next() {
		var d vectorstore.Document
		var metaJSON []byte
		if err := rows.Scan(&d.ID, &d.Content, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *VectorStore) Stats(ctx context.Context) (vectorstore.Stats, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return vectorstore.Stats{}, err
	}
	return vectorstore.Stats{
		Documents:  count,
		Collection: s.collection,
		Backend:    "postgres",
	}, nil
}
