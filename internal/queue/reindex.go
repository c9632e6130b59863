package queue

import (
	"context"
	"encoding/json"
	"fmt"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shopgraph/backend/internal/storage"
	"github.com/shopgraph/backend/pkg/catalog"
	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// ReindexJobMsg is one catalog reindex request. Either the catalog payload
// is inline or ObjectKey names an S3 object holding it.
type ReindexJobMsg struct {
	Message   string          `json:"message"`
	Catalog   json.RawMessage `json:"catalog,omitempty"`
	ObjectKey string          `json:"object_key,omitempty"`
}

// Reindex rebuilds the knowledge graph from a product catalog and re-adds
// one summary document per product to the vector store.
func Reindex(
	ctx context.Context,
	graph *knowledge.Graph,
	store vectorstore.Store,
	products []catalog.Product,
) error {
	graph.Reset()
	graph.BuildFromProducts(products)
	logger.Info("Knowledge graph rebuilt",
		"products", len(products),
		"entities", graph.EntityCount(),
		"relationships", graph.RelationshipCount(),
	)

	contents := make([]string, 0, len(products))
	metadatas := make([]map[string]string, 0, len(products))
	for _, p := range products {
		contents = append(contents, p.SummaryText())
		metadatas = append(metadatas, map[string]string{
			"source": "catalog",
			"title":  p.Name,
		})
	}

	if _, err := store.Add(ctx, contents, metadatas, nil); err != nil {
		return fmt.Errorf("failed to index product summaries: %w", err)
	}
	logger.Info("Product summaries indexed", "documents", len(contents))
	return nil
}

// ProcessReindexMessage handles one queued reindex job: resolve the catalog
// payload, parse it and rebuild graph and store.
func ProcessReindexMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	graph *knowledge.Graph,
	store vectorstore.Store,
	msg []byte,
) error {
	data := new(ReindexJobMsg)
	if err := json.Unmarshal(msg, data); err != nil {
		return fmt.Errorf("invalid reindex message: %w", err)
	}

	payload := []byte(data.Catalog)
	if len(payload) == 0 {
		if data.ObjectKey == "" {
			return fmt.Errorf("reindex message carries neither catalog nor object key")
		}
		if s3Client == nil {
			return fmt.Errorf("reindex message references object %s but S3 is not configured", data.ObjectKey)
		}
		fetched, err := storage.GetObject(ctx, s3Client, data.ObjectKey)
		if err != nil {
			return fmt.Errorf("failed to fetch catalog object: %w", err)
		}
		payload = fetched
	}

	products, err := catalog.ParseProducts(payload)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(products) == 0 {
		logger.Warn("Reindex job carried an empty catalog, skipping")
		return nil
	}

	return Reindex(ctx, graph, store, products)
}
