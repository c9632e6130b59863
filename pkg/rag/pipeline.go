// Package rag orchestrates hybrid retrieval: vector hits and knowledge graph
// facts are fused into one evidence context with the graph given trust
// priority, then handed to the answer generator.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopgraph/backend/pkg/ai"
	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/vectorstore"
)

// Retrieval modes accepted by Query.
const (
	ModeVectorOnly = "vector_only"
	ModeGraphOnly  = "graph_only"
	ModeHybrid     = "hybrid"
)

// Fusion caps. Graph facts are exact while vector hits are approximate, so
// the vector contribution shrinks whenever the graph matched anything.
const (
	maxVectorHits          = 3
	maxVectorHitsWithGraph = 1
	maxGraphEntities       = 2
	maxEntityRelationships = 5
)

// GraphIndex is the slice of the knowledge graph the pipeline consumes.
// *knowledge.Graph satisfies it.
type GraphIndex interface {
	SearchEntities(query string, entityType string, limit int) []knowledge.Entity
	GetRelated(entityID string, relType string) []knowledge.Related
}

// Source is one citation attached to an answer.
type Source struct {
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Score  float64 `json:"relevance_score"`
}

// Result is the outcome of one Query call.
type Result struct {
	Answer             string   `json:"answer"`
	Sources            []Source `json:"sources"`
	ContextUsed        bool     `json:"context_used"`
	DocumentsRetrieved int      `json:"documents_retrieved"`
	GraphEntitiesFound int      `json:"graph_entities_found"`
	RetrievalMode      string   `json:"retrieval_mode"`
	Model              string   `json:"model"`
}

// Pipeline wires the vector store, the knowledge graph and the generator
// together. It holds no per-query state; every Query call is independent.
type Pipeline struct {
	store     vectorstore.Store
	graph     GraphIndex
	generator ai.AIClient
	retriever *Retriever
	model     string
	tokens    *tokenCounter
}

type NewPipelineParams struct {
	Store    vectorstore.Store
	Graph    GraphIndex
	AIClient ai.AIClient
	// Model names the answer model in results; empty uses the client default.
	Model          string
	TopK           int
	ScoreThreshold float64
	// ContextTokenBudget enables a warning when the assembled context
	// exceeds it. Zero disables token accounting.
	ContextTokenBudget int
}

func NewPipeline(params NewPipelineParams) (*Pipeline, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("pipeline requires a vector store")
	}
	if params.Graph == nil {
		return nil, fmt.Errorf("pipeline requires a knowledge graph")
	}
	if params.AIClient == nil {
		return nil, fmt.Errorf("pipeline requires an AI client")
	}

	return &Pipeline{
		store:     params.Store,
		graph:     params.Graph,
		generator: params.AIClient,
		retriever: NewRetriever(params.Store, params.TopK, params.ScoreThreshold),
		model:     params.Model,
		tokens:    newTokenCounter(params.ContextTokenBudget),
	}, nil
}

// Query answers a question in the given retrieval mode. An empty mode means
// hybrid; an unknown mode is an error.
func (p *Pipeline) Query(ctx context.Context, question string, mode string) (Result, error) {
	if mode == "" {
		mode = ModeHybrid
	}
	switch mode {
	case ModeVectorOnly, ModeGraphOnly, ModeHybrid:
	default:
		return Result{}, fmt.Errorf("unknown retrieval mode %q", mode)
	}

	var docs []vectorstore.SearchResult
	if mode != ModeGraphOnly {
		retrieved, err := p.retriever.Retrieve(ctx, question)
		if err != nil {
			return Result{}, err
		}
		docs = retrieved
		if len(docs) > maxVectorHits {
			docs = docs[:maxVectorHits]
		}
		logger.Debug("Vector search finished", "documents", len(docs))
	}

	var graphContext string
	var foundEntities []string
	if mode != ModeVectorOnly {
		graphContext, foundEntities = p.collectGraphContext(question)
		if len(foundEntities) > 0 {
			logger.Debug("Graph search matched entities", "entities", foundEntities)
		}
	}

	if len(docs) == 0 && graphContext == "" {
		answer, err := p.generator.GenerateCompletion(ctx, question)
		if err != nil {
			return Result{}, fmt.Errorf("answer generation failed: %w", err)
		}
		return Result{
			Answer:        answer,
			Sources:       []Source{},
			ContextUsed:   false,
			RetrievalMode: mode,
			Model:         p.model,
		}, nil
	}

	// Graph facts outrank vector hits: once the graph matched, a single
	// vector document is enough supplement.
	if mode == ModeHybrid && len(foundEntities) > 0 && len(docs) > maxVectorHitsWithGraph {
		docs = docs[:maxVectorHitsWithGraph]
	}

	var contextParts []string
	if graphContext != "" {
		contextParts = append(contextParts, graphContextHeader+graphContext)
	}
	if len(docs) > 0 {
		var b strings.Builder
		b.WriteString(vectorContextHeader)
		for _, doc := range docs {
			source := doc.Document.Metadata["source"]
			if source == "" {
				source = "unknown"
			}
			fmt.Fprintf(&b, "[Source: %s]\n%s\n\n", source, doc.Document.Content)
		}
		contextParts = append(contextParts, b.String())
	}
	if graphContext != "" && len(docs) > 0 {
		contextParts = append(contextParts, trustOrderingInstruction)
	}

	evidence := strings.Join(contextParts, "\n\n")
	p.tokens.check(evidence)

	sources := make([]Source, 0, len(docs)+1)
	if graphContext != "" {
		sources = append(sources, Source{
			Source: "Knowledge Graph",
			Title:  fmt.Sprintf("Graph Connections (%s)", strings.Join(foundEntities, ", ")),
			Score:  1.0,
		})
	}
	for _, doc := range docs {
		meta := doc.Document.Metadata
		source := meta["source"]
		if source == "" {
			source = "unknown"
		}
		title := meta["title"]
		if title == "" {
			title = source
		}
		sources = append(sources, Source{Source: source, Title: title, Score: doc.Score})
	}

	prompt := fmt.Sprintf(answerPromptTemplate, evidence, question)
	opts := []ai.GenerateOption{}
	if p.model != "" {
		opts = append(opts, ai.WithModel(p.model))
	}
	answer, err := p.generator.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("answer generation failed: %w", err)
	}

	return Result{
		Answer:             answer,
		Sources:            sources,
		ContextUsed:        true,
		DocumentsRetrieved: len(docs),
		GraphEntitiesFound: len(foundEntities),
		RetrievalMode:      mode,
		Model:              p.model,
	}, nil
}

// collectGraphContext formats the best-matching graph entities as a
// structured evidence block. At most maxGraphEntities entities contribute,
// each with up to maxEntityRelationships relationships.
func (p *Pipeline) collectGraphContext(question string) (string, []string) {
	var b strings.Builder
	var found []string

	for _, entity := range p.graph.SearchEntities(question, "", 0) {
		found = append(found, entity.Name)

		fmt.Fprintf(&b, "Entity: %s (%s)\n", entity.Name, entity.Type)
		if props := formatProperties(entity.Properties); props != "" {
			fmt.Fprintf(&b, "Properties: %s\n", props)
		}

		related := p.graph.GetRelated(entity.ID, "")
		if len(related) > maxEntityRelationships {
			related = related[:maxEntityRelationships]
		}
		if len(related) > 0 {
			b.WriteString("Relationships:\n")
			for _, rel := range related {
				arrow := "->"
				if rel.Direction == "incoming" {
					arrow = "<-"
				}
				fmt.Fprintf(&b, "- %s %s %s (%s)\n", arrow, rel.Relationship, rel.Entity.Name, rel.Entity.Type)
			}
		}
		b.WriteString("\n")

		if len(found) >= maxGraphEntities {
			break
		}
	}
	return b.String(), found
}

func formatProperties(props knowledge.Properties) string {
	var parts []string
	if props.Price != 0 {
		parts = append(parts, "price: "+strconv.FormatFloat(props.Price, 'f', -1, 64))
	}
	if props.Rating != 0 {
		parts = append(parts, "rating: "+strconv.FormatFloat(props.Rating, 'f', -1, 64))
	}
	if props.ReviewsCount != 0 {
		parts = append(parts, "reviews_count: "+strconv.Itoa(props.ReviewsCount))
	}
	if props.Brand != "" {
		parts = append(parts, "brand: "+props.Brand)
	}
	if props.Category != "" {
		parts = append(parts, "category: "+props.Category)
	}
	if props.Description != "" {
		parts = append(parts, "description: "+props.Description)
	}
	if len(props.Features) > 0 {
		parts = append(parts, "features: "+strings.Join(props.Features, "; "))
	}
	if len(props.Extra) > 0 {
		keys := make([]string, 0, len(props.Extra))
		for k := range props.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+": "+props.Extra[k])
		}
	}
	return strings.Join(parts, ", ")
}

// DocumentInput is one document submitted through AddDocuments.
type DocumentInput struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// AddDocuments stores every non-empty document and returns how many were
// added.
func (p *Pipeline) AddDocuments(ctx context.Context, docs []DocumentInput) (int, error) {
	var contents []string
	var metadatas []map[string]string
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		contents = append(contents, doc.Content)
		metadatas = append(metadatas, doc.Metadata)
	}
	if len(contents) == 0 {
		return 0, nil
	}

	if _, err := p.store.Add(ctx, contents, metadatas, nil); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	return len(contents), nil
}

// PipelineStats reports the store state alongside retriever configuration.
type PipelineStats struct {
	Store          vectorstore.Stats `json:"store"`
	Model          string            `json:"llm_model"`
	TopK           int               `json:"retriever_top_k"`
	ScoreThreshold float64           `json:"retriever_threshold"`
}

func (p *Pipeline) Stats(ctx context.Context) (PipelineStats, error) {
	storeStats, err := p.store.Stats(ctx)
	if err != nil {
		return PipelineStats{}, err
	}
	return PipelineStats{
		Store:          storeStats,
		Model:          p.model,
		TopK:           p.retriever.TopK(),
		ScoreThreshold: p.retriever.ScoreThreshold(),
	}, nil
}
