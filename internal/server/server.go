package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"

	"github.com/shopgraph/backend/internal/queue"
	mid "github.com/shopgraph/backend/internal/server/middleware"
	"github.com/shopgraph/backend/internal/storage"
	"github.com/shopgraph/backend/internal/util"
	"github.com/shopgraph/backend/pkg/ai"
	oai "github.com/shopgraph/backend/pkg/ai/ollama"
	gai "github.com/shopgraph/backend/pkg/ai/openai"
	"github.com/shopgraph/backend/pkg/knowledge"
	"github.com/shopgraph/backend/pkg/logger"
	"github.com/shopgraph/backend/pkg/rag"
	"github.com/shopgraph/backend/pkg/vectorstore"
	memstore "github.com/shopgraph/backend/pkg/vectorstore/memory"
	pgstore "github.com/shopgraph/backend/pkg/vectorstore/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func newAIClient() ai.AIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewClient(oai.NewClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			AnswerModel:    util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			EmbedDim:              int(util.GetEnvNumeric("AI_EMBED_DIM", 384)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewClient(gai.NewClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			AnswerModel:    util.GetEnv("AI_CHAT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			EmbedDim:              int(util.GetEnvNumeric("AI_EMBED_DIM", 384)),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	}
}

// newStore picks Postgres when DATABASE_URL is set, otherwise the in-memory
// store with a disk snapshot (and an S3 backup when configured).
func newStore(ctx context.Context, aiClient ai.AIClient, backup *storage.SnapshotBackup) vectorstore.Store {
	collection := util.GetEnvString("VECTOR_COLLECTION", "documents")

	if databaseURL := util.GetEnv("DATABASE_URL"); databaseURL != "" {
		store, err := pgstore.NewVectorStore(ctx, pgstore.NewVectorStoreParams{
			DatabaseURL: databaseURL,
			Collection:  collection,
			Dimensions:  int(util.GetEnvNumeric("AI_EMBED_DIM", 384)),
			AIClient:    aiClient,
		})
		if err != nil {
			logger.Fatal("Failed to create Postgres vector store", "err", err)
		}
		return store
	}

	params := memstore.NewVectorStoreParams{
		Collection: collection,
		PersistDir: util.GetEnvString("VECTOR_PERSIST_DIR", "./data"),
		AIClient:   aiClient,
	}
	if backup != nil {
		params.Backup = backup
	}
	store, err := memstore.NewVectorStore(params)
	if err != nil {
		logger.Fatal("Failed to create vector store", "err", err)
	}
	return store
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s3Client := storage.NewS3Client(ctx)
	aiClient := newAIClient()
	store := newStore(ctx, aiClient, storage.NewSnapshotBackup(s3Client))
	graph := knowledge.NewGraph()

	pipeline, err := rag.NewPipeline(rag.NewPipelineParams{
		Store:    store,
		Graph:    graph,
		AIClient: aiClient,
		Model:    util.GetEnv("AI_CHAT_MODEL"),
		TopK:     int(util.GetEnvNumeric("RAG_TOP_K", 5)),
		// Unset threshold resolves to the retriever default of 0.1.
		ScoreThreshold:     util.GetEnvNumeric("RAG_SCORE_THRESHOLD", 0),
		ContextTokenBudget: int(util.GetEnvNumeric("RAG_CONTEXT_TOKEN_BUDGET", 0)),
	})
	if err != nil {
		logger.Fatal("Failed to create RAG pipeline", "err", err)
	}

	que := queue.Init()
	var ch *amqp091.Channel
	if que != nil {
		defer que.Close()
		channel, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer channel.Close()
		if err := queue.SetupQueues(channel); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		if err := queue.StartConsumer(ctx, que, s3Client, graph, store); err != nil {
			logger.Fatal("Failed to start reindex consumer", "err", err)
		}
		ch = channel
	}

	app := &mid.App{
		Pipeline: pipeline,
		Graph:    graph,
		Store:    store,
		Queue:    ch,
		S3:       s3Client,
		AiClient: aiClient,
	}
	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("64M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
