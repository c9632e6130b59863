package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/shopgraph/backend/pkg/ai"
)

// Client talks to an OpenAI-compatible API for answer generation and text
// embeddings. Separate underlying clients are kept for the chat and the
// embedding endpoints so they can live on different hosts.
//
// A Client should be created with NewClient.
type Client struct {
	embeddingModel string
	answerModel    string

	embedDim   int
	timeoutMin int

	chatLock      *semaphore.Weighted
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewClientParams configures a Client.
//
// EmbeddingModel and AnswerModel name the models used for embeddings and
// chat completions. EmbedDim fixes the embedding dimension; responses are
// truncated or zero-padded to it. MaxConcurrentRequests bounds in-flight
// requests per endpoint.
type NewClientParams struct {
	EmbeddingModel string
	AnswerModel    string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	EmbedDim              int
	TimeoutMinutes        int
	MaxConcurrentRequests int64
}

// NewClient creates a Client from the given parameters.
//
// Example:
//
//	client := openai.NewClient(openai.NewClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		AnswerModel:    "gpt-4o-mini",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//		EmbedDim:       384,
//	})
func NewClient(params NewClientParams) *Client {
	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 15
	}
	timeoutMin := params.TimeoutMinutes
	if timeoutMin <= 0 {
		timeoutMin = 5
	}
	dim := params.EmbedDim
	if dim <= 0 {
		dim = defaultDimensions
	}

	return &Client{
		embeddingModel: params.EmbeddingModel,
		answerModel:    params.AnswerModel,

		embedDim:   dim,
		timeoutMin: timeoutMin,

		chatLock:      semaphore.NewWeighted(maxReq),
		embeddingLock: semaphore.NewWeighted(maxReq),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
