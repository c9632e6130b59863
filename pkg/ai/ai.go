package ai

import (
	"context"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Higher values produce more varied output, lower values more deterministic
// output.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// ModelMetrics accumulates token usage and timing across model calls.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// AIClient is the opaque language-model capability consumed by the retrieval
// core: free-text completion for answer generation and fixed-dimension text
// embeddings for similarity search.
//
// Implementations must return embeddings of a constant dimension for the
// lifetime of the client configuration.
type AIClient interface {
	// GenerateCompletion sends a single-turn prompt to the chat model and
	// returns the generated text.
	GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateEmbedding embeds a single input text.
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)

	// GenerateEmbeddings embeds a batch of inputs in one request, preserving
	// input order in the result.
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)

	// GetMetrics returns accumulated usage metrics since the last reset.
	GetMetrics() ModelMetrics
	// ResetMetrics clears accumulated usage metrics.
	ResetMetrics()
}
