package rag

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/shopgraph/backend/pkg/logger"
)

const tokenEncoding = "cl100k_base"

// tokenCounter reports when an assembled context exceeds the configured
// token budget. It only warns; the fusion caps are the bounding mechanism,
// so nothing is truncated here.
type tokenCounter struct {
	encoder *tiktoken.Tiktoken
	budget  int
}

func newTokenCounter(budget int) *tokenCounter {
	c := &tokenCounter{budget: budget}
	if budget <= 0 {
		return c
	}

	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		logger.Warn("Token accounting disabled", "encoding", tokenEncoding, "error", err)
		return c
	}
	c.encoder = encoder
	return c
}

func (c *tokenCounter) check(context string) {
	if c.encoder == nil || c.budget <= 0 {
		return
	}

	tokens := len(c.encoder.Encode(context, nil, nil))
	if tokens > c.budget {
		logger.Warn("Assembled context exceeds token budget", "tokens", tokens, "budget", c.budget)
	}
}
