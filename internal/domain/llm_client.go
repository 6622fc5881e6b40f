package domain

import "context"

// LLMClient sends a prompt to the generation service and returns its text.
// The call carries a bounded timeout; failures are recoverable and callers
// degrade the answer rather than abort the query.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the generated text and whether generation finished.
type LLMResponse struct {
	Text string
	Done bool
}
