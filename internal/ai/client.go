// Package ai implements the AI categorization fallback: a process-wide
// cache in front of an external text-generation API, with token cost
// accounting and a coded error taxonomy.
package ai

import "context"

// Generation is one raw completion from the external model. HasText is false
// when the response carried no text payload at all (non-text content, empty
// content list), which callers treat as "the model declined to answer".
type Generation struct {
	Text         string
	InputTokens  int
	OutputTokens int
	HasText      bool
}

// Client defines the interface for text-generation providers.
type Client interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}
