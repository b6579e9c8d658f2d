package llm

import "context"

// Provider is the text-completion collaborator used by the classifiers,
// the tutor runner and the quiz selector. Implementations must be safe
// for concurrent use.
type Provider interface {
	// Generate sends a single-turn prompt and returns the raw text reply.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes a single completion call.
type Request struct {
	// System sets the model's role and constraints. Optional.
	System string

	// Prompt is the user-side input text.
	Prompt string

	// MaxTokens bounds the response size. 0 means provider default.
	MaxTokens int

	// Temperature controls randomness. Default 0 (deterministic).
	Temperature float64
}

// Response holds the model output.
type Response struct {
	Text       string
	Model      string
	StopReason string
}
