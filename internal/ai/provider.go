package ai

import "context"

// Provider abstracts the hosted generative model. Implementations return
// the model's raw text output; callers own extraction and validation,
// since even schema-constrained output is untrusted.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds provider selection and credentials
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}
