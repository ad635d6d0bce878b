package pipeline

import "context"

// LLMRequest is one prompt ready to be sent to the completion endpoint.
type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string
	Options      map[string]any
	// JSONSchema is the prompt's jsonresponse text; empty when no JSON answer is expected.
	JSONSchema string
	Segment    map[string]string
}

type LLMResponse struct {
	RawText string
}

// LLMClient performs a single completion call. Implementations do not retry.
type LLMClient interface {
	Chat(ctx context.Context, request LLMRequest) (LLMResponse, error)
}

// Transformer post-processes raw completion text with an optional script.
type Transformer interface {
	Apply(ctx context.Context, raw string, script string) (string, error)
}

// Artifact is one answer file, addressed relative to the answer directory.
type Artifact struct {
	RelativePath string
	Content      string
}

// Payload is the unit of work handed to an orchestrator.
type Payload struct {
	Name string
	Text string
}

// Orchestrator executes the prompts for one payload file. It may return artifacts
// together with an error when part of the work succeeded.
type Orchestrator interface {
	Mode() Mode
	Execute(ctx context.Context, payload Payload) ([]Artifact, error)
}
