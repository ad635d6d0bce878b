package pipeline

import (
	"context"

	"github.com/temirov/llm-prompter/internal/templates"
)

// BasicOrchestrator sends the payload text itself as the user prompt.
type BasicOrchestrator struct {
	deps Dependencies
}

func (o BasicOrchestrator) Mode() Mode { return ModeBasic }

func (o BasicOrchestrator) Execute(ctx context.Context, payload Payload) ([]Artifact, error) {
	answer, completeErr := o.deps.complete(ctx, templates.Prompt{User: payload.Text}, o.deps.BasicConvert)
	if completeErr != nil {
		return nil, completeErr
	}
	return []Artifact{{RelativePath: payload.Name, Content: answer}}, nil
}
