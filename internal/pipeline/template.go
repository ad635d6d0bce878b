package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/temirov/llm-prompter/internal/templates"
)

const templateAnswerNameFormat = "answer-%03d-%03d.txt"

// ExecutionResult is the outcome of one template item.
type ExecutionResult struct {
	Item   templates.Item
	Output string
	Err    error
}

// TemplateOrchestrator runs every template item independently and keeps one artifact per item.
type TemplateOrchestrator struct {
	deps Dependencies
}

func (o TemplateOrchestrator) Mode() Mode { return ModeTemplate }

// Execute returns the artifacts of the items that succeeded together with the
// joined errors of those that failed.
func (o TemplateOrchestrator) Execute(ctx context.Context, payload Payload) ([]Artifact, error) {
	var (
		artifacts []Artifact
		failures  []error
	)
	for _, item := range o.deps.Templates.Items {
		result := o.executeItem(ctx, payload, item)
		if result.Err != nil {
			failures = append(failures, result.Err)
			continue
		}
		artifacts = append(artifacts, Artifact{
			RelativePath: TemplateArtifactPath(payload.Name, item),
			Content:      result.Output,
		})
	}
	return artifacts, errors.Join(failures...)
}

func (o TemplateOrchestrator) executeItem(ctx context.Context, payload Payload, item templates.Item) ExecutionResult {
	prompt := item.Prompt.Substituted(templates.Replacement{Marker: o.deps.Markers.Payload, Value: payload.Text})
	output, completeErr := o.deps.complete(ctx, prompt, item.Prompt.ConvertScript())
	if completeErr != nil {
		return ExecutionResult{Item: item, Err: fmt.Errorf(itemFailureErrorFormat, item.Label(), completeErr)}
	}
	return ExecutionResult{Item: item, Output: output}
}

// TemplateArtifactPath is the answer location of item for payloadName, relative to the answer directory.
func TemplateArtifactPath(payloadName string, item templates.Item) string {
	return path.Join(payloadName, fmt.Sprintf(templateAnswerNameFormat, item.Group, item.Position))
}
