package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/temirov/llm-prompter/internal/templates"
)

const unregisteredModeErrorFormat = "no orchestrator registered for mode %s"

// Markers are the placeholder tokens replaced in prompt text. Either may be empty.
type Markers struct {
	Payload string
	JSON    string
}

// Dependencies is everything an orchestrator needs for one run.
type Dependencies struct {
	Client      LLMClient
	Transformer Transformer
	Templates   templates.Set
	Markers     Markers
	// BasicConvert is the conversion script applied to basic-mode answers.
	BasicConvert string
}

// complete sends one prompt and post-processes the answer with the prompt's script.
func (d Dependencies) complete(ctx context.Context, prompt templates.Prompt, script string) (string, error) {
	response, chatErr := d.Client.Chat(ctx, LLMRequest{
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		Model:        prompt.LLM.Model,
		Options:      prompt.Options,
		JSONSchema:   prompt.JSONResponse,
		Segment:      prompt.Segment,
	})
	if chatErr != nil {
		return "", chatErr
	}
	if d.Transformer == nil {
		return response.RawText, nil
	}
	return d.Transformer.Apply(ctx, response.RawText, script)
}

type Factory func(deps Dependencies) Orchestrator

type Registry struct{ modes map[Mode]Factory }

func NewRegistry() *Registry { return &Registry{modes: map[Mode]Factory{}} }

// DefaultRegistry knows the three built-in orchestrators.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(ModeBasic, func(deps Dependencies) Orchestrator { return BasicOrchestrator{deps: deps} })
	registry.Register(ModeTemplate, func(deps Dependencies) Orchestrator { return TemplateOrchestrator{deps: deps} })
	registry.Register(ModeJSONPipe, func(deps Dependencies) Orchestrator { return JSONPipeOrchestrator{deps: deps} })
	return registry
}

func (r *Registry) Register(mode Mode, factory Factory) { r.modes[mode] = factory }

func (r *Registry) Modes() []Mode {
	out := make([]Mode, 0, len(r.modes))
	for mode := range r.modes {
		out = append(out, mode)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Create(mode Mode, deps Dependencies) (Orchestrator, bool) {
	f, ok := r.modes[mode]
	if !ok {
		return nil, false
	}
	return f(deps), true
}

// NewOrchestrator selects the orchestrator matching the template set in deps.
func NewOrchestrator(deps Dependencies) (Orchestrator, error) {
	mode := ModeFor(deps.Templates)
	orchestrator, ok := DefaultRegistry().Create(mode, deps)
	if !ok {
		return nil, fmt.Errorf(unregisteredModeErrorFormat, mode)
	}
	return orchestrator, nil
}
