package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/temirov/llm-prompter/internal/config"
	"github.com/temirov/llm-prompter/internal/pipeline"
)

const unsupportedProviderKindErrorFormat = "unsupported provider kind %q"

// Provider encodes a request for one backend and decodes its answer.
type Provider interface {
	Complete(ctx context.Context, request pipeline.LLMRequest) (string, error)
}

// Adapter adapts pipeline.LLMRequest to the configured provider, filling the
// default model and bounding every call by Timeout.
type Adapter struct {
	Provider     Provider
	DefaultModel string
	Timeout      time.Duration
}

// NewAdapter selects the provider encoding from settings.Kind.
func NewAdapter(settings config.AI, httpClient *http.Client) (Adapter, error) {
	transport := httpTransport{
		client:     httpClient,
		baseURL:    strings.TrimSpace(settings.URL),
		credential: settings.Credential(),
	}
	var provider Provider
	switch settings.Kind {
	case config.ProviderKindOpenAPI:
		provider = OpenAIClient{transport: transport}
	case config.ProviderKindOllama:
		provider = OllamaClient{transport: transport}
	case config.ProviderKindMentator:
		provider = MentatorClient{transport: transport}
	default:
		return Adapter{}, fmt.Errorf(unsupportedProviderKindErrorFormat, settings.Kind)
	}
	return Adapter{
		Provider:     provider,
		DefaultModel: strings.TrimSpace(settings.Model),
		Timeout:      settings.RequestTimeout(),
	}, nil
}

func (a Adapter) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	if strings.TrimSpace(req.Model) == "" {
		req.Model = a.DefaultModel
	}

	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	out, err := a.Provider.Complete(callCtx, req)
	if err != nil {
		return pipeline.LLMResponse{}, err
	}
	return pipeline.LLMResponse{RawText: out}, nil
}
