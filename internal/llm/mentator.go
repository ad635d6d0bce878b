package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/llm-prompter/internal/pipeline"
)

const mentatorPromptPath = "/api/v1/prompt"

// MentatorClient speaks the mentator-llm-service prompt endpoint, which accepts
// the prompt definition as-is, including jsonresponse and segments.
type MentatorClient struct {
	transport httpTransport
}

type mentatorPromptRequest struct {
	Model        string            `json:"model"`
	System       string            `json:"system,omitempty"`
	User         string            `json:"user"`
	Options      map[string]any    `json:"options,omitempty"`
	JSONResponse string            `json:"jsonresponse,omitempty"`
	Segment      map[string]string `json:"segment,omitempty"`
}

type mentatorPromptResponse struct {
	Answer *string `json:"answer"`
	Error  string  `json:"error"`
}

func (c MentatorClient) Complete(ctx context.Context, request pipeline.LLMRequest) (string, error) {
	promptRequest := mentatorPromptRequest{
		Model:        request.Model,
		System:       request.SystemPrompt,
		User:         request.UserPrompt,
		Options:      request.Options,
		JSONResponse: request.JSONSchema,
		Segment:      request.Segment,
	}
	bodyBytes, postErr := c.transport.postJSON(ctx, mentatorPromptPath, promptRequest)
	if postErr != nil {
		return "", postErr
	}
	bodyPreview := truncateForLog(string(bodyBytes), bodyPreviewLimit)

	var response mentatorPromptResponse
	if decodeErr := json.Unmarshal(bodyBytes, &response); decodeErr != nil {
		return "", fmt.Errorf("%w: decode mentator answer: %v (body=%s)", ErrMalformedResponse, decodeErr, bodyPreview)
	}
	if strings.TrimSpace(response.Error) != "" {
		return "", fmt.Errorf("%w: mentator: %s", ErrProvider, response.Error)
	}
	if response.Answer == nil {
		return "", fmt.Errorf("%w: mentator returned no answer (body=%s)", ErrMalformedResponse, bodyPreview)
	}
	return strings.TrimSpace(*response.Answer), nil
}
