package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/llm-prompter/internal/pipeline"
)

const ollamaChatPath = "/api/chat"

// OllamaClient speaks the Ollama /api/chat endpoint without streaming.
type OllamaClient struct {
	transport httpTransport
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ChatMessage   `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
	Format   json.RawMessage `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message *ChatMessage `json:"message"`
	Error   string       `json:"error"`
}

func (c OllamaClient) Complete(ctx context.Context, request pipeline.LLMRequest) (string, error) {
	bodyBytes, postErr := c.transport.postJSON(ctx, ollamaChatPath, buildOllamaChatRequest(request))
	if postErr != nil {
		return "", postErr
	}
	bodyPreview := truncateForLog(string(bodyBytes), bodyPreviewLimit)

	var response ollamaChatResponse
	if decodeErr := json.Unmarshal(bodyBytes, &response); decodeErr != nil {
		return "", fmt.Errorf("%w: decode ollama chat: %v (body=%s)", ErrMalformedResponse, decodeErr, bodyPreview)
	}
	if strings.TrimSpace(response.Error) != "" {
		return "", fmt.Errorf("%w: ollama: %s", ErrProvider, response.Error)
	}
	if response.Message == nil {
		return "", fmt.Errorf("%w: ollama chat returned no message (body=%s)", ErrMalformedResponse, bodyPreview)
	}
	trimmed := strings.TrimSpace(response.Message.Content)
	if trimmed == "" {
		return "", fmt.Errorf("%w: ollama chat returned empty message (body=%s)", ErrMalformedResponse, bodyPreview)
	}
	return trimmed, nil
}

func buildOllamaChatRequest(request pipeline.LLMRequest) ollamaChatRequest {
	var messages []ChatMessage
	if system := strings.TrimSpace(request.SystemPrompt); system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: request.UserPrompt})

	chatRequest := ollamaChatRequest{
		Model:    request.Model,
		Messages: messages,
		Options:  ollamaOptions(request.Options),
	}
	schema := strings.TrimSpace(request.JSONSchema)
	if schema != "" {
		if json.Valid([]byte(schema)) {
			chatRequest.Format = json.RawMessage(schema)
		} else {
			chatRequest.Format = json.RawMessage(`"json"`)
		}
	}
	return chatRequest
}

// ollamaOptions copies the options and maps max_tokens onto Ollama's num_predict.
func ollamaOptions(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	mapped := make(map[string]any, len(options))
	for key, value := range options {
		mapped[key] = value
	}
	if maxTokens, ok := mapped["max_tokens"]; ok {
		delete(mapped, "max_tokens")
		if _, explicit := mapped["num_predict"]; !explicit {
			mapped["num_predict"] = maxTokens
		}
	}
	return mapped
}
