package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/llm-prompter/internal/pipeline"
)

const (
	openAIChatCompletionsPath = "/chat/completions"
	openAISchemaName          = "response"
)

// OpenAIClient speaks the OpenAI-compatible chat completions API.
type OpenAIClient struct {
	transport httpTransport
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model               string          `json:"model"`
	Messages            []ChatMessage   `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Temperature         *float64        `json:"temperature,omitempty"`
	TopP                *float64        `json:"top_p,omitempty"`
	Seed                *int            `json:"seed,omitempty"`
	Stop                []string        `json:"stop,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string             `json:"type"`
	JSONSchema *jsonSchemaWrapper `json:"json_schema,omitempty"`
}

type jsonSchemaWrapper struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict,omitempty"`
}

type chatMessageResponse struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Refusal   json.RawMessage `json:"refusal,omitempty"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
}

type chatCompletionChoice struct {
	Message      chatMessageResponse `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	Choices []chatCompletionChoice `json:"choices"`
}

func (c OpenAIClient) Complete(ctx context.Context, request pipeline.LLMRequest) (string, error) {
	return c.CreateChatCompletion(ctx, buildChatCompletionRequest(request))
}

func buildChatCompletionRequest(request pipeline.LLMRequest) ChatCompletionRequest {
	var messages []ChatMessage
	if system := strings.TrimSpace(request.SystemPrompt); system != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: request.UserPrompt})

	completionRequest := ChatCompletionRequest{
		Model:               request.Model,
		Messages:            messages,
		MaxCompletionTokens: optionInt(request.Options, "max_tokens"),
		Temperature:         optionFloat(request.Options, "temperature"),
		TopP:                optionFloat(request.Options, "top_p"),
		Stop:                optionStrings(request.Options, "stop"),
	}
	if _, hasSeed := request.Options["seed"]; hasSeed {
		seed := optionInt(request.Options, "seed")
		completionRequest.Seed = &seed
	}

	schema := strings.TrimSpace(request.JSONSchema)
	if schema != "" {
		if json.Valid([]byte(schema)) {
			completionRequest.ResponseFormat = &responseFormat{
				Type:       "json_schema",
				JSONSchema: &jsonSchemaWrapper{Name: openAISchemaName, Schema: json.RawMessage(schema)},
			}
		} else {
			completionRequest.ResponseFormat = &responseFormat{Type: "json_object"}
		}
	}
	return completionRequest
}

func (c OpenAIClient) CreateChatCompletion(ctx context.Context, requestPayload ChatCompletionRequest) (string, error) {
	bodyBytes, postErr := c.transport.postJSON(ctx, openAIChatCompletionsPath, requestPayload)
	if postErr != nil {
		return "", postErr
	}
	bodyPreview := truncateForLog(string(bodyBytes), bodyPreviewLimit)

	var completion ChatCompletionResponse
	if decodeErr := json.Unmarshal(bodyBytes, &completion); decodeErr != nil {
		return "", fmt.Errorf("%w: decode chat completion: %v (body=%s)", ErrMalformedResponse, decodeErr, bodyPreview)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion returned no choices (body=%s)", ErrMalformedResponse, bodyPreview)
	}

	choice := completion.Choices[0]
	content, extractErr := extractMessageContent(choice.Message)
	if extractErr != nil {
		return "", fmt.Errorf("chat completion parse error: %w (body=%s)", extractErr, bodyPreview)
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if refusal := decodeRefusal(choice.Message.Refusal); refusal != "" {
			return "", fmt.Errorf("%w: chat completion refusal: %s (body=%s)", ErrProvider, refusal, bodyPreview)
		}
		return "", fmt.Errorf("%w: chat completion returned empty message (finish_reason=%s body=%s)", ErrMalformedResponse, choice.FinishReason, bodyPreview)
	}
	return trimmed, nil
}

func extractMessageContent(message chatMessageResponse) (string, error) {
	if len(message.Content) == 0 || string(message.Content) == "null" {
		refusal := decodeRefusal(message.Refusal)
		if refusal != "" {
			return "", fmt.Errorf("%w: chat completion refusal: %s", ErrProvider, refusal)
		}
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(message.Content, &asString); err == nil {
		return asString, nil
	}

	if text, ok := extractRichText(message.Content); ok {
		return text, nil
	}

	refusal := decodeRefusal(message.Refusal)
	if refusal != "" {
		return "", fmt.Errorf("%w: chat completion refusal: %s", ErrProvider, refusal)
	}

	if len(message.ToolCalls) > 0 && string(message.ToolCalls) != "null" {
		return "", fmt.Errorf("%w: chat completion produced tool_calls: %s", ErrMalformedResponse, truncateForLog(string(message.ToolCalls), 240))
	}

	return "", fmt.Errorf("%w: unsupported message content: %s", ErrMalformedResponse, truncateForLog(string(message.Content), 240))
}

func extractRichText(raw json.RawMessage) (string, bool) {
	fragments := gatherTextFragments(raw)
	if len(fragments) == 0 {
		return "", false
	}
	combined := strings.TrimSpace(strings.Join(fragments, "\n"))
	if combined == "" {
		return "", false
	}
	return combined, true
}

func gatherTextFragments(raw json.RawMessage) []string {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return flattenText(data)
}

func flattenText(value any) []string {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	case []any:
		var collected []string
		for _, item := range v {
			collected = append(collected, flattenText(item)...)
		}
		return collected
	case map[string]any:
		if text, ok := v["text"]; ok {
			return flattenText(text)
		}
		if content, ok := v["content"]; ok {
			return flattenText(content)
		}
		if valuePart, ok := v["value"]; ok {
			return flattenText(valuePart)
		}
		var collected []string
		for _, nested := range v {
			collected = append(collected, flattenText(nested)...)
		}
		return collected
	default:
		return nil
	}
}

func decodeRefusal(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var refusalString string
	if err := json.Unmarshal(raw, &refusalString); err == nil {
		return strings.TrimSpace(refusalString)
	}
	if text, ok := extractRichText(raw); ok {
		return text
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err == nil {
		if textValue, ok := generic["text"].(string); ok {
			return strings.TrimSpace(textValue)
		}
	}
	return strings.TrimSpace(truncateForLog(string(raw), 200))
}
