package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Failure kinds returned by every provider. Callers match them with errors.Is.
var (
	ErrNetwork           = errors.New("network/timeout")
	ErrProvider          = errors.New("provider-error")
	ErrMalformedResponse = errors.New("malformed-response")
)

const (
	bodyPreviewLimit       = 512
	httpStatusErrorFormat  = "%w: llm http error %d: %s"
	transportErrorFormat   = "%w: %s %s: %v"
	readBodyErrorFormat    = "%w: read response body: %v"
	encodeRequestErrFormat = "encode request: %w"
)

type httpTransport struct {
	client     *http.Client
	baseURL    string
	credential string
}

func (t httpTransport) endpoint(path string) string {
	return strings.TrimRight(t.baseURL, "/") + path
}

// postJSON sends payload and returns the response body of a 2xx reply.
func (t httpTransport) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	requestBytes, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return nil, fmt.Errorf(encodeRequestErrFormat, marshalErr)
	}
	url := t.endpoint(path)
	httpRequest, buildErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBytes))
	if buildErr != nil {
		return nil, fmt.Errorf(transportErrorFormat, ErrNetwork, http.MethodPost, url, buildErr)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if t.credential != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+t.credential)
	}

	httpClient := t.client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	httpResponse, httpErr := httpClient.Do(httpRequest)
	if httpErr != nil {
		return nil, fmt.Errorf(transportErrorFormat, ErrNetwork, http.MethodPost, url, httpErr)
	}
	defer func(closer io.ReadCloser) { _ = closer.Close() }(httpResponse.Body)

	bodyBytes, readErr := io.ReadAll(httpResponse.Body)
	if readErr != nil {
		return nil, fmt.Errorf(readBodyErrorFormat, ErrNetwork, readErr)
	}
	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		return nil, fmt.Errorf(httpStatusErrorFormat, ErrProvider, httpResponse.StatusCode, truncateForLog(string(bodyBytes), bodyPreviewLimit))
	}
	return bodyBytes, nil
}

func truncateForLog(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

func optionFloat(options map[string]any, key string) *float64 {
	switch value := options[key].(type) {
	case float64:
		return &value
	case float32:
		converted := float64(value)
		return &converted
	case int:
		converted := float64(value)
		return &converted
	case int64:
		converted := float64(value)
		return &converted
	default:
		return nil
	}
}

func optionInt(options map[string]any, key string) int {
	switch value := options[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}

func optionStrings(options map[string]any, key string) []string {
	switch value := options[key].(type) {
	case string:
		return []string{value}
	case []string:
		return value
	case []any:
		var collected []string
		for _, item := range value {
			if text, ok := item.(string); ok {
				collected = append(collected, text)
			}
		}
		return collected
	default:
		return nil
	}
}
