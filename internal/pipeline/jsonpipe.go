package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/temirov/llm-prompter/internal/templates"
)

const (
	emptyChainContext        = "{}"
	prettyIndent             = "    "
	itemFailureErrorFormat   = "item %s: %w"
	parseAnswerErrorFormat   = "item %s: parse json answer: %w (answer=%s)"
	answerPreviewLimit       = 280
	unknownPolicyErrorFormat = "unknown empty group policy %d"
)

// ErrEmptyGroupResult marks a non-first group whose items all produced empty JSON.
var ErrEmptyGroupResult = errors.New("empty result for group")

// EmptyGroupPolicy decides what an all-empty group means for the file.
type EmptyGroupPolicy int

const (
	// EmptyGroupStop ends the chain successfully with an empty object.
	EmptyGroupStop EmptyGroupPolicy = iota
	// EmptyGroupFail fails the file.
	EmptyGroupFail
)

// EmptyGroupPolicyFor returns the policy for the group at ordinal (0 is the first group).
func EmptyGroupPolicyFor(ordinal int) EmptyGroupPolicy {
	if ordinal == 0 {
		return EmptyGroupStop
	}
	return EmptyGroupFail
}

// JSONPipeOrchestrator chains template groups, feeding each group the JSON produced by the previous one.
type JSONPipeOrchestrator struct {
	deps Dependencies
}

func (o JSONPipeOrchestrator) Mode() Mode { return ModeJSONPipe }

func (o JSONPipeOrchestrator) Execute(ctx context.Context, payload Payload) ([]Artifact, error) {
	chain := json.RawMessage(emptyChainContext)

	for ordinal, group := range o.deps.Templates.Groups() {
		for _, item := range group {
			next, itemErr := o.executeItem(ctx, payload, item, chain)
			if itemErr != nil {
				return nil, itemErr
			}
			chain = next
			if !isEmptyJSON(chain) {
				break
			}
		}
		if !isEmptyJSON(chain) {
			continue
		}

		switch policy := EmptyGroupPolicyFor(ordinal); policy {
		case EmptyGroupStop:
			return []Artifact{{RelativePath: payload.Name, Content: emptyChainContext}}, nil
		case EmptyGroupFail:
			return nil, fmt.Errorf("%w %d", ErrEmptyGroupResult, group[0].Group)
		default:
			return nil, fmt.Errorf(unknownPolicyErrorFormat, policy)
		}
	}

	return []Artifact{{RelativePath: payload.Name, Content: prettyJSON(chain)}}, nil
}

func (o JSONPipeOrchestrator) executeItem(ctx context.Context, payload Payload, item templates.Item, chain json.RawMessage) (json.RawMessage, error) {
	prompt := item.Prompt.Substituted(
		templates.Replacement{Marker: o.deps.Markers.Payload, Value: payload.Text},
		templates.Replacement{Marker: o.deps.Markers.JSON, Value: prettyJSON(chain)},
	)
	answer, completeErr := o.deps.complete(ctx, prompt, item.Prompt.ConvertScript())
	if completeErr != nil {
		return nil, fmt.Errorf(itemFailureErrorFormat, item.Label(), completeErr)
	}
	trimmed := strings.TrimSpace(answer)
	var probe any
	if parseErr := json.Unmarshal([]byte(trimmed), &probe); parseErr != nil {
		return nil, fmt.Errorf(parseAnswerErrorFormat, item.Label(), parseErr, truncate(trimmed, answerPreviewLimit))
	}
	return json.RawMessage(trimmed), nil
}

// isEmptyJSON reports whether raw is null, an empty object or array, or an empty string.
func isEmptyJSON(raw json.RawMessage) bool {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return true
	}
	switch typed := value.(type) {
	case nil:
		return true
	case map[string]any:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	case string:
		return typed == ""
	default:
		return false
	}
}

// prettyJSON indents raw with four spaces, keeping the key order the model produced.
func prettyJSON(raw json.RawMessage) string {
	var buffer bytes.Buffer
	if err := json.Indent(&buffer, raw, "", prettyIndent); err != nil {
		return string(raw)
	}
	return buffer.String()
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
