// Package transform post-processes raw completion text before it is stored or parsed.
//
// A script is either the name of a built-in transform ("@trim", "@strip-fences",
// "@extract-json") or Go source declaring
//
//	func Convert(raw string) (string, error)
//
// which is interpreted with yaegi. Interpreted scripts see only a whitelist of
// pure standard library packages: no filesystem, network, process or unsafe access.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	namedTransformPrefix        = "@"
	defaultScriptTimeout        = 5 * time.Second
	unknownNamedTransformFormat = "unknown named transform %q"
)

// ErrTransform marks every conversion failure, whatever the mechanism.
var ErrTransform = errors.New("convert/check thrown")

// Func is a pre-registered transform.
type Func func(raw string) (string, error)

var namedTransforms = map[string]Func{
	"@trim":         func(raw string) (string, error) { return strings.TrimSpace(raw), nil },
	"@strip-fences": func(raw string) (string, error) { return stripFences(raw), nil },
	"@extract-json": extractJSON,
}

// Names lists the registered named transforms.
func Names() []string {
	names := make([]string, 0, len(namedTransforms))
	for name := range namedTransforms {
		names = append(names, name)
	}
	return names
}

// Transformer applies conversion scripts. The zero value uses the default script timeout.
type Transformer struct {
	Timeout time.Duration
	sandbox sandbox
}

func New(timeout time.Duration) Transformer {
	return Transformer{Timeout: timeout, sandbox: newSandbox()}
}

// Apply returns raw unchanged when script is blank; otherwise the script output.
func (t Transformer) Apply(ctx context.Context, raw string, script string) (string, error) {
	trimmedScript := strings.TrimSpace(script)
	if trimmedScript == "" {
		return raw, nil
	}
	if strings.HasPrefix(trimmedScript, namedTransformPrefix) {
		transform, ok := namedTransforms[trimmedScript]
		if !ok {
			return "", fmt.Errorf("%w: "+unknownNamedTransformFormat, ErrTransform, trimmedScript)
		}
		converted, err := transform(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrTransform, err.Error())
		}
		return converted, nil
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	scriptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	activeSandbox := t.sandbox
	if activeSandbox.allowedPackages == nil {
		activeSandbox = newSandbox()
	}
	converted, err := activeSandbox.run(scriptCtx, script, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTransform, err.Error())
	}
	return converted, nil
}

func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func extractJSON(raw string) (string, error) {
	text := stripFences(raw)
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", errors.New("no JSON object or array found in answer")
	}
	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(text, closing)
	if end < start {
		return "", errors.New("unterminated JSON value in answer")
	}
	return text[start : end+1], nil
}
