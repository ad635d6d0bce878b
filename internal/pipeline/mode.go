package pipeline

import "github.com/temirov/llm-prompter/internal/templates"

// Mode is the prompt-execution strategy selected once per run.
type Mode int

const (
	ModeBasic Mode = iota
	ModeTemplate
	ModeJSONPipe
)

func (m Mode) String() string {
	switch m {
	case ModeBasic:
		return "basic"
	case ModeTemplate:
		return "template"
	case ModeJSONPipe:
		return "json-pipe"
	default:
		return "unknown"
	}
}

// ModeFor derives the mode from the shape of the template set.
func ModeFor(set templates.Set) Mode {
	switch {
	case set.Empty():
		return ModeBasic
	case set.JSONPipeEligible:
		return ModeJSONPipe
	default:
		return ModeTemplate
	}
}
