package templates

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const sampleJSONSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"name": { "type": "string" },
			"age": { "type": "integer" },
			"sex": { "type": "string", "enum": [ "male", "female" ] },
			"hobby": { "type": "string" }
		},
		"required": [ "name", "age", "sex" ]
	}
}`

var sampleUserLines = []string{
	"Get all people (name, age, etc.) from this text:",
	"I am Bob, I am 9 years old and I live on Sunny Street.",
	"My friend Diana lives across from me, she is 8 years old and does gymnastics.",
	"A little further away lives my friend John, he is a year older than me. We like to play tennis with him.",
	"We ask Mr. Smith to judge our game. He is a former tennis referee. And although he is already 92 years old, he still loves his former job and is happy to help us.",
}

// RenderSample produces an example template file. The JSON variant declares a
// jsonresponse schema and a convert segment.
func RenderSample(jsonResponse bool) ([]byte, error) {
	prompt := Prompt{
		System:  "Read the story and answer the question",
		User:    strings.Join(sampleUserLines, "\n"),
		LLM:     LLM{Model: "file-model-name.gguf"},
		Options: map[string]any{"temperature": 0.7, "top_p": 0.9, "max_tokens": 4096},
	}
	if jsonResponse {
		prompt.Options = map[string]any{"temperature": 0.0, "top_p": 0.1, "max_tokens": 4096}
		prompt.JSONResponse = sampleJSONSchema
		prompt.Segment = map[string]string{ConvertSegmentKey: "@extract-json"}
	}
	return yaml.Marshal([]Prompt{prompt})
}
