package templates_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-prompter/internal/fsops"
	"github.com/temirov/llm-prompter/internal/templates"
)

const (
	plainTemplate = `- system: You are terse.
  user: "Summarize: {{payload}}"
- user: "Translate: {{payload}}"
`
	jsonTemplateFirst = `- user: "Extract people from {{payload}}"
  jsonresponse: '{"type":"object"}'
  segment:
    convert: "@extract-json"
`
	jsonTemplateSecond = `- user: "Enrich {{json}}"
  jsonresponse: '{"type":"object"}'
  llm:
    model: bigger-model
  options:
    temperature: 0.2
`
)

func seed(t *testing.T, files map[string]string) fsops.Ops {
	t.Helper()
	mem := fsops.NewMem()
	for name, content := range files {
		require.NoError(t, mem.WriteFile(name, []byte(content), 0o644))
	}
	return fsops.NewOps(mem)
}

func TestLoadPlainTemplates(t *testing.T) {
	ops := seed(t, map[string]string{"/t/plain.yaml": plainTemplate})

	set, err := templates.Load(ops, []string{"/t/plain.yaml"})
	require.NoError(t, err)
	require.False(t, set.JSONPipeEligible)
	require.Len(t, set.Items, 2)
	require.Equal(t, 0, set.Items[1].Group)
	require.Equal(t, 1, set.Items[1].Position)
	require.Equal(t, "You are terse.", set.Items[0].Prompt.System)
}

func TestLoadJSONPipeTemplatesGroupedByFile(t *testing.T) {
	ops := seed(t, map[string]string{
		"/t/first.yaml":  jsonTemplateFirst,
		"/t/second.yaml": jsonTemplateSecond,
	})

	set, err := templates.Load(ops, []string{"/t/first.yaml", "/t/second.yaml"})
	require.NoError(t, err)
	require.True(t, set.JSONPipeEligible)

	groups := set.Groups()
	require.Len(t, groups, 2)
	require.Equal(t, "@extract-json", groups[0][0].Prompt.ConvertScript())
	require.Equal(t, "bigger-model", groups[1][0].Prompt.LLM.Model)
	require.Equal(t, 0.2, groups[1][0].Prompt.Options["temperature"])
	require.Equal(t, "1:0", groups[1][0].Label())
}

func TestLoadRejectsMixedJSONResponse(t *testing.T) {
	ops := seed(t, map[string]string{
		"/t/plain.yaml": plainTemplate,
		"/t/json.yaml":  jsonTemplateFirst,
	})

	_, err := templates.Load(ops, []string{"/t/json.yaml", "/t/plain.yaml"})
	require.True(t, errors.Is(err, templates.ErrMixedJSONResponse))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := templates.Load(seed(t, nil), []string{"/t/absent.yaml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "read template file")
}

func TestLoadWithoutFilesIsEmpty(t *testing.T) {
	set, err := templates.Load(seed(t, nil), nil)
	require.NoError(t, err)
	require.True(t, set.Empty())
	require.False(t, set.JSONPipeEligible)
}

func TestSubstitute(t *testing.T) {
	testCases := []struct {
		name         string
		text         string
		replacements []templates.Replacement
		expected     string
	}{
		{
			name:         "both markers",
			text:         "P={{payload}} J={{json}} P={{payload}}",
			replacements: []templates.Replacement{{Marker: "{{payload}}", Value: "x"}, {Marker: "{{json}}", Value: "{}"}},
			expected:     "P=x J={} P=x",
		},
		{
			name:         "unset marker is a no-op",
			text:         "P={{payload}}",
			replacements: []templates.Replacement{{Marker: "", Value: "ignored"}},
			expected:     "P={{payload}}",
		},
		{
			name:         "replacement value is not rescanned",
			text:         "{{payload}} and {{json}}",
			replacements: []templates.Replacement{{Marker: "{{payload}}", Value: "{{json}}"}, {Marker: "{{json}}", Value: "J"}},
			expected:     "{{json}} and J",
		},
		{
			name:         "empty text",
			text:         "",
			replacements: []templates.Replacement{{Marker: "{{payload}}", Value: "x"}},
			expected:     "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, templates.Substitute(testCase.text, testCase.replacements...))
		})
	}
}

func TestSubstitutedLeavesNoMarkers(t *testing.T) {
	prompt := templates.Prompt{System: "sys {{json}}", User: "user {{payload}} {{json}}"}
	out := prompt.Substituted(
		templates.Replacement{Marker: "{{payload}}", Value: "hello"},
		templates.Replacement{Marker: "{{json}}", Value: `{"a": 1}`},
	)
	for _, text := range []string{out.System, out.User} {
		require.False(t, strings.Contains(text, "{{payload}}"))
		require.False(t, strings.Contains(text, "{{json}}"))
	}
	require.Equal(t, "user {{payload}} {{json}}", prompt.User, "original prompt is not mutated")
}

func TestRenderSampleParses(t *testing.T) {
	for _, jsonResponse := range []bool{false, true} {
		rendered, err := templates.RenderSample(jsonResponse)
		require.NoError(t, err)
		prompts, err := templates.Parse(rendered)
		require.NoError(t, err)
		require.Len(t, prompts, 1)
		require.Equal(t, jsonResponse, prompts[0].ExpectsJSON())
	}
}

func TestJSONResponseKeyPresenceIsTheMarker(t *testing.T) {
	testCases := []struct {
		name     string
		document string
		expected bool
	}{
		{name: "schema text", document: "- user: a\n  jsonresponse: '{\"type\":\"object\"}'\n", expected: true},
		{name: "empty string", document: "- user: a\n  jsonresponse: ''\n", expected: true},
		{name: "whitespace", document: "- user: a\n  jsonresponse: '  '\n", expected: true},
		{name: "null value", document: "- user: a\n  jsonresponse:\n", expected: true},
		{name: "absent", document: "- user: a\n", expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			prompts, err := templates.Parse([]byte(testCase.document))
			require.NoError(t, err)
			require.Len(t, prompts, 1)
			require.Equal(t, testCase.expected, prompts[0].ExpectsJSON())
		})
	}
}

func TestEmptyJSONResponseMakesSetEligible(t *testing.T) {
	ops := seed(t, map[string]string{
		"/t/a.yaml": "- user: one\n  jsonresponse: ''\n",
		"/t/b.yaml": "- user: two {{json}}\n  jsonresponse: ''\n",
	})

	set, err := templates.Load(ops, []string{"/t/a.yaml", "/t/b.yaml"})
	require.NoError(t, err)
	require.True(t, set.JSONPipeEligible)
}
