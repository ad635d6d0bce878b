// Package templates loads prompt definitions from template files and groups them for execution.
package templates

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/llm-prompter/internal/fsops"
)

// ConvertSegmentKey is the reserved segment holding an answer conversion script.
const ConvertSegmentKey = "convert"

const jsonResponseKey = "jsonresponse"

const (
	readTemplateFileErrorFormat  = "read template file %s: %w"
	parseTemplateFileErrorFormat = "parse template file %s: %w"
)

// ErrMixedJSONResponse rejects a set where only some prompts declare a jsonresponse.
var ErrMixedJSONResponse = errors.New("all templates must either have a jsonresponse or not have a jsonresponse simultaneously")

// Prompt is one prompt definition as written in a template file.
type Prompt struct {
	System       string            `yaml:"system,omitempty"`
	User         string            `yaml:"user"`
	LLM          LLM               `yaml:"llm,omitempty"`
	Options      map[string]any    `yaml:"options,omitempty"`
	JSONResponse string            `yaml:"jsonresponse,omitempty"`
	Segment      map[string]string `yaml:"segment,omitempty"`

	jsonResponseDeclared bool
}

// UnmarshalYAML records whether the jsonresponse key was written, whatever its value.
func (p *Prompt) UnmarshalYAML(node *yaml.Node) error {
	type promptFields Prompt
	var decoded promptFields
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*p = Prompt(decoded)
	if node.Kind == yaml.MappingNode {
		for index := 0; index+1 < len(node.Content); index += 2 {
			if node.Content[index].Value == jsonResponseKey {
				p.jsonResponseDeclared = true
			}
		}
	}
	return nil
}

// LLM carries per-prompt provider overrides.
type LLM struct {
	Model string `yaml:"model,omitempty"`
}

// ExpectsJSON reports whether the prompt carries the jsonresponse marker. An
// empty value still counts when the key is present in the template file.
func (p Prompt) ExpectsJSON() bool { return p.jsonResponseDeclared || p.JSONResponse != "" }

// ConvertScript returns the conversion script stored under the reserved segment key.
func (p Prompt) ConvertScript() string { return p.Segment[ConvertSegmentKey] }

// Item positions a prompt within the set: Group is the template file ordinal,
// Position the ordinal inside that file.
type Item struct {
	Group    int
	Position int
	Prompt   Prompt
}

// Label identifies the item in log lines and errors.
func (i Item) Label() string { return fmt.Sprintf("%d:%d", i.Group, i.Position) }

// Set is the ordered list of template items loaded once per run.
type Set struct {
	Items            []Item
	JSONPipeEligible bool
}

func (s Set) Empty() bool { return len(s.Items) == 0 }

// Groups returns items bucketed by group in ascending group order, each bucket in position order.
func (s Set) Groups() [][]Item {
	buckets := map[int][]Item{}
	var order []int
	for _, item := range s.Items {
		if _, seen := buckets[item.Group]; !seen {
			order = append(order, item.Group)
		}
		buckets[item.Group] = append(buckets[item.Group], item)
	}
	sort.Ints(order)
	groups := make([][]Item, 0, len(order))
	for _, group := range order {
		items := buckets[group]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
		groups = append(groups, items)
	}
	return groups
}

// Load reads every template file in order and validates that the set is homogeneous
// with respect to jsonresponse.
func Load(ops fsops.Ops, files []string) (Set, error) {
	var set Set
	for fileIndex, fileName := range files {
		content, readErr := ops.ReadText(fileName)
		if readErr != nil {
			return Set{}, fmt.Errorf(readTemplateFileErrorFormat, fileName, readErr)
		}
		prompts, parseErr := Parse([]byte(content))
		if parseErr != nil {
			return Set{}, fmt.Errorf(parseTemplateFileErrorFormat, fileName, parseErr)
		}
		for position, prompt := range prompts {
			set.Items = append(set.Items, Item{Group: fileIndex, Position: position, Prompt: prompt})
		}
	}

	eligible, validationErr := jsonPipeEligibility(set.Items)
	if validationErr != nil {
		return Set{}, validationErr
	}
	set.JSONPipeEligible = eligible
	return set, nil
}

// Parse decodes a template file body: a YAML sequence of prompt definitions.
func Parse(content []byte) ([]Prompt, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, nil
	}
	var prompts []Prompt
	if err := yaml.Unmarshal(content, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

func jsonPipeEligibility(items []Item) (bool, error) {
	var withJSON, withoutJSON int
	for _, item := range items {
		if item.Prompt.ExpectsJSON() {
			withJSON++
		} else {
			withoutJSON++
		}
	}
	if withJSON > 0 && withoutJSON > 0 {
		return false, ErrMixedJSONResponse
	}
	return withJSON > 0, nil
}
