package templates

import "strings"

// Replacement pairs a placeholder marker with its value. An empty marker is ignored.
type Replacement struct {
	Marker string
	Value  string
}

// Substitute replaces every configured marker in a single pass; inserted values are never rescanned.
func Substitute(text string, replacements ...Replacement) string {
	var oldNew []string
	for _, replacement := range replacements {
		if replacement.Marker == "" {
			continue
		}
		oldNew = append(oldNew, replacement.Marker, replacement.Value)
	}
	if len(oldNew) == 0 || text == "" {
		return text
	}
	return strings.NewReplacer(oldNew...).Replace(text)
}

// Substituted returns a copy of the prompt with replacements applied to the system and user slots.
func (p Prompt) Substituted(replacements ...Replacement) Prompt {
	out := p
	out.System = Substitute(p.System, replacements...)
	out.User = Substitute(p.User, replacements...)
	return out
}
