package document

import (
	"slices"
	"strings"
)

var (
	boolChoices = []string{"true", "false"}

	// iarfChoices are the ignore/add/remove/force option values.
	iarfChoices = []string{"ignore", "add", "remove", "force", "not_defined"}
)

// Choices returns the values the entry may take, sorted ascending.
// closed reports whether the list is exhaustive; when it is false the
// list only holds the current value and any text is acceptable.
//
// Boolean and ignore/add/remove/force values get their fixed sets. A hint
// of the form "a/b/c" supplies the set when it contains the current value.
// A slash hint that lacks the current value does not constrain it: the
// result is the open list [value], not an empty one.
func (v *Value) Choices() (choices []string, closed bool) {
	switch {
	case slices.Contains(boolChoices, v.Value):
		choices, closed = slices.Clone(boolChoices), true
	case slices.Contains(iarfChoices, v.Value):
		choices, closed = slices.Clone(iarfChoices), true
	case v.Hint != nil && strings.Contains(*v.Hint, "/"):
		hinted := splitChoices(*v.Hint)
		if len(hinted) > 0 && slices.Contains(hinted, v.Value) {
			choices, closed = hinted, true
		}
	}

	if !closed {
		return []string{v.Value}, false
	}
	slices.Sort(choices)
	return choices, true
}

func splitChoices(hint string) []string {
	var out []string
	for _, part := range strings.Split(hint, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
