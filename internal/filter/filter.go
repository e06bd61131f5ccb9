// Package filter derives ordered views of configuration values.
//
// Apply narrows a list of values by search text, tag, language and edited
// state, and optionally sorts the result by name. The input slice is never
// modified or reordered. View keeps such a result current as the filter
// state, the document, or the edited flags change.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/crustcfg/internal/document"
)

// EditedFilter selects values by their edited flag.
type EditedFilter int

const (
	// EditedAny passes every value.
	EditedAny EditedFilter = iota
	// EditedOnly passes edited values.
	EditedOnly
	// EditedNone passes values that are not edited.
	EditedNone
)

// String returns the filter name.
func (f EditedFilter) String() string {
	switch f {
	case EditedAny:
		return "any"
	case EditedOnly:
		return "edited"
	case EditedNone:
		return "unedited"
	default:
		return "unknown"
	}
}

// ParseEditedFilter maps "any", "edited" or "unedited" to an EditedFilter.
// The empty string maps to EditedAny.
func ParseEditedFilter(s string) (EditedFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return EditedAny, nil
	case "edited":
		return EditedOnly, nil
	case "unedited":
		return EditedNone, nil
	}
	return EditedAny, fmt.Errorf("unknown edited filter %q", s)
}

// State is the complete filter state. The zero State passes everything
// in document order.
type State struct {
	// SearchText holds space-separated words; each must appear in the
	// name or the rendered comments, case-insensitively.
	SearchText string

	// Tag, when set, must be a prefix of the name.
	Tag string

	// Language, when set, must appear in the name.
	Language Language

	// Edited selects by edited flag.
	Edited EditedFilter

	// Sort orders the result by name instead of document order.
	Sort bool
}

// options holds Apply settings.
type options struct {
	render []document.RenderOption
}

// Option configures Apply.
type Option func(*options)

// WithRenderOptions sets how comments are rendered for searching.
func WithRenderOptions(opts ...document.RenderOption) Option {
	return func(o *options) {
		o.render = opts
	}
}

// Apply returns the values passing every predicate of state, in document
// order or sorted by name when state.Sort is set.
func Apply(values []*document.Value, state State, opts ...Option) []*document.Value {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	words := Tokenize(state.SearchText)

	result := make([]*document.Value, 0, len(values))
	for _, v := range values {
		if !matchSearch(v, words, o.render) {
			continue
		}
		if state.Tag != "" && !strings.HasPrefix(v.Name, state.Tag) {
			continue
		}
		if state.Language != "" && !strings.Contains(v.Name, string(state.Language)) {
			continue
		}
		if !matchEdited(v, state.Edited) {
			continue
		}
		result = append(result, v)
	}

	if state.Sort {
		slices.SortStableFunc(result, func(a, b *document.Value) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
	return result
}

// Tokenize splits search text on spaces into lowercase words, dropping
// empty ones.
func Tokenize(text string) []string {
	var words []string
	for _, w := range strings.Split(text, " ") {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func matchSearch(v *document.Value, words []string, render []document.RenderOption) bool {
	if len(words) == 0 {
		return true
	}
	name := strings.ToLower(v.Name)
	comment := strings.ToLower(document.RenderComments(v.Comments, render...))
	for _, w := range words {
		if !strings.Contains(name, w) && !strings.Contains(comment, w) {
			return false
		}
	}
	return true
}

func matchEdited(v *document.Value, f EditedFilter) bool {
	switch f {
	case EditedOnly:
		return v.Edited
	case EditedNone:
		return !v.Edited
	default:
		return true
	}
}

// Tag returns the grouping key of a name: the text up to and including
// the first '_', or the whole name when it has none.
func Tag(name string) string {
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[:i+1]
	}
	return name
}

// Tags returns the distinct tags of values, sorted.
func Tags(values []*document.Value) []string {
	seen := make(map[string]struct{}, len(values))
	tags := make([]string, 0)
	for _, v := range values {
		tag := Tag(v.Name)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}
