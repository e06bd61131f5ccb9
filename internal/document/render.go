package document

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type renderOptions struct {
	includeSentinel bool
}

// RenderOption configures RenderComments.
type RenderOption func(*renderOptions)

// WithSentinel keeps the edit marker line in the rendered text.
func WithSentinel(include bool) RenderOption {
	return func(o *renderOptions) {
		o.includeSentinel = include
	}
}

// RenderComments turns raw # comment lines into readable text.
//
// The leading '#' and surrounding whitespace are removed from every line.
// Consecutive lines are joined with a space when the previous text ends
// with a letter and the next line starts with one (a wrapped sentence),
// and with a newline otherwise. The Sentinel line is left out unless
// WithSentinel(true) is given.
func RenderComments(comments []string, opts ...RenderOption) string {
	var o renderOptions
	for _, opt := range opts {
		opt(&o)
	}

	var sb strings.Builder
	for _, c := range comments {
		if !o.includeSentinel && c == Sentinel {
			continue
		}
		line := strings.TrimSpace(strings.TrimPrefix(c, "#"))

		if sb.Len() == 0 {
			sb.WriteString(line)
			continue
		}

		last, _ := utf8.DecodeLastRuneInString(sb.String())
		first, _ := utf8.DecodeRuneInString(line)
		if unicode.IsLetter(last) && unicode.IsLetter(first) {
			sb.WriteByte(' ')
		} else {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Description renders the value's comments with the given options.
func (v *Value) Description(opts ...RenderOption) string {
	return RenderComments(v.Comments, opts...)
}
