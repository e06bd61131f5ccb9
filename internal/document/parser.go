package document

import (
	"slices"
	"strings"
)

// parseOptions holds Parse settings.
type parseOptions struct {
	dropTrailingComments bool
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

// WithDropTrailingComments discards comment lines at the end of the input
// that are not followed by an assignment or a blank line. By default they
// are kept as Comment entries.
func WithDropTrailingComments() ParseOption {
	return func(o *parseOptions) {
		o.dropTrailingComments = true
	}
}

// Parse parses configuration text into a document. It never fails: lines
// that are not assignments become Comment entries.
func Parse(text string, opts ...ParseOption) *Document {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := parser{doc: New()}
	for _, line := range SplitLines(text) {
		p.line(line)
	}
	if !o.dropTrailingComments {
		p.flush()
	}
	return p.doc
}

// parser is the single-pass line state machine behind Parse.
type parser struct {
	doc     *Document
	pending []string
}

func (p *parser) line(raw string) {
	line := strings.TrimSpace(raw)

	switch {
	case line == "":
		p.flush()
		p.emit(&Comment{Text: ""})
	case line[0] == '#':
		p.pending = append(p.pending, line)
	default:
		name, right, ok := strings.Cut(line, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			p.flush()
			p.emit(&Comment{Text: line})
			return
		}
		value, hint := splitHint(strings.TrimSpace(right))
		p.emit(NewValue(name, value, hint, p.take()))
	}
}

// flush turns buffered comment lines into standalone Comment entries.
func (p *parser) flush() {
	for _, c := range p.take() {
		p.emit(&Comment{Text: c})
	}
}

// take returns the buffered comment lines and clears the buffer.
func (p *parser) take() []string {
	pending := p.pending
	p.pending = nil
	if pending == nil {
		return []string{}
	}
	return slices.Clip(pending)
}

func (p *parser) emit(e Entry) {
	p.doc.Entries = append(p.doc.Entries, e)
}

// splitHint splits the right-hand side of an assignment on its last '#'.
func splitHint(right string) (string, *string) {
	pos := strings.LastIndexByte(right, '#')
	if pos < 0 {
		return right, nil
	}
	hint := strings.TrimSpace(right[pos+1:])
	return strings.TrimSpace(right[:pos]), &hint
}

// SplitLines splits text on "\r\n", "\r" and "\n". A newline at the very
// end of the text terminates the last line and does not start a new one.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
