package document

import (
	"slices"
)

// Sentinel is the comment line marking a value as edited by the user.
const Sentinel = "# Edited: YES"

// Entry is one logical unit of a configuration document.
// It is implemented only by *Comment and *Value.
type Entry interface {
	entry()
}

// Comment is a raw line: a # comment, a blank line, or a line that could
// not be parsed as an assignment. Text has no trailing newline.
type Comment struct {
	Text string
}

func (*Comment) entry() {}

// Value is a name = value assignment.
type Value struct {
	// Name is the trimmed left-hand side of the first '='. Never empty.
	Name string

	// Value is the right-hand side up to the hint delimiter, trimmed.
	Value string

	// Hint is the trimmed text after the last '#' of the right-hand side.
	// Nil when the right-hand side has no '#'.
	Hint *string

	// Comments are the # lines immediately preceding the assignment.
	Comments []string

	// Edited reports whether Comments contains Sentinel.
	Edited bool

	// Example is an optional usage snippet, set by the example loader.
	Example *string
}

func (*Value) entry() {}

// NewValue creates a value entry. The edited flag is derived from comments.
func NewValue(name, value string, hint *string, comments []string) *Value {
	return &Value{
		Name:     name,
		Value:    value,
		Hint:     hint,
		Comments: comments,
		Edited:   slices.Contains(comments, Sentinel),
	}
}

// HintText returns the hint, or "" when there is none.
func (v *Value) HintText() string {
	if v.Hint == nil {
		return ""
	}
	return *v.Hint
}

// ExampleText returns the example, or "" when there is none.
func (v *Value) ExampleText() string {
	if v.Example == nil {
		return ""
	}
	return *v.Example
}

// Line returns the assignment line as written by Serialize.
func (v *Value) Line() string {
	if v.Hint == nil {
		return v.Name + " = " + v.Value
	}
	return v.Name + " = " + v.Value + " # " + *v.Hint
}

// Clone returns a deep copy of the value.
func (v *Value) Clone() *Value {
	c := *v
	c.Comments = slices.Clone(v.Comments)
	if v.Hint != nil {
		h := *v.Hint
		c.Hint = &h
	}
	if v.Example != nil {
		ex := *v.Example
		c.Example = &ex
	}
	return &c
}

// Document is an ordered sequence of entries.
// Order is the only relationship between entries.
type Document struct {
	Entries []Entry
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.Entries)
}

// Values returns the value entries in document order.
func (d *Document) Values() []*Value {
	values := make([]*Value, 0, len(d.Entries))
	for _, e := range d.Entries {
		if v, ok := e.(*Value); ok {
			values = append(values, v)
		}
	}
	return values
}

// Lookup returns the first value entry with the given name.
func (d *Document) Lookup(name string) (*Value, bool) {
	for _, e := range d.Entries {
		if v, ok := e.(*Value); ok && v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// EditedCount returns the number of edited value entries.
func (d *Document) EditedCount() int {
	n := 0
	for _, e := range d.Entries {
		if v, ok := e.(*Value); ok && v.Edited {
			n++
		}
	}
	return n
}
