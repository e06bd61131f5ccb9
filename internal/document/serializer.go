package document

import (
	"bufio"
	"io"
	"strings"
)

// Serialize renders the document back to configuration text.
// Every line, including the last, is terminated by "\n".
func Serialize(d *Document) string {
	var sb strings.Builder
	_, _ = d.WriteTo(&sb)
	return sb.String()
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	return []byte(Serialize(d))
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64

	write := func(line string) error {
		written, err := bw.WriteString(line)
		n += int64(written)
		if err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		n++
		return nil
	}

	for _, e := range d.Entries {
		switch e := e.(type) {
		case *Comment:
			if err := write(e.Text); err != nil {
				return n, err
			}
		case *Value:
			for _, c := range e.Comments {
				if err := write(c); err != nil {
					return n, err
				}
			}
			if err := write(e.Line()); err != nil {
				return n, err
			}
		}
	}

	return n, bw.Flush()
}
