package document

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"
)

// Load errors.
var (
	// ErrNotFound indicates the source does not exist or cannot be read.
	ErrNotFound = errors.New("config source not found")

	// ErrDecode indicates the source is not valid UTF-8 text.
	ErrDecode = errors.New("config source is not valid text")
)

// NotFoundError reports a missing or unreadable source.
type NotFoundError struct {
	Source string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot read %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("cannot read %s", e.Source)
}

// Unwrap returns the underlying read error.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DecodeError reports bytes that are not valid UTF-8.
type DecodeError struct {
	Source string
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid UTF-8 at byte %d", e.Source, e.Offset)
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Load reads and parses the file at path.
func Load(path string, opts ...ParseOption) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Source: path, Err: err}
	}
	return Decode(path, data, opts...)
}

// LoadFS reads and parses a file from fsys.
func LoadFS(fsys fs.FS, name string, opts ...ParseOption) (*Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, &NotFoundError{Source: name, Err: err}
	}
	return Decode(name, data, opts...)
}

// LoadReader reads r to the end and parses the result.
// source names the reader in errors.
func LoadReader(source string, r io.Reader, opts ...ParseOption) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &NotFoundError{Source: source, Err: err}
	}
	return Decode(source, data, opts...)
}

// Decode validates data as UTF-8 and parses it.
func Decode(source string, data []byte, opts ...ParseOption) (*Document, error) {
	if off := invalidUTF8(data); off >= 0 {
		return nil, &DecodeError{Source: source, Offset: off}
	}
	return Parse(string(data), opts...), nil
}

// invalidUTF8 returns the offset of the first invalid byte, or -1.
func invalidUTF8(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
