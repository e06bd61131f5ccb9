package app

import (
	"errors"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "op only",
			err:      &OperationError{Op: "save"},
			expected: "save",
		},
		{
			name:     "op and target",
			err:      &OperationError{Op: "open", Target: "/etc/uncrustify.cfg"},
			expected: "open /etc/uncrustify.cfg",
		},
		{
			name:     "op, target, and context",
			err:      &OperationError{Op: "open", Target: "/etc/uncrustify.cfg", Context: "permission denied"},
			expected: "open /etc/uncrustify.cfg (permission denied)",
		},
		{
			name:     "full error chain",
			err:      &OperationError{Op: "open", Target: "/etc/uncrustify.cfg", Context: "read failed", Err: errors.New("io error")},
			expected: "open /etc/uncrustify.cfg (read failed): io error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = '%s', expected '%s'", result, tt.expected)
			}
		})
	}
}

func TestOperationError_WithContext(t *testing.T) {
	err := NewOperationError("save", "/etc/uncrustify.cfg", nil)
	err = err.WithContext("disk full")

	if err.Context != "disk full" {
		t.Errorf("expected context 'disk full', got '%s'", err.Context)
	}
}

func TestOperationError_WithContext_Nil(t *testing.T) {
	var err *OperationError
	result := err.WithContext("context")
	if result != nil {
		t.Error("expected nil result for nil receiver")
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := NewOperationError("set", "sp_arith", inner)

	if err.Unwrap() != inner {
		t.Error("Unwrap() did not return inner error")
	}
}

func TestOperationError_Unwrap_Nil(t *testing.T) {
	var err *OperationError
	if err.Unwrap() != nil {
		t.Error("expected nil from Unwrap() on nil receiver")
	}
}

func TestOperationError_Is(t *testing.T) {
	sentinel := errors.New("sentinel error")
	err := NewOperationError("set", "sp_arith", sentinel)

	// Should match wrapped error
	if !errors.Is(err, sentinel) {
		t.Error("expected errors.Is to match wrapped sentinel")
	}

	// Should match same instance
	if !errors.Is(err, err) {
		t.Error("expected errors.Is to match same instance")
	}

	// Should not match different error
	other := errors.New("other error")
	if errors.Is(err, other) {
		t.Error("expected errors.Is to not match different error")
	}
}

func TestOperationError_Is_Nil(t *testing.T) {
	var err *OperationError
	if err.Is(errors.New("any")) {
		t.Error("expected Is() to return false for nil receiver")
	}
}

func TestComponentError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ComponentError
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "component only",
			err:      &ComponentError{Component: "watcher"},
			expected: "watcher",
		},
		{
			name:     "component and action",
			err:      &ComponentError{Component: "watcher", Action: "start"},
			expected: "watcher: start",
		},
		{
			name:     "component, action, and error",
			err:      &ComponentError{Component: "examples", Action: "lookup", Err: errors.New("timeout")},
			expected: "examples: lookup: timeout",
		},
		{
			name:     "component and error only",
			err:      &ComponentError{Component: "watcher", Err: errors.New("failed")},
			expected: "watcher: failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = '%s', expected '%s'", result, tt.expected)
			}
		})
	}
}

func TestComponentError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := NewComponentError("watcher", "start", inner)

	if err.Unwrap() != inner {
		t.Error("Unwrap() did not return inner error")
	}
	if !errors.Is(NewOperationError("watch", "a.cfg", err), inner) {
		t.Error("expected errors.Is to see through both wrappers")
	}
}

func TestComponentError_Unwrap_Nil(t *testing.T) {
	var err *ComponentError
	if err.Unwrap() != nil {
		t.Error("expected nil from Unwrap() on nil receiver")
	}
}

func TestErrorList_Add(t *testing.T) {
	el := NewErrorList()

	el.Add(errors.New("error 1"))
	el.Add(nil) // Should be ignored
	el.Add(errors.New("error 2"))

	if el.Len() != 2 {
		t.Errorf("expected 2 errors, got %d", el.Len())
	}
}

func TestErrorList_Errors(t *testing.T) {
	el := NewErrorList()

	if el.Errors() != nil {
		t.Error("expected nil slice for empty error list")
	}

	el.Add(errors.New("error 1"))
	el.Add(errors.New("error 2"))

	errs := el.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}

	// Verify returned slice is a copy
	errs[0] = nil
	if el.Errors()[0] == nil {
		t.Error("expected Errors() to return a copy")
	}
}

func TestErrorList_Error(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*ErrorList)
		expected string
	}{
		{
			name:     "empty list",
			setup:    func(el *ErrorList) {},
			expected: "",
		},
		{
			name: "single error",
			setup: func(el *ErrorList) {
				el.Add(errors.New("single error"))
			},
			expected: "single error",
		},
		{
			name: "multiple errors",
			setup: func(el *ErrorList) {
				el.Add(errors.New("first error"))
				el.Add(errors.New("second error"))
			},
			expected: "2 errors: first: first error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := NewErrorList()
			tt.setup(el)
			result := el.Error()
			if result != tt.expected {
				t.Errorf("Error() = '%s', expected '%s'", result, tt.expected)
			}
		})
	}
}

func TestErrorList_AsError(t *testing.T) {
	el := NewErrorList()

	if el.AsError() != nil {
		t.Error("expected nil for empty list")
	}

	el.Add(errors.New("first"))
	el.Add(ErrClosed)
	err := el.AsError()
	if err == nil {
		t.Fatal("expected non-nil for non-empty list")
	}
	if !errors.Is(err, ErrClosed) {
		t.Error("expected errors.Is to find a later error in the list")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNoDocument,
		ErrUnknownValue,
		ErrNoFilePath,
		ErrClosed,
		ErrNoCacheDir,
		ErrUnknownFormat,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
